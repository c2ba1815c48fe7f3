package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/softbody/internal/dynamo"
)

// Trajectory is the JSON document of one run.
type Trajectory struct {
	Name        string             `json:"name"`
	Integrator  string             `json:"integrator"`
	Topology    string             `json:"topology"`
	Dt          float64            `json:"dt"`
	Rows        int                `json:"rows"`
	Cols        int                `json:"cols"`
	Bonds       [][2]int           `json:"bonds"`
	Obstacles   []Obstacle         `json:"obstacles"`
	Steps       []int              `json:"steps"`
	Times       []float64          `json:"times"`
	Positions   [][][2]float64     `json:"positions"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

type Obstacle struct {
	Kind       string  `json:"kind"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius,omitempty"`
	HalfWidth  float64 `json:"half_width,omitempty"`
	HalfHeight float64 `json:"half_height,omitempty"`
}

// NewTrajectory flattens frames into per-frame position lists.
func NewTrajectory(frames []dynamo.Frame, bonds []dynamo.Bond, obstacles []dynamo.Obstacle) *Trajectory {
	t := &Trajectory{
		Bonds:     make([][2]int, len(bonds)),
		Obstacles: make([]Obstacle, len(obstacles)),
		Steps:     make([]int, len(frames)),
		Times:     make([]float64, len(frames)),
		Positions: make([][][2]float64, len(frames)),
	}
	for i, b := range bonds {
		t.Bonds[i] = [2]int{b.I, b.J}
	}
	for i, o := range obstacles {
		t.Obstacles[i] = Obstacle{
			Kind:       o.Kind.String(),
			X:          o.Center.X,
			Y:          o.Center.Y,
			Radius:     o.Radius,
			HalfWidth:  o.HalfExtents.X,
			HalfHeight: o.HalfExtents.Y,
		}
	}
	for i, f := range frames {
		t.Steps[i] = f.Step
		t.Times[i] = f.Time
		pos := make([][2]float64, len(f.Particles))
		for j, p := range f.Particles {
			pos[j] = [2]float64{p.Pos.X, p.Pos.Y}
		}
		t.Positions[i] = pos
	}
	return t
}

func WriteJSON(w io.Writer, t *Trajectory) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(t)
}

func ExportJSON(path string, t *Trajectory) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, t)
}
