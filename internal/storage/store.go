package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
	configFile    = "config.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	StepsTaken  int                `json:"steps_taken"`
	Integrator  string             `json:"integrator"`
	Topology    string             `json:"topology"`
	Rows        int                `json:"rows"`
	Cols        int                `json:"cols"`
	Obstacles   int                `json:"obstacles"`
	Frames      int                `json:"frames"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`

	// NonFinite names values left out because they were NaN or Inf.
	NonFinite []string `json:"non_finite,omitempty"`
}

// Save writes metadata.json, config.yaml and positions.csv into a new run
// directory and returns its id. A failed save removes the directory.
func (s *Store) Save(name string, cfg *config.Config, result *dynamo.Result) (id string, err error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		Timestamp:  now,
		Dt:         cfg.Dt,
		Steps:      cfg.Steps,
		StepsTaken: result.StepsTaken,
		Integrator: cfg.Integrator,
		Topology:   cfg.Topology,
		Rows:       cfg.Mesh.Rows,
		Cols:       cfg.Mesh.Cols,
		Obstacles:  len(cfg.Obstacles),
		Frames:     len(result.Frames),
		Metrics:    make(map[string]float64, len(result.Metrics)),
	}
	if finite(result.EnergyDrift) {
		meta.EnergyDrift = result.EnergyDrift
	} else {
		meta.NonFinite = append(meta.NonFinite, "energy_drift")
	}
	for _, k := range sortedKeys(result.Metrics) {
		if v := result.Metrics[k]; finite(v) {
			meta.Metrics[k] = v
		} else {
			meta.NonFinite = append(meta.NonFinite, "metrics."+k)
		}
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, positionsFile), result.Frames); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// positions.csv has one row per recorded frame:
// step,time,x0,y0,vx0,vy0,x1,...
func writeFrames(path string, frames []dynamo.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(frames) > 0 {
		header := []string{"step", "time"}
		for i := range frames[0].Particles {
			header = append(header,
				fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i),
				fmt.Sprintf("vx%d", i), fmt.Sprintf("vy%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}

	for _, fr := range frames {
		row := make([]string, 0, 2+4*len(fr.Particles))
		row = append(row, strconv.Itoa(fr.Step), formatFloat(fr.Time))
		for _, p := range fr.Particles {
			row = append(row,
				formatFloat(p.Pos.X), formatFloat(p.Pos.Y),
				formatFloat(p.Vel.X), formatFloat(p.Vel.Y))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.Dir(runID), configFile))
}

func (s *Store) LoadFrames(runID string) ([]dynamo.Frame, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), positionsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	if len(records) < 2 {
		return []dynamo.Frame{}, nil
	}

	frames := make([]dynamo.Frame, 0, len(records)-1)
	for i, record := range records[1:] {
		fr, err := parseFrame(record)
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}
		frames = append(frames, fr)
	}

	return frames, nil
}

func parseFrame(record []string) (dynamo.Frame, error) {
	if len(record) < 2 || (len(record)-2)%4 != 0 {
		return dynamo.Frame{}, fmt.Errorf("%w: %d columns", dynamo.ErrDimensionMismatch, len(record))
	}

	step, err := strconv.Atoi(record[0])
	if err != nil {
		return dynamo.Frame{}, err
	}

	vals := make([]float64, len(record)-1)
	for j, field := range record[1:] {
		vals[j], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return dynamo.Frame{}, err
		}
	}

	fr := dynamo.Frame{
		Step:      step,
		Time:      vals[0],
		Particles: make([]dynamo.Particle, (len(vals)-1)/4),
	}
	for k := range fr.Particles {
		v := vals[1+4*k:]
		fr.Particles[k] = dynamo.Particle{
			Pos: r2.Vec{X: v[0], Y: v[1]},
			Vel: r2.Vec{X: v[2], Y: v[3]},
		}
	}
	return fr, nil
}
