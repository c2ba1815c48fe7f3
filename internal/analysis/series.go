package analysis

import (
	"fmt"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/physics"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

type Component int

const (
	PosX Component = iota
	PosY
	VelX
	VelY
)

func (c Component) String() string {
	switch c {
	case PosX:
		return "x"
	case PosY:
		return "y"
	case VelX:
		return "vx"
	case VelY:
		return "vy"
	default:
		return "unknown"
	}
}

func ParseComponent(s string) (Component, error) {
	for _, c := range []Component{PosX, PosY, VelX, VelY} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown component %q (want x, y, vx or vy)", s)
}

func (c Component) of(p dynamo.Particle) float64 {
	switch c {
	case PosX:
		return p.Pos.X
	case PosY:
		return p.Pos.Y
	case VelX:
		return p.Vel.X
	default:
		return p.Vel.Y
	}
}

// ParticleSeries returns one component of particle idx across frames.
func ParticleSeries(frames []dynamo.Frame, idx int, c Component) ([]float64, error) {
	out := make([]float64, len(frames))
	for i, f := range frames {
		if idx < 0 || idx >= len(f.Particles) {
			return nil, fmt.Errorf("%w: particle %d of %d in frame %d", dynamo.ErrDimensionMismatch, idx, len(f.Particles), f.Step)
		}
		out[i] = c.of(f.Particles[idx])
	}
	return out, nil
}

func EnergySeries(frames []dynamo.Frame, bonds []dynamo.Bond, p dynamo.Params) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = physics.TotalEnergy(f.Particles, bonds, p)
	}
	return out
}

// CentroidSeries returns the mean particle position of each frame.
func CentroidSeries(frames []dynamo.Frame) []r2.Vec {
	out := make([]r2.Vec, len(frames))
	for i, f := range frames {
		if len(f.Particles) == 0 {
			continue
		}
		var sum r2.Vec
		for _, p := range f.Particles {
			sum = r2.Add(sum, p.Pos)
		}
		out[i] = r2.Scale(1/float64(len(f.Particles)), sum)
	}
	return out
}

// SampleInterval is the time between the first two frames, or 0.
func SampleInterval(frames []dynamo.Frame) float64 {
	if len(frames) < 2 {
		return 0
	}
	return frames[1].Time - frames[0].Time
}

type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{
		Min: floats.Min(data),
		Max: floats.Max(data),
	}
	if len(data) == 1 {
		s.Mean = data[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(data, nil)
	return s
}
