package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
)

// Stability is the fraction of frames in which every particle is finite and
// within threshold of the origin in both position and speed.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f dynamo.Frame) {
	s.samples++
	for _, p := range f.Particles {
		if !p.IsValid() || s.exceeds(p.Pos.X, p.Pos.Y, p.Vel.X, p.Vel.Y) {
			s.violations++
			break
		}
	}
}

func (s *Stability) exceeds(vals ...float64) bool {
	for _, v := range vals {
		if math.Abs(v) > s.threshold {
			return true
		}
	}
	return false
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
