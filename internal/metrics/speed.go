package metrics

import (
	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// MeanSpeed averages particle speed over every observed frame.
type MeanSpeed struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{
		name: "mean_speed",
	}
}

func (m *MeanSpeed) Name() string {
	return m.name
}

func (m *MeanSpeed) Observe(f dynamo.Frame) {
	for _, p := range f.Particles {
		m.sum += r2.Norm(p.Vel)
		m.samples++
	}
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}
