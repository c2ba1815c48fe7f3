package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func pairFrame(stretch float64, vel r2.Vec) dynamo.Frame {
	return dynamo.Frame{Particles: []dynamo.Particle{
		{Pos: r2.Vec{}},
		{Pos: r2.Vec{X: 5 + stretch}, Vel: vel},
	}}
}

var pairBonds = []dynamo.Bond{{I: 0, J: 1, RestLength: 5, Stiffness: 10}}

func pairParams() dynamo.Params {
	return dynamo.Params{Rows: 1, Cols: 2, Spacing: 5, Stiffness: 10, RestLength: 5, Mass: 2}
}

func TestEnergyLatestFrame(t *testing.T) {
	m := NewEnergy(pairBonds, pairParams())

	m.Observe(pairFrame(1, r2.Vec{}))
	if math.Abs(m.Value()-5) > 1e-12 {
		t.Errorf("expected spring energy 5, got %f", m.Value())
	}

	m.Observe(pairFrame(0, r2.Vec{X: 3}))
	if math.Abs(m.Value()-9) > 1e-12 {
		t.Errorf("expected kinetic energy 9, got %f", m.Value())
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy(pairBonds, pairParams())

	m.Observe(pairFrame(2, r2.Vec{X: 1}))
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(pairBonds, pairParams())

	m.Observe(pairFrame(1, r2.Vec{}))
	m.Observe(pairFrame(0, r2.Vec{X: 2}))
	m.Observe(pairFrame(1, r2.Vec{}))

	// 5 -> 4 -> 5
	if math.Abs(m.Value()-0.2) > 1e-12 {
		t.Errorf("expected max drift 0.2, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected zero drift after reset, got %f", m.Value())
	}
}

func TestEnergyDriftZeroBaseline(t *testing.T) {
	m := NewEnergyDrift(pairBonds, pairParams())

	m.Observe(pairFrame(0, r2.Vec{}))
	m.Observe(pairFrame(1, r2.Vec{}))

	if m.Value() != 0 {
		t.Errorf("drift is undefined against zero energy, got %f", m.Value())
	}
}

func TestMomentum(t *testing.T) {
	m := NewMomentum(2)
	m.Observe(dynamo.Frame{Particles: []dynamo.Particle{
		{Vel: r2.Vec{X: 3}},
		{Vel: r2.Vec{Y: 4}},
	}})

	if math.Abs(m.Value()-10) > 1e-12 {
		t.Errorf("expected |p| = 10, got %f", m.Value())
	}
}
