package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// Energy reports the total mechanical energy of the latest frame.
type Energy struct {
	name    string
	bonds   []dynamo.Bond
	params  dynamo.Params
	current float64
	samples int
}

func NewEnergy(bonds []dynamo.Bond, p dynamo.Params) *Energy {
	return &Energy{
		name:   "energy",
		bonds:  bonds,
		params: p,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(f dynamo.Frame) {
	e.current = physics.TotalEnergy(f.Particles, e.bonds, e.params)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.current
}

func (e *Energy) Reset() {
	e.current = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative departure from the energy of the
// first observed frame.
type EnergyDrift struct {
	name          string
	bonds         []dynamo.Bond
	params        dynamo.Params
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(bonds []dynamo.Bond, p dynamo.Params) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		bonds:  bonds,
		params: p,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f dynamo.Frame) {
	energy := physics.TotalEnergy(f.Particles, e.bonds, e.params)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// Momentum reports the magnitude of the total linear momentum of the latest
// frame. Bond forces cancel pairwise, so without gravity or contacts it
// stays at its initial value.
type Momentum struct {
	name    string
	mass    float64
	current float64
}

func NewMomentum(mass float64) *Momentum {
	return &Momentum{name: "momentum", mass: mass}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(f dynamo.Frame) {
	m.current = r2.Norm(physics.Momentum(f.Particles, m.mass))
}

func (m *Momentum) Value() float64 { return m.current }
func (m *Momentum) Reset()         { m.current = 0 }
