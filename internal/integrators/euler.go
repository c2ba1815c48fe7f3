package integrators

import (
	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// SemiImplicitEuler updates velocity from force first, then position from
// the new velocity.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Step(particles []dynamo.Particle, forces []r2.Vec, mass, dt float64) {
	scale := dt / mass
	for i := range particles {
		p := &particles[i]
		p.Vel = r2.Add(p.Vel, r2.Scale(scale, forces[i]))
		p.Pos = r2.Add(p.Pos, r2.Scale(dt, p.Vel))
	}
}

// ExplicitEuler advances position with the old velocity. It gains energy on
// every oscillation and is only kept to compare against SemiImplicitEuler.
type ExplicitEuler struct{}

func NewExplicitEuler() *ExplicitEuler {
	return &ExplicitEuler{}
}

func (e *ExplicitEuler) Step(particles []dynamo.Particle, forces []r2.Vec, mass, dt float64) {
	scale := dt / mass
	for i := range particles {
		p := &particles[i]
		p.Pos = r2.Add(p.Pos, r2.Scale(dt, p.Vel))
		p.Vel = r2.Add(p.Vel, r2.Scale(scale, forces[i]))
	}
}
