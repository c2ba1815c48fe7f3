package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSemiImplicitEuler_Order(t *testing.T) {
	particles := []dynamo.Particle{{Pos: r2.Vec{X: 1, Y: 2}, Vel: r2.Vec{X: 0.5}}}
	forces := []r2.Vec{{X: 2, Y: -4}}

	NewSemiImplicitEuler().Step(particles, forces, 2, 0.5)

	// v = (0.5,0) + (2,-4)/2*0.5 = (1, -1); x = (1,2) + v*0.5
	p := particles[0]
	if p.Vel.X != 1 || p.Vel.Y != -1 {
		t.Errorf("velocity = %v, want (1, -1)", p.Vel)
	}
	if p.Pos.X != 1.5 || p.Pos.Y != 1.5 {
		t.Errorf("position = %v, want (1.5, 1.5)", p.Pos)
	}
}

func TestExplicitEuler_Order(t *testing.T) {
	particles := []dynamo.Particle{{Pos: r2.Vec{X: 1, Y: 2}, Vel: r2.Vec{X: 0.5}}}
	forces := []r2.Vec{{X: 2, Y: -4}}

	NewExplicitEuler().Step(particles, forces, 2, 0.5)

	p := particles[0]
	if p.Pos.X != 1.25 || p.Pos.Y != 2 {
		t.Errorf("position = %v, want (1.25, 2)", p.Pos)
	}
	if p.Vel.X != 1 || p.Vel.Y != -1 {
		t.Errorf("velocity = %v, want (1, -1)", p.Vel)
	}
}

// oscillate runs a unit mass on a spring to the origin and returns the
// final energy relative to the initial one.
func oscillate(integ dynamo.Integrator, k, dt float64, steps int) float64 {
	particles := []dynamo.Particle{{Pos: r2.Vec{X: 1}}}
	forces := make([]r2.Vec, 1)
	energy := func() float64 {
		p := particles[0]
		return 0.5*r2.Norm2(p.Vel) + 0.5*k*r2.Norm2(p.Pos)
	}
	e0 := energy()
	for i := 0; i < steps; i++ {
		forces[0] = r2.Scale(-k, particles[0].Pos)
		integ.Step(particles, forces, 1, dt)
	}
	return energy() / e0
}

func TestSemiImplicitEuler_BoundedEnergy(t *testing.T) {
	ratio := oscillate(NewSemiImplicitEuler(), 10, 0.01, 10000)
	if math.Abs(ratio-1) > 0.05 {
		t.Errorf("semi-implicit energy ratio %f drifted", ratio)
	}
}

func TestExplicitEuler_GainsEnergy(t *testing.T) {
	ratio := oscillate(NewExplicitEuler(), 10, 0.01, 10000)
	if ratio < 2 {
		t.Errorf("explicit Euler should gain energy, ratio %f", ratio)
	}
}

func TestGet(t *testing.T) {
	for _, name := range Names() {
		if _, err := Get(name); err != nil {
			t.Errorf("Get(%q): %v", name, err)
		}
	}
	if _, err := Get("rk4"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if _, err := Get(Default); err != nil {
		t.Errorf("default integrator missing: %v", err)
	}
}
