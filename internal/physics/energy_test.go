package physics

import (
	"math"
	"testing"

	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestEnergyTerms(t *testing.T) {
	particles := pair(0, 0, 7, 0)
	particles[0].Vel = r2.Vec{X: 3, Y: 4}
	bonds := []dynamo.Bond{{I: 0, J: 1, RestLength: 5, Stiffness: 10}}

	if ke := KineticEnergy(particles, 2); math.Abs(ke-25) > 1e-12 {
		t.Errorf("kinetic energy = %f, want 25", ke)
	}
	if se := SpringEnergy(particles, bonds, 0); math.Abs(se-20) > 1e-12 {
		t.Errorf("spring energy = %f, want 20", se)
	}
	if se := SpringEnergy(particles, bonds, 6); se != 0 {
		t.Errorf("slack bond should store no energy, got %f", se)
	}

	shifted := pair(0, 10, 0, 20)
	if ge := GravityEnergy(shifted, 1, r2.Vec{Y: 10}); math.Abs(ge+300) > 1e-12 {
		t.Errorf("gravity energy = %f, want -300", ge)
	}
}

func TestMomentum(t *testing.T) {
	particles := pair(0, 0, 1, 1)
	particles[0].Vel = r2.Vec{X: 1, Y: 2}
	particles[1].Vel = r2.Vec{X: -1, Y: 3}

	m := Momentum(particles, 2)
	if m.X != 0 || m.Y != 10 {
		t.Errorf("momentum = %v, want (0, 10)", m)
	}
}
