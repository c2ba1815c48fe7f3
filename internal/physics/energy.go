package physics

import (
	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func KineticEnergy(particles []dynamo.Particle, mass float64) float64 {
	e := 0.0
	for _, p := range particles {
		e += 0.5 * mass * r2.Norm2(p.Vel)
	}
	return e
}

// SpringEnergy sums 0.5*k*(r-L)^2 over bonds that are not slack.
func SpringEnergy(particles []dynamo.Particle, bonds []dynamo.Bond, cutoff float64) float64 {
	e := 0.0
	for _, b := range bonds {
		r := r2.Norm(r2.Sub(particles[b.J].Pos, particles[b.I].Pos))
		if cutoff > 0 && r > cutoff {
			continue
		}
		stretch := r - b.RestLength
		e += 0.5 * b.Stiffness * stretch * stretch
	}
	return e
}

// GravityEnergy is the potential -m*g.x relative to the origin.
func GravityEnergy(particles []dynamo.Particle, mass float64, gravity r2.Vec) float64 {
	e := 0.0
	for _, p := range particles {
		e -= mass * r2.Dot(gravity, p.Pos)
	}
	return e
}

func TotalEnergy(particles []dynamo.Particle, bonds []dynamo.Bond, p dynamo.Params) float64 {
	return KineticEnergy(particles, p.Mass) +
		SpringEnergy(particles, bonds, p.Cutoff) +
		GravityEnergy(particles, p.Mass, p.Gravity)
}

// Momentum is the total linear momentum.
func Momentum(particles []dynamo.Particle, mass float64) r2.Vec {
	var m r2.Vec
	for _, p := range particles {
		m = r2.Add(m, r2.Scale(mass, p.Vel))
	}
	return m
}
