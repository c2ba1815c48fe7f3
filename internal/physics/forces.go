package physics

import (
	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Accumulate overwrites forces with the spring and gravity forces acting on
// each particle. len(forces) must equal len(particles).
func Accumulate(forces []r2.Vec, particles []dynamo.Particle, bonds []dynamo.Bond, p dynamo.Params) {
	for i := range forces {
		forces[i] = r2.Vec{}
	}

	for _, b := range bonds {
		f, ok := BondForce(particles[b.I], particles[b.J], b, p.Damping, p.Cutoff)
		if !ok {
			continue
		}
		forces[b.I] = r2.Add(forces[b.I], f)
		forces[b.J] = r2.Sub(forces[b.J], f)
	}

	g := r2.Scale(p.Mass, p.Gravity)
	for i := range forces {
		forces[i] = r2.Add(forces[i], g)
	}
}

// BondForce returns the force the bond exerts on a; b receives the negation.
// ok is false when the endpoints coincide or the bond is stretched past
// cutoff and therefore slack.
func BondForce(a, b dynamo.Particle, bond dynamo.Bond, damping, cutoff float64) (f r2.Vec, ok bool) {
	d := r2.Sub(b.Pos, a.Pos)
	r := r2.Norm(d)
	if r == 0 {
		return r2.Vec{}, false
	}
	if cutoff > 0 && r > cutoff {
		return r2.Vec{}, false
	}

	u := r2.Vec{X: d.X / r, Y: d.Y / r}
	mag := bond.Stiffness * (r - bond.RestLength)
	if damping != 0 {
		mag += damping * r2.Dot(r2.Sub(b.Vel, a.Vel), u)
	}
	return r2.Scale(mag, u), true
}
