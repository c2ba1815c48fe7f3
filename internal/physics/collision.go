package physics

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// FallbackNormal is used when a particle sits exactly on a circle's center.
var FallbackNormal = r2.Vec{X: 0, Y: -1}

// Contact is a penetration: moving the particle Depth along Normal puts it
// back on the surface. Depth is always positive.
type Contact struct {
	Normal r2.Vec
	Depth  float64
}

// ResolveCollisions tests every particle against every obstacle in order,
// pushing penetrating particles to the surface and reflecting the
// approaching part of their velocity. It returns the number of contacts.
func ResolveCollisions(particles []dynamo.Particle, obstacles []dynamo.Obstacle, radius float64) int {
	contacts := 0
	for i := range particles {
		for _, o := range obstacles {
			c, ok := Penetration(particles[i].Pos, o, radius)
			if !ok {
				continue
			}
			Resolve(&particles[i], c)
			contacts++
		}
	}
	return contacts
}

// Resolve pushes p out along the contact normal, then reflects its velocity
// if it is moving into the obstacle. Speed is preserved.
func Resolve(p *dynamo.Particle, c Contact) {
	p.Pos = r2.Add(p.Pos, r2.Scale(c.Depth, c.Normal))
	// Approaching-only: a particle already separating after an earlier
	// contact this step keeps its velocity instead of being sent back in.
	if vn := r2.Dot(p.Vel, c.Normal); vn < 0 {
		p.Vel = r2.Sub(p.Vel, r2.Scale(2*vn, c.Normal))
	}
}

// Penetration reports whether a particle of the given radius at pos overlaps o.
func Penetration(pos r2.Vec, o dynamo.Obstacle, radius float64) (Contact, bool) {
	switch o.Kind {
	case dynamo.KindCircle:
		return circlePenetration(pos, o, radius)
	case dynamo.KindBox:
		return boxPenetration(pos, o, radius)
	default:
		return Contact{}, false
	}
}

func circlePenetration(pos r2.Vec, o dynamo.Obstacle, radius float64) (Contact, bool) {
	d := r2.Sub(pos, o.Center)
	dist := r2.Norm(d)
	reach := o.Radius + radius
	if dist >= reach {
		return Contact{}, false
	}

	n := FallbackNormal
	if dist > 0 {
		n = r2.Vec{X: d.X / dist, Y: d.Y / dist}
	}
	return Contact{Normal: n, Depth: reach - dist}, true
}

func boxPenetration(pos r2.Vec, o dynamo.Obstacle, radius float64) (Contact, bool) {
	rel := r2.Sub(pos, o.Center)
	h := o.HalfExtents

	closest := r2.Vec{X: clamp(rel.X, -h.X, h.X), Y: clamp(rel.Y, -h.Y, h.Y)}
	d := r2.Sub(rel, closest)
	dist := r2.Norm(d)

	if dist > 0 {
		if dist >= radius {
			return Contact{}, false
		}
		return Contact{Normal: r2.Vec{X: d.X / dist, Y: d.Y / dist}, Depth: radius - dist}, true
	}

	// inside or on the boundary: leave through the nearest face, ties in
	// order -x, +x, -y, +y
	faces := [4]struct {
		dist   float64
		normal r2.Vec
	}{
		{rel.X + h.X, r2.Vec{X: -1}},
		{h.X - rel.X, r2.Vec{X: 1}},
		{rel.Y + h.Y, r2.Vec{Y: -1}},
		{h.Y - rel.Y, r2.Vec{Y: 1}},
	}
	best := 0
	for k := 1; k < len(faces); k++ {
		if faces[k].dist < faces[best].dist {
			best = k
		}
	}

	depth := faces[best].dist + radius
	if depth <= 0 {
		return Contact{}, false
	}
	return Contact{Normal: faces[best].normal, Depth: depth}, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
