package viz

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Scene is the static part of a picture: bond topology and obstacles.
type Scene struct {
	Bonds     []dynamo.Bond
	Obstacles []dynamo.Obstacle
	// ParticleRadius is drawn as a dot size when it spans more than a pixel.
	ParticleRadius float64
}

// Bounds returns the smallest rectangle holding every obstacle and the given
// particles, padded by margin on all sides.
func (s Scene) Bounds(particles []dynamo.Particle, margin float64) (lo, hi r2.Vec) {
	lo = r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi = r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(x, y float64) {
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return
		}
		lo.X, lo.Y = math.Min(lo.X, x), math.Min(lo.Y, y)
		hi.X, hi.Y = math.Max(hi.X, x), math.Max(hi.Y, y)
	}

	for _, p := range particles {
		grow(p.Pos.X, p.Pos.Y)
	}
	for _, o := range s.Obstacles {
		ext := r2.Vec{X: o.Radius, Y: o.Radius}
		if o.Kind == dynamo.KindBox {
			ext = o.HalfExtents
		}
		grow(o.Center.X-ext.X, o.Center.Y-ext.Y)
		grow(o.Center.X+ext.X, o.Center.Y+ext.Y)
	}

	if math.IsInf(lo.X, 1) {
		return r2.Vec{}, r2.Vec{X: 1, Y: 1}
	}
	pad := r2.Vec{X: margin, Y: margin}
	return r2.Sub(lo, pad), r2.Add(hi, pad)
}

// Fit returns a viewport framing the scene and particles on c.
func (s Scene) Fit(c *Canvas, particles []dynamo.Particle) Viewport {
	lo, hi := s.Bounds(particles, 2)
	w, h := c.PixelSize()
	return FitViewport(lo.X, lo.Y, hi.X, hi.Y, w, h)
}

// Render clears c and draws obstacles, bonds and particles.
func Render(c *Canvas, v Viewport, s Scene, particles []dynamo.Particle) {
	c.Clear()

	for _, o := range s.Obstacles {
		cx, cy := v.Project(o.Center.X, o.Center.Y)
		switch o.Kind {
		case dynamo.KindCircle:
			c.DrawCircle(cx, cy, v.Length(o.Radius))
		case dynamo.KindBox:
			x0, y0 := v.Project(o.Center.X-o.HalfExtents.X, o.Center.Y-o.HalfExtents.Y)
			x1, y1 := v.Project(o.Center.X+o.HalfExtents.X, o.Center.Y+o.HalfExtents.Y)
			c.DrawRect(x0, y0, x1, y1)
		}
	}

	for _, b := range s.Bonds {
		if b.I >= len(particles) || b.J >= len(particles) {
			continue
		}
		pi, pj := particles[b.I], particles[b.J]
		if !pi.IsValid() || !pj.IsValid() {
			continue
		}
		x0, y0 := v.Project(pi.Pos.X, pi.Pos.Y)
		x1, y1 := v.Project(pj.Pos.X, pj.Pos.Y)
		c.DrawLine(x0, y0, x1, y1)
	}

	dot := v.Length(s.ParticleRadius) / 2
	for _, p := range particles {
		if !p.IsValid() {
			continue
		}
		x, y := v.Project(p.Pos.X, p.Pos.Y)
		c.Dot(x, y, dot)
	}
}
