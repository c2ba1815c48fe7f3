package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/physics"
)

// Containment records the deepest obstacle penetration seen in any frame.
// Collision resolution runs at the end of every step, so a healthy run
// reports zero up to rounding.
type Containment struct {
	name      string
	obstacles []dynamo.Obstacle
	radius    float64
	maxDepth  float64
}

func NewContainment(obstacles []dynamo.Obstacle, particleRadius float64) *Containment {
	return &Containment{
		name:      "max_penetration",
		obstacles: obstacles,
		radius:    particleRadius,
	}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(f dynamo.Frame) {
	for _, p := range f.Particles {
		for _, o := range c.obstacles {
			if contact, ok := physics.Penetration(p.Pos, o, c.radius); ok {
				c.maxDepth = math.Max(c.maxDepth, contact.Depth)
			}
		}
	}
}

func (c *Containment) Value() float64 { return c.maxDepth }
func (c *Containment) Reset()         { c.maxDepth = 0 }
