package sim

import (
	"fmt"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/integrators"
	"github.com/san-kum/softbody/internal/logging"
	"github.com/san-kum/softbody/internal/physics"
	"github.com/san-kum/softbody/internal/topology"
	"gonum.org/v1/gonum/spatial/r2"
)

type Phase int

const (
	Constructed Phase = iota
	Stepped
)

func (p Phase) String() string {
	if p == Stepped {
		return "stepped"
	}
	return "constructed"
}

// Simulation owns the particles, the fixed bond list and the obstacles of
// one session. It is not safe for concurrent use.
type Simulation struct {
	params     dynamo.Params
	particles  []dynamo.Particle
	bonds      []dynamo.Bond
	obstacles  []dynamo.Obstacle
	forces     []r2.Vec
	integrator dynamo.Integrator
	logger     *logging.Logger
	warnings   []StabilityWarning

	customBonds bool
	initialVel  r2.Vec
	phase       Phase
	steps       int
	time        float64
	contacts    int
}

type Option func(*Simulation)

func WithIntegrator(i dynamo.Integrator) Option {
	return func(s *Simulation) { s.integrator = i }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithVelocity gives every particle the same initial velocity.
func WithVelocity(v r2.Vec) Option {
	return func(s *Simulation) { s.initialVel = v }
}

// WithBonds replaces the grid topology. The list is copied and validated.
func WithBonds(bonds []dynamo.Bond) Option {
	return func(s *Simulation) {
		s.bonds = append([]dynamo.Bond(nil), bonds...)
		s.customBonds = true
	}
}

// New lays out a Rows x Cols grid of particles at rest, spaced Spacing apart
// from Origin, bonds neighbours, and stores the obstacles as given.
func New(p dynamo.Params, obstacles []dynamo.Obstacle, opts ...Option) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for i, o := range obstacles {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
	}

	s := &Simulation{
		params:     p,
		integrator: integrators.NewSemiImplicitEuler(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	n := p.NumParticles()
	s.particles = make([]dynamo.Particle, n)
	for row := 0; row < p.Rows; row++ {
		for col := 0; col < p.Cols; col++ {
			s.particles[row*p.Cols+col] = dynamo.Particle{
				Pos: r2.Vec{
					X: p.Origin.X + float64(col)*p.Spacing,
					Y: p.Origin.Y + float64(row)*p.Spacing,
				},
				Vel: s.initialVel,
			}
		}
	}

	if !s.customBonds {
		s.bonds = topology.Grid(p.Rows, p.Cols, p.RestLength, p.Stiffness)
	}
	if err := topology.Validate(n, s.bonds); err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}

	s.obstacles = append([]dynamo.Obstacle(nil), obstacles...)
	s.forces = make([]r2.Vec, n)

	if p.TimeStep > 0 {
		s.warnings = CheckStability(p, s.bonds, p.TimeStep)
		for _, w := range s.warnings {
			s.logger.Warnf("stability: %s", w)
		}
	}

	s.logger.Debugf("created %dx%d mesh: %d particles, %d bonds, %d obstacles",
		p.Rows, p.Cols, n, len(s.bonds), len(s.obstacles))

	return s, nil
}

// Step advances the simulation by dt: forces, integration, then collisions.
func (s *Simulation) Step(dt float64) {
	physics.Accumulate(s.forces, s.particles, s.bonds, s.params)
	s.integrator.Step(s.particles, s.forces, s.params.Mass, dt)
	s.contacts = physics.ResolveCollisions(s.particles, s.obstacles, s.params.ParticleRadius)

	s.steps++
	s.time += dt
	s.phase = Stepped
}

// Positions returns particle positions in index order.
func (s *Simulation) Positions() []dynamo.Position {
	out := make([]dynamo.Position, len(s.particles))
	for i, p := range s.particles {
		out[i] = dynamo.Position{X: float32(p.Pos.X), Y: float32(p.Pos.Y)}
	}
	return out
}

// Obstacles returns the renderer view of the obstacle list.
func (s *Simulation) Obstacles() []dynamo.ObstacleDescriptor {
	out := make([]dynamo.ObstacleDescriptor, len(s.obstacles))
	for i, o := range s.obstacles {
		out[i] = dynamo.ObstacleDescriptor{
			Kind:       o.Kind,
			X:          float32(o.Center.X),
			Y:          float32(o.Center.Y),
			Radius:     float32(o.Radius),
			HalfWidth:  float32(o.HalfExtents.X),
			HalfHeight: float32(o.HalfExtents.Y),
		}
	}
	return out
}

// Particles returns a full precision copy of the particle state.
func (s *Simulation) Particles() []dynamo.Particle {
	return append([]dynamo.Particle(nil), s.particles...)
}

func (s *Simulation) Bonds() []dynamo.Bond {
	return append([]dynamo.Bond(nil), s.bonds...)
}

func (s *Simulation) ObstacleList() []dynamo.Obstacle {
	return append([]dynamo.Obstacle(nil), s.obstacles...)
}

func (s *Simulation) Frame() dynamo.Frame {
	return dynamo.Frame{Step: s.steps, Time: s.time, Particles: s.Particles()}
}

// valid reports whether every particle is finite, without copying state.
func (s *Simulation) valid() bool {
	for _, p := range s.particles {
		if !p.IsValid() {
			return false
		}
	}
	return true
}

func (s *Simulation) Energy() float64 {
	return physics.TotalEnergy(s.particles, s.bonds, s.params)
}

func (s *Simulation) Params() dynamo.Params         { return s.params }
func (s *Simulation) Phase() Phase                  { return s.phase }
func (s *Simulation) Steps() int                    { return s.steps }
func (s *Simulation) Time() float64                 { return s.time }
func (s *Simulation) Contacts() int                 { return s.contacts }
func (s *Simulation) NumParticles() int             { return len(s.particles) }
func (s *Simulation) Warnings() []StabilityWarning  { return s.warnings }
func (s *Simulation) Integrator() dynamo.Integrator { return s.integrator }
