package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is a point mass. Its identity is its index in the owning sequence.
type Particle struct {
	Pos r2.Vec
	Vel r2.Vec
}

func (p Particle) IsValid() bool {
	return finite(p.Pos.X) && finite(p.Pos.Y) && finite(p.Vel.X) && finite(p.Vel.Y)
}

// Bond is an elastic connection between particles I and J (I < J).
type Bond struct {
	I, J       int
	RestLength float64
	Stiffness  float64
}

type ObstacleKind int

const (
	KindCircle ObstacleKind = iota
	KindBox
)

func (k ObstacleKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindBox:
		return "box"
	default:
		return "unknown"
	}
}

// Obstacle is static geometry. Radius is used by circles, HalfExtents by boxes.
type Obstacle struct {
	Kind        ObstacleKind
	Center      r2.Vec
	Radius      float64
	HalfExtents r2.Vec
}

func Circle(x, y, radius float64) Obstacle {
	return Obstacle{Kind: KindCircle, Center: r2.Vec{X: x, Y: y}, Radius: radius}
}

func Box(x, y, halfWidth, halfHeight float64) Obstacle {
	return Obstacle{Kind: KindBox, Center: r2.Vec{X: x, Y: y}, HalfExtents: r2.Vec{X: halfWidth, Y: halfHeight}}
}

func (o Obstacle) Validate() error {
	if !finite(o.Center.X) || !finite(o.Center.Y) {
		return fmt.Errorf("%w: %s center is not finite", ErrParameterBounds, o.Kind)
	}
	switch o.Kind {
	case KindCircle:
		if !(o.Radius > 0) || !finite(o.Radius) {
			return fmt.Errorf("%w: circle radius must be positive, got %f", ErrParameterBounds, o.Radius)
		}
	case KindBox:
		if !(o.HalfExtents.X > 0) || !(o.HalfExtents.Y > 0) || !finite(o.HalfExtents.X) || !finite(o.HalfExtents.Y) {
			return fmt.Errorf("%w: box half-extents must be positive, got (%f, %f)", ErrParameterBounds, o.HalfExtents.X, o.HalfExtents.Y)
		}
	default:
		return fmt.Errorf("%w: unknown obstacle kind %d", ErrParameterBounds, o.Kind)
	}
	return nil
}

// Params is the construction-time configuration of a simulation.
// Gravity is an acceleration; the renderer's y axis points down, so the
// default pulls towards +Y.
type Params struct {
	Rows, Cols     int
	Spacing        float64
	Origin         r2.Vec
	Stiffness      float64
	Damping        float64
	RestLength     float64
	Gravity        r2.Vec
	Mass           float64
	Cutoff         float64 // 0 disables
	ParticleRadius float64
	TimeStep       float64 // nominal dt for the stability check, 0 skips it
}

const (
	DefaultStiffness  = 10.0
	DefaultRestLength = 5.0
	DefaultGravity    = 100.0
	DefaultMass       = 1.0
	DefaultTimeStep   = 0.01
)

func DefaultParams() Params {
	return Params{
		Rows:       10,
		Cols:       10,
		Spacing:    DefaultRestLength,
		Stiffness:  DefaultStiffness,
		RestLength: DefaultRestLength,
		Gravity:    r2.Vec{Y: DefaultGravity},
		Mass:       DefaultMass,
		TimeStep:   DefaultTimeStep,
	}
}

func (p Params) NumParticles() int { return p.Rows * p.Cols }

func (p Params) Validate() error {
	if p.Rows < 1 || p.Cols < 1 {
		return fmt.Errorf("%w: mesh must be at least 1x1, got %dx%d", ErrParameterBounds, p.Rows, p.Cols)
	}
	if p.NumParticles() > 1 && !(p.Spacing > 0) {
		return fmt.Errorf("%w: spacing must be positive, got %f", ErrParameterBounds, p.Spacing)
	}
	if !(p.Mass > 0) {
		return fmt.Errorf("%w: mass must be positive, got %f", ErrParameterBounds, p.Mass)
	}
	checks := []struct {
		name string
		v    float64
	}{
		{"stiffness", p.Stiffness},
		{"damping", p.Damping},
		{"rest length", p.RestLength},
		{"cutoff", p.Cutoff},
		{"particle radius", p.ParticleRadius},
		{"time step", p.TimeStep},
	}
	for _, c := range checks {
		if !finite(c.v) || c.v < 0 {
			return fmt.Errorf("%w: %s must be finite and non-negative, got %f", ErrParameterBounds, c.name, c.v)
		}
	}
	for _, v := range []float64{p.Spacing, p.Origin.X, p.Origin.Y, p.Gravity.X, p.Gravity.Y} {
		if !finite(v) {
			return fmt.Errorf("%w: non-finite geometry or gravity", ErrParameterBounds)
		}
	}
	return nil
}

// Position is a particle position in renderer precision.
type Position struct {
	X, Y float32
}

// ObstacleDescriptor is the renderer view of an obstacle.
type ObstacleDescriptor struct {
	Kind       ObstacleKind
	X, Y       float32
	Radius     float32
	HalfWidth  float32
	HalfHeight float32
}

// Frame is a read-only snapshot handed to observers and metrics.
type Frame struct {
	Step      int
	Time      float64
	Particles []Particle
}

func (f Frame) IsValid() bool {
	for _, p := range f.Particles {
		if !p.IsValid() {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

type Integrator interface {
	Step(particles []Particle, forces []r2.Vec, mass, dt float64)
}

type RunConfig struct {
	Dt            float64
	Steps         int
	ValidateState bool
	// RecordEvery keeps one frame every N steps; 0 records none.
	RecordEvery int
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Dt:            DefaultTimeStep,
		Steps:         1000,
		ValidateState: true,
		RecordEvery:   10,
	}
}

type Result struct {
	Frames      []Frame
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Errors      []error
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
