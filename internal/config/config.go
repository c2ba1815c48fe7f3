package config

import (
	"fmt"
	"os"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/integrators"
	"github.com/san-kum/softbody/internal/topology"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRows        = 10
	DefaultCols        = 10
	DefaultSteps       = 1000
	DefaultRecordEvery = 10
	DefaultTopology    = "grid"
)

type Config struct {
	Mesh            MeshConfig       `yaml:"mesh"`
	Material        MaterialConfig   `yaml:"material"`
	Gravity         Vec              `yaml:"gravity"`
	InitialVelocity Vec              `yaml:"initial_velocity"`
	Obstacles       []ObstacleConfig `yaml:"obstacles"`
	Integrator      string           `yaml:"integrator"`
	Topology        string           `yaml:"topology"`
	Dt              float64          `yaml:"dt"`
	Steps           int              `yaml:"steps"`
	RecordEvery     int              `yaml:"record_every"`
}

type MeshConfig struct {
	Rows    int     `yaml:"rows"`
	Cols    int     `yaml:"cols"`
	Spacing float64 `yaml:"spacing"`
	Origin  Vec     `yaml:"origin"`
}

type MaterialConfig struct {
	Stiffness      float64 `yaml:"stiffness"`
	Damping        float64 `yaml:"damping"`
	RestLength     float64 `yaml:"rest_length"`
	Mass           float64 `yaml:"mass"`
	Cutoff         float64 `yaml:"cutoff"`
	ParticleRadius float64 `yaml:"particle_radius"`
}

type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec) R2() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

// ObstacleConfig uses Radius for circles and HalfWidth/HalfHeight for boxes.
type ObstacleConfig struct {
	Kind       string  `yaml:"kind"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Radius     float64 `yaml:"radius,omitempty"`
	HalfWidth  float64 `yaml:"half_width,omitempty"`
	HalfHeight float64 `yaml:"half_height,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Mesh: MeshConfig{
			Rows:    DefaultRows,
			Cols:    DefaultCols,
			Spacing: dynamo.DefaultRestLength,
		},
		Material: MaterialConfig{
			Stiffness:  dynamo.DefaultStiffness,
			RestLength: dynamo.DefaultRestLength,
			Mass:       dynamo.DefaultMass,
		},
		Gravity:     Vec{Y: dynamo.DefaultGravity},
		Integrator:  integrators.Default,
		Topology:    DefaultTopology,
		Dt:          dynamo.DefaultTimeStep,
		Steps:       DefaultSteps,
		RecordEvery: DefaultRecordEvery,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the file layout into simulation parameters. Dt doubles as
// the nominal step for the construction-time stability check.
func (c *Config) Params() dynamo.Params {
	return dynamo.Params{
		Rows:           c.Mesh.Rows,
		Cols:           c.Mesh.Cols,
		Spacing:        c.Mesh.Spacing,
		Origin:         c.Mesh.Origin.R2(),
		Stiffness:      c.Material.Stiffness,
		Damping:        c.Material.Damping,
		RestLength:     c.Material.RestLength,
		Gravity:        c.Gravity.R2(),
		Mass:           c.Material.Mass,
		Cutoff:         c.Material.Cutoff,
		ParticleRadius: c.Material.ParticleRadius,
		TimeStep:       c.Dt,
	}
}

func (c *Config) ObstacleList() ([]dynamo.Obstacle, error) {
	out := make([]dynamo.Obstacle, 0, len(c.Obstacles))
	for i, o := range c.Obstacles {
		var obs dynamo.Obstacle
		switch o.Kind {
		case "circle":
			obs = dynamo.Circle(o.X, o.Y, o.Radius)
		case "box":
			obs = dynamo.Box(o.X, o.Y, o.HalfWidth, o.HalfHeight)
		default:
			return nil, fmt.Errorf("obstacle %d: %w: unknown kind %q", i, dynamo.ErrParameterBounds, o.Kind)
		}
		out = append(out, obs)
	}
	return out, nil
}

func (c *Config) RunConfig() dynamo.RunConfig {
	return dynamo.RunConfig{
		Dt:            c.Dt,
		Steps:         c.Steps,
		ValidateState: true,
		RecordEvery:   c.RecordEvery,
	}
}

func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	obstacles, err := c.ObstacleList()
	if err != nil {
		return err
	}
	for i, o := range obstacles {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("obstacle %d: %w", i, err)
		}
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return err
	}
	if _, err := topology.Get(c.Topology); err != nil {
		return err
	}
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrParameterBounds, c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", dynamo.ErrParameterBounds, c.Steps)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every must not be negative, got %d", dynamo.ErrParameterBounds, c.RecordEvery)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Obstacles = append([]ObstacleConfig(nil), c.Obstacles...)
	return &out
}
