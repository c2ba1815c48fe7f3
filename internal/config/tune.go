package config

import (
	"fmt"
	"math"
	"sort"
)

var tunables = map[string]struct {
	get func(*Config) float64
	set func(*Config, float64)
}{
	"stiffness":       {func(c *Config) float64 { return c.Material.Stiffness }, func(c *Config, v float64) { c.Material.Stiffness = v }},
	"damping":         {func(c *Config) float64 { return c.Material.Damping }, func(c *Config, v float64) { c.Material.Damping = v }},
	"rest_length":     {func(c *Config) float64 { return c.Material.RestLength }, func(c *Config, v float64) { c.Material.RestLength = v }},
	"mass":            {func(c *Config) float64 { return c.Material.Mass }, func(c *Config, v float64) { c.Material.Mass = v }},
	"cutoff":          {func(c *Config) float64 { return c.Material.Cutoff }, func(c *Config, v float64) { c.Material.Cutoff = v }},
	"particle_radius": {func(c *Config) float64 { return c.Material.ParticleRadius }, func(c *Config, v float64) { c.Material.ParticleRadius = v }},
	"spacing":         {func(c *Config) float64 { return c.Mesh.Spacing }, func(c *Config, v float64) { c.Mesh.Spacing = v }},
	"gravity_x":       {func(c *Config) float64 { return c.Gravity.X }, func(c *Config, v float64) { c.Gravity.X = v }},
	"gravity_y":       {func(c *Config) float64 { return c.Gravity.Y }, func(c *Config, v float64) { c.Gravity.Y = v }},
	"velocity_x":      {func(c *Config) float64 { return c.InitialVelocity.X }, func(c *Config, v float64) { c.InitialVelocity.X = v }},
	"velocity_y":      {func(c *Config) float64 { return c.InitialVelocity.Y }, func(c *Config, v float64) { c.InitialVelocity.Y = v }},
	"dt":              {func(c *Config) float64 { return c.Dt }, func(c *Config, v float64) { c.Dt = v }},
}

// Tunables lists the parameter names accepted by Get and Set.
func Tunables() []string {
	names := make([]string, 0, len(tunables))
	for name := range tunables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Get(name string) (float64, error) {
	t, ok := tunables[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter: %s", name)
	}
	return t.get(c), nil
}

// Set changes one named parameter. The result is not validated.
func (c *Config) Set(name string, v float64) error {
	t, ok := tunables[name]
	if !ok {
		return fmt.Errorf("unknown parameter: %s", name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("parameter %s must be finite, got %g", name, v)
	}
	t.set(c, v)
	return nil
}
