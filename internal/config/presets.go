package config

import "sort"

func circle(x, y, r float64) ObstacleConfig {
	return ObstacleConfig{Kind: "circle", X: x, Y: y, Radius: r}
}

func box(x, y, hw, hh float64) ObstacleConfig {
	return ObstacleConfig{Kind: "box", X: x, Y: y, HalfWidth: hw, HalfHeight: hh}
}

var Presets = map[string]*Config{
	// cloth falling over a round post
	"drape": {
		Mesh:        MeshConfig{Rows: 12, Cols: 12, Spacing: 5, Origin: Vec{X: 20, Y: 0}},
		Material:    MaterialConfig{Stiffness: 10, Damping: 0.2, RestLength: 5, Mass: 1},
		Gravity:     Vec{Y: 100},
		Obstacles:   []ObstacleConfig{circle(47.5, 90, 20)},
		Integrator:  "semi-implicit",
		Topology:    "grid",
		Dt:          0.01,
		Steps:       1500,
		RecordEvery: 10,
	},
	"bounce": {
		Mesh:            MeshConfig{Rows: 6, Cols: 6, Spacing: 5, Origin: Vec{X: 35, Y: 0}},
		Material:        MaterialConfig{Stiffness: 50, Damping: 0.5, RestLength: 5, Mass: 1},
		Gravity:         Vec{Y: 100},
		InitialVelocity: Vec{X: 10, Y: 30},
		Obstacles:       []ObstacleConfig{box(50, 120, 100, 10), circle(20, 60, 8)},
		Integrator:      "semi-implicit",
		Topology:        "grid",
		Dt:              0.01,
		Steps:           1000,
		RecordEvery:     5,
	},
	// a chain resting on two posts
	"hammock": {
		Mesh:        MeshConfig{Rows: 1, Cols: 20, Spacing: 5, Origin: Vec{X: 0, Y: 0}},
		Material:    MaterialConfig{Stiffness: 30, Damping: 0.3, RestLength: 5, Mass: 1},
		Gravity:     Vec{Y: 100},
		Obstacles:   []ObstacleConfig{circle(5, 40, 8), circle(90, 40, 8)},
		Integrator:  "semi-implicit",
		Topology:    "grid",
		Dt:          0.01,
		Steps:       2000,
		RecordEvery: 10,
	},
	"rest": {
		Mesh:        MeshConfig{Rows: 2, Cols: 2, Spacing: 5},
		Material:    MaterialConfig{Stiffness: 10, RestLength: 5, Mass: 1},
		Integrator:  "semi-implicit",
		Topology:    "grid",
		Dt:          0.01,
		Steps:       100,
		RecordEvery: 10,
	},
	// bonds go slack past the cutoff and the mesh pours apart
	"liquid": {
		Mesh:        MeshConfig{Rows: 10, Cols: 10, Spacing: 5, Origin: Vec{X: 25, Y: 0}},
		Material:    MaterialConfig{Stiffness: 20, Damping: 0.1, RestLength: 5, Mass: 1, Cutoff: 7.5},
		Gravity:     Vec{Y: 100},
		Obstacles:   []ObstacleConfig{circle(50, 70, 10), box(50, 140, 120, 10)},
		Integrator:  "semi-implicit",
		Topology:    "grid",
		Dt:          0.01,
		Steps:       1500,
		RecordEvery: 10,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
