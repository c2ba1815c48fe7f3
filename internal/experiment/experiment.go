package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/logging"
	"github.com/san-kum/softbody/internal/sim"
)

// Experiment is one configured simulation together with its runner.
type Experiment struct {
	cfg    *config.Config
	sim    *sim.Simulation
	runner *sim.Runner
}

// Options assembles the simulation options a config asks for.
func Options(r *Registry, cfg *config.Config, logger *logging.Logger) ([]sim.Option, error) {
	integ, err := r.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	build, err := r.GetTopology(cfg.Topology)
	if err != nil {
		return nil, err
	}

	opts := []sim.Option{
		sim.WithIntegrator(integ),
		sim.WithVelocity(cfg.InitialVelocity.R2()),
		sim.WithBonds(build(cfg.Params())),
	}
	if logger != nil {
		opts = append(opts, sim.WithLogger(logger))
	}
	return opts, nil
}

// Build validates cfg and constructs its simulation.
func Build(r *Registry, cfg *config.Config, logger *logging.Logger) (*sim.Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	obstacles, err := cfg.ObstacleList()
	if err != nil {
		return nil, err
	}
	opts, err := Options(r, cfg, logger)
	if err != nil {
		return nil, err
	}
	return sim.New(cfg.Params(), obstacles, opts...)
}

// New builds the simulation and attaches the named metric set.
func New(r *Registry, cfg *config.Config, metricSet string, logger *logging.Logger) (*Experiment, error) {
	s, err := Build(r, cfg, logger)
	if err != nil {
		return nil, err
	}
	set, err := r.GetMetricSet(metricSet)
	if err != nil {
		return nil, err
	}

	runner := sim.NewRunner(s)
	for _, m := range set(s.Params(), s.Bonds(), s.ObstacleList()) {
		runner.AddMetric(m)
	}

	return &Experiment{cfg: cfg, sim: s, runner: runner}, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("experiment not set up")
	}
	return e.runner.Run(ctx, e.cfg.RunConfig())
}

func (e *Experiment) AddObserver(o dynamo.Observer) { e.runner.AddObserver(o) }
func (e *Experiment) Simulation() *sim.Simulation   { return e.sim }
func (e *Experiment) Config() *config.Config        { return e.cfg }

// Trial converts a config into an ensemble trial.
func Trial(r *Registry, cfg *config.Config, metricSet string) (sim.Trial, error) {
	if err := cfg.Validate(); err != nil {
		return sim.Trial{}, err
	}
	obstacles, err := cfg.ObstacleList()
	if err != nil {
		return sim.Trial{}, err
	}
	opts, err := Options(r, cfg, nil)
	if err != nil {
		return sim.Trial{}, err
	}
	set, err := r.GetMetricSet(metricSet)
	if err != nil {
		return sim.Trial{}, err
	}

	p := cfg.Params()
	build, _ := r.GetTopology(cfg.Topology)
	bonds := build(p)
	return sim.Trial{
		Params:    p,
		Obstacles: obstacles,
		Options:   opts,
		Metrics:   func() []dynamo.Metric { return set(p, bonds, obstacles) },
	}, nil
}
