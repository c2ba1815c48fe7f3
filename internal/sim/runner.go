package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/physics"
)

// Runner drives a Simulation for a fixed number of steps, feeding every
// frame to metrics and observers.
type Runner struct {
	sim       *Simulation
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func NewRunner(s *Simulation) *Runner {
	return &Runner{
		sim:       s,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }
func (r *Runner) Simulation() *Simulation       { return r.sim }

func (r *Runner) Run(ctx context.Context, cfg dynamo.RunConfig) (*dynamo.Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		Frames:  make([]dynamo.Frame, 0, framesFor(cfg)),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	s := r.sim
	initialEnergy := s.Energy()
	lastEnergy := initialEnergy

	first := s.Frame()
	for _, m := range r.metrics {
		m.Observe(first)
	}
	if cfg.RecordEvery > 0 {
		result.Frames = append(result.Frames, first)
	}

	// a frame copy is only built when a metric, observer or recording reads it
	consumers := len(r.metrics) + len(r.observers)

	var runErr error
	for i := 0; i < cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
			break
		}

		s.Step(cfg.Dt)

		if cfg.ValidateState && !s.valid() {
			runErr = &dynamo.SimulationError{
				Step:    s.Steps(),
				Time:    s.Time(),
				Wrapped: fmt.Errorf("%w: %s", dynamo.ErrUnstable, dynamo.SimError{Time: s.Time(), Step: s.Steps(), Message: "non-finite particle state"}),
			}
			result.Errors = append(result.Errors, runErr)
			break
		}
		result.StepsTaken++

		record := cfg.RecordEvery > 0 && s.Steps()%cfg.RecordEvery == 0
		if consumers == 0 && !record {
			continue
		}

		frame := s.Frame()
		for _, m := range r.metrics {
			m.Observe(frame)
		}
		for _, o := range r.observers {
			o.OnStep(frame)
		}
		if record {
			result.Frames = append(result.Frames, frame)
			if e := physics.TotalEnergy(frame.Particles, s.bonds, s.params); finite(e) {
				lastEnergy = e
			}
		}
	}

	// drift is measured against the final state, or against the last
	// recorded frame with finite energy when the run blew up
	finalEnergy := s.Energy()
	if !finite(finalEnergy) {
		finalEnergy = lastEnergy
	}
	if initialEnergy != 0 && finite(initialEnergy) {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, runErr
}

func validateRunConfig(cfg dynamo.RunConfig) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("record interval must not be negative, got %d", cfg.RecordEvery)
	}
	return nil
}

func framesFor(cfg dynamo.RunConfig) int {
	if cfg.RecordEvery <= 0 {
		return 0
	}
	return cfg.Steps/cfg.RecordEvery + 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
