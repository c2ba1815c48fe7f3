package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/softbody/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Trial is one independent simulation of an ensemble. Metrics is called
// once per trial so metric state is never shared between goroutines.
type Trial struct {
	Params    dynamo.Params
	Obstacles []dynamo.Obstacle
	Options   []Option
	Metrics   func() []dynamo.Metric
	// Run replaces the ensemble run config for this trial when set.
	Run *dynamo.RunConfig
}

// Ensemble runs trials concurrently. Each Simulation is created, stepped
// and read by exactly one goroutine.
type Ensemble struct {
	limit int
}

// NewEnsemble bounds the number of concurrent trials; limit <= 0 means no bound.
func NewEnsemble(limit int) *Ensemble {
	return &Ensemble{limit: limit}
}

// Run returns one result per trial in trial order. A trial that diverges
// keeps its partial result and does not cancel the others.
func (e *Ensemble) Run(ctx context.Context, trials []Trial, cfg dynamo.RunConfig) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(trials))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, tr := range trials {
		i, tr := i, tr
		g.Go(func() error {
			s, err := New(tr.Params, tr.Obstacles, tr.Options...)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}

			r := NewRunner(s)
			if tr.Metrics != nil {
				for _, m := range tr.Metrics() {
					r.AddMetric(m)
				}
			}

			rc := cfg
			if tr.Run != nil {
				rc = *tr.Run
			}
			res, err := r.Run(ctx, rc)
			results[i] = res
			if err != nil && !errors.Is(err, dynamo.ErrUnstable) {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
