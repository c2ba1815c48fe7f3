package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/integrators"
	"github.com/san-kum/softbody/internal/metrics"
	"github.com/san-kum/softbody/internal/topology"
)

// MetricSet builds fresh metrics for one simulation.
type MetricSet func(p dynamo.Params, bonds []dynamo.Bond, obstacles []dynamo.Obstacle) []dynamo.Metric

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	topologies  map[string]topology.Builder
	metricSets  map[string]MetricSet
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		topologies:  make(map[string]topology.Builder),
		metricSets:  make(map[string]MetricSet),
	}

	for _, name := range integrators.Names() {
		name := name
		r.integrators[name] = func() dynamo.Integrator {
			integ, _ := integrators.Get(name)
			return integ
		}
	}
	for _, name := range topology.Names() {
		b, _ := topology.Get(name)
		r.topologies[name] = b
	}

	r.metricSets["standard"] = metrics.Standard
	r.metricSets["energy"] = func(p dynamo.Params, bonds []dynamo.Bond, _ []dynamo.Obstacle) []dynamo.Metric {
		return []dynamo.Metric{metrics.NewEnergy(bonds, p), metrics.NewEnergyDrift(bonds, p)}
	}
	r.metricSets["none"] = func(dynamo.Params, []dynamo.Bond, []dynamo.Obstacle) []dynamo.Metric { return nil }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetTopology(name string) (topology.Builder, error) {
	b, ok := r.topologies[name]
	if !ok {
		return nil, fmt.Errorf("unknown topology: %s", name)
	}
	return b, nil
}

func (r *Registry) GetMetricSet(name string) (MetricSet, error) {
	m, ok := r.metricSets[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric set: %s", name)
	}
	return m, nil
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListTopologies() []string  { return sortedKeys(r.topologies) }
func (r *Registry) ListMetricSets() []string  { return sortedKeys(r.metricSets) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
