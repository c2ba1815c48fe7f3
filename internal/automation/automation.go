package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/experiment"
	"github.com/san-kum/softbody/internal/logging"
	"github.com/san-kum/softbody/internal/sim"
	"github.com/san-kum/softbody/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file and applies overrides.
type ScenarioStep struct {
	Preset    string             `yaml:"preset"`
	Config    string             `yaml:"config"`
	Overrides map[string]float64 `yaml:"overrides"`
	Steps     int                `yaml:"steps"`
	SaveAs    string             `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &scenario, nil
}

// Resolve returns the config the step describes.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	for name, v := range s.Overrides {
		if err := cfg.Set(name, v); err != nil {
			return nil, err
		}
	}
	if s.Steps > 0 {
		cfg.Steps = s.Steps
	}
	return cfg, nil
}

// RunScenario executes the steps in order. Steps with SaveAs are stored
// when st is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, st *storage.Store, logger *logging.Logger) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		logger.Infof("scenario %s: step %d/%d (%d steps)", scenario.Name, i+1, len(scenario.Steps), cfg.Steps)

		exp, err := experiment.New(registry, cfg, "standard", logger)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, result)

		if step.SaveAs != "" && st != nil {
			runID, err := st.Save(step.SaveAs, cfg, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			logger.Infof("scenario %s: saved %s", scenario.Name, runID)
		}
	}

	return results, nil
}

// ParameterSweep varies one tunable parameter linearly over NumSteps values.
type ParameterSweep struct {
	Preset   string  `yaml:"preset"`
	Param    string  `yaml:"param"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	NumSteps int     `yaml:"num_steps"`
	Steps    int     `yaml:"steps"`
	Workers  int     `yaml:"workers"`
}

type SweepResult struct {
	ParamValue     float64
	StepsTaken     int
	EnergyDrift    float64
	FinalEnergy    float64
	MaxPenetration float64
	Stable         bool
	Warnings       int
}

func LoadSweep(path string) (*ParameterSweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sweep ParameterSweep
	if err := yaml.Unmarshal(data, &sweep); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sweep, nil
}

// Values returns the parameter values the sweep visits.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	out := make([]float64, s.NumSteps)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

// RunSweep runs every value of the sweep concurrently and reports one
// result per value in order. Diverging values are reported, not fatal.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *logging.Logger) ([]SweepResult, error) {
	base := config.GetPreset(sweep.Preset)
	if base == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", sweep.Preset, config.ListPresets())
	}
	if _, err := base.Get(sweep.Param); err != nil {
		return nil, err
	}
	if sweep.Steps > 0 {
		base.Steps = sweep.Steps
	}

	values := sweep.Values()
	trials := make([]sim.Trial, len(values))
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		cfg := base.Clone()
		if err := cfg.Set(sweep.Param, v); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		trial, err := experiment.Trial(registry, cfg, "standard")
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		rc := cfg.RunConfig()
		trial.Run = &rc
		trials[i], cfgs[i] = trial, cfg
	}

	logger.Infof("sweep %s over %d values on preset %s", sweep.Param, len(values), sweep.Preset)

	res, err := sim.NewEnsemble(sweep.Workers).Run(ctx, trials, base.RunConfig())
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(values))
	for i := range res {
		results[i] = summarize(registry, values[i], res[i], cfgs[i])
		logger.Debugf("sweep %d/%d: %s=%.4g stable=%t", i+1, len(values), sweep.Param, values[i], results[i].Stable)
	}

	return results, nil
}

func summarize(registry *experiment.Registry, v float64, res *dynamo.Result, cfg *config.Config) SweepResult {
	p := cfg.Params()
	build, _ := registry.GetTopology(cfg.Topology)
	return SweepResult{
		ParamValue:     v,
		StepsTaken:     res.StepsTaken,
		EnergyDrift:    res.EnergyDrift,
		FinalEnergy:    res.Metrics["energy"],
		MaxPenetration: res.Metrics["max_penetration"],
		Stable:         len(res.Errors) == 0 && res.Metrics["stability"] == 1,
		Warnings:       len(sim.CheckStability(p, build(p), cfg.Dt)),
	}
}

// MonteCarloConfig perturbs the initial velocity of a preset at random.
type MonteCarloConfig struct {
	Preset       string  `yaml:"preset"`
	Perturbation float64 `yaml:"perturbation"`
	NumTrials    int     `yaml:"num_trials"`
	Steps        int     `yaml:"steps"`
	Seed         int64   `yaml:"seed"`
	Workers      int     `yaml:"workers"`
}

type MonteCarloResult struct {
	TrialID         int
	InitialVelocity config.Vec
	StepsTaken      int
	MaxPenetration  float64
	Stable          bool
}

// RunMonteCarlo is reproducible for a given seed.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, logger *logging.Logger) ([]MonteCarloResult, error) {
	base := config.GetPreset(cfg.Preset)
	if base == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", cfg.Preset, config.ListPresets())
	}
	if cfg.Steps > 0 {
		base.Steps = cfg.Steps
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	trials := make([]sim.Trial, cfg.NumTrials)
	velocities := make([]config.Vec, cfg.NumTrials)
	for i := range trials {
		c := base.Clone()
		c.InitialVelocity.X += (rng.Float64()*2 - 1) * cfg.Perturbation
		c.InitialVelocity.Y += (rng.Float64()*2 - 1) * cfg.Perturbation
		velocities[i] = c.InitialVelocity

		trial, err := experiment.Trial(registry, c, "standard")
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
		trials[i] = trial
	}

	logger.Infof("monte carlo: %d trials on preset %s", cfg.NumTrials, cfg.Preset)

	res, err := sim.NewEnsemble(cfg.Workers).Run(ctx, trials, base.RunConfig())
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(res))
	for i, r := range res {
		results[i] = MonteCarloResult{
			TrialID:         i,
			InitialVelocity: velocities[i],
			StepsTaken:      r.StepsTaken,
			MaxPenetration:  r.Metrics["max_penetration"],
			Stable:          len(r.Errors) == 0 && r.Metrics["stability"] == 1,
		}
	}
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
