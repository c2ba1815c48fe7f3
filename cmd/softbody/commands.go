package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/softbody/internal/analysis"
	"github.com/san-kum/softbody/internal/automation"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/experiment"
	"github.com/san-kum/softbody/internal/export"
	"github.com/san-kum/softbody/internal/logging"
	"github.com/san-kum/softbody/internal/sim"
	"github.com/san-kum/softbody/internal/storage"
	"github.com/san-kum/softbody/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

// loadConfig resolves --preset, then --config, then the defaults, and
// applies any mesh flags set on the command line. The returned name is the
// preset or file the config came from.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	name := "default"
	cfg := config.DefaultConfig()

	presetName, _ := cmd.Flags().GetString("preset")
	if presetName != "" {
		cfg = config.GetPreset(presetName)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
		name = presetName
	}

	// config file overrides preset
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

// applyFlags copies every changed mesh flag into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	for _, mf := range meshFlags {
		if !f.Changed(mf.name) {
			continue
		}
		v, err := f.GetFloat64(mf.name)
		if err != nil {
			return err
		}
		if err := cfg.Set(mf.param, v); err != nil {
			return err
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"rows", &cfg.Mesh.Rows},
		{"cols", &cfg.Mesh.Cols},
		{"steps", &cfg.Steps},
		{"every", &cfg.RecordEvery},
	}
	for _, fl := range ints {
		if f.Changed(fl.name) {
			v, err := f.GetInt(fl.name)
			if err != nil {
				return err
			}
			*fl.dst = v
		}
	}

	if f.Changed("integrator") {
		cfg.Integrator, _ = f.GetString("integrator")
	}
	if f.Changed("topology") {
		cfg.Topology, _ = f.GetString("topology")
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// progress logs the simulation clock at debug level every interval steps.
type progress struct {
	logger   *logging.Logger
	interval int
	total    int
}

func (p *progress) OnStep(f dynamo.Frame) {
	if p.interval > 0 && f.Step%p.interval == 0 {
		p.logger.Debugf("step %d/%d t=%.3f", f.Step, p.total, f.Time)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runName != "" {
		name = runName
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp, err := experiment.New(registry, cfg, "standard", logger)
	if err != nil {
		return err
	}
	exp.AddObserver(&progress{logger: logger, interval: max(cfg.Steps/10, 1), total: cfg.Steps})

	ctx, cancel := signalContext()
	defer cancel()

	s := exp.Simulation()
	logger.Infof("running %s: %dx%d mesh, %d bonds, %d obstacles, %d steps", name, cfg.Mesh.Rows, cfg.Mesh.Cols, len(s.Bonds()), len(s.ObstacleList()), cfg.Steps)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	var simErr *dynamo.SimulationError
	switch {
	case errors.As(runErr, &simErr):
		logger.Warnf("diverged at step %d (t=%.4f), saving %d steps", simErr.Step, simErr.Time, result.StepsTaken)
	case errors.Is(runErr, dynamo.ErrContextCanceled):
		logger.Warnf("interrupted, saving %d steps", result.StepsTaken)
	case runErr != nil:
		return runErr
	}

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("frames: %d\n", len(result.Frames))
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	fmt.Println("\nmetrics:")
	for _, k := range sortedMetricNames(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", k, result.Metrics[k])
	}

	return runErr
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stderr belongs to the terminal UI while it runs
	return viz.RunLive(experiment.NewRegistry(), cfg, name, logging.Discard())
}

func checkStability(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	build, err := experiment.NewRegistry().GetTopology(cfg.Topology)
	if err != nil {
		return err
	}
	p := cfg.Params()
	bonds := build(p)

	fmt.Printf("%s: %dx%d mesh, %d bonds, dt=%g\n", name, cfg.Mesh.Rows, cfg.Mesh.Cols, len(bonds), cfg.Dt)
	warnings := sim.CheckStability(p, bonds, cfg.Dt)
	if len(warnings) == 0 {
		fmt.Println("no stability warnings")
		return nil
	}
	for _, w := range warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()

	fmt.Printf("comparing integrators for %s (dt=%.4f, steps=%d)\n\n", name, cfg.Dt, cfg.Steps)
	fmt.Printf("%-14s  %-8s  %-12s  %-12s  %-10s\n", "integrator", "steps", "energy_drift", "final_energy", "time_ms")
	fmt.Println(strings.Repeat("-", 64))

	for _, intName := range args {
		c := cfg.Clone()
		c.Integrator = intName
		c.RecordEvery = 0

		exp, err := experiment.New(registry, c, "energy", nil)
		if err != nil {
			fmt.Printf("%-14s  error: %v\n", intName, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		elapsed := time.Since(start)
		if result == nil {
			fmt.Printf("%-14s  error: %v\n", intName, err)
			continue
		}

		note := ""
		if err != nil {
			note = "  diverged"
		}
		fmt.Printf("%-14s  %8d  %12.3e  %12.4f  %10.2f%s\n", intName, result.StepsTaken, result.EnergyDrift, result.Metrics["energy"], float64(elapsed.Microseconds())/1000, note)
	}

	return nil
}

func benchMesh(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	sizes := []int{5, 10, 20, 40}
	const steps = 500

	fmt.Println("benchmarking drape preset")
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MESH\tPARTICLES\tBONDS\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		cfg := config.GetPreset("drape")
		cfg.Mesh.Rows, cfg.Mesh.Cols = n, n
		cfg.Steps, cfg.RecordEvery = steps, 0

		exp, err := experiment.New(registry, cfg, "none", nil)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		if result == nil {
			return err
		}
		elapsed := time.Since(start)

		s := exp.Simulation()
		fmt.Fprintf(w, "%dx%d\t%d\t%d\t%d\t%v\t%.0f\n",
			n, n, s.NumParticles(), len(s.Bonds()), result.StepsTaken, elapsed, float64(result.StepsTaken)/elapsed.Seconds())
	}

	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tMESH\tSTEPS\tDT\tINTEG\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d/%d\t%.4fs\t%s\t%.2e\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Rows, run.Cols,
			run.StepsTaken, run.Steps,
			run.Dt,
			run.Integrator,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

type loadedRun struct {
	meta   *storage.RunMetadata
	cfg    *config.Config
	frames []dynamo.Frame
}

func loadRun(runID string) (*loadedRun, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("run %s has no recorded frames", runID)
	}
	return &loadedRun{meta: meta, cfg: cfg, frames: frames}, nil
}

func (r *loadedRun) bonds() ([]dynamo.Bond, error) {
	build, err := experiment.NewRegistry().GetTopology(r.cfg.Topology)
	if err != nil {
		return nil, err
	}
	return build(r.cfg.Params()), nil
}

func (r *loadedRun) scene() (viz.Scene, error) {
	bonds, err := r.bonds()
	if err != nil {
		return viz.Scene{}, err
	}
	obstacles, err := r.cfg.ObstacleList()
	if err != nil {
		return viz.Scene{}, err
	}
	return viz.Scene{Bonds: bonds, Obstacles: obstacles, ParticleRadius: r.cfg.Material.ParticleRadius}, nil
}

func (r *loadedRun) series(cmd *cobra.Command) ([]float64, string, error) {
	idx, _ := cmd.Flags().GetInt("particle")
	c, err := analysis.ParseComponent(component)
	if err != nil {
		return nil, "", err
	}
	data, err := analysis.ParticleSeries(r.frames, idx, c)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("particle %d %s", idx, c), nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	data, caption, err := run.series(cmd)
	if err != nil {
		return err
	}
	bonds, err := run.bonds()
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", run.meta.ID)
	fmt.Printf("mesh: %dx%d\n", run.meta.Rows, run.meta.Cols)
	fmt.Printf("samples: %d\n\n", len(run.frames))

	fmt.Println(asciigraph.Plot(data, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(caption)))
	fmt.Println()

	energy := analysis.EnergySeries(run.frames, bonds, run.cfg.Params())
	fmt.Println(asciigraph.Plot(energy, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("total energy")))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	data, caption, err := run.series(cmd)
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return fmt.Errorf("need at least 4 frames, got %d", len(data))
	}

	fmt.Printf("frequency analysis: %s\n", run.meta.ID)
	fmt.Printf("series: %s\n\n", caption)

	ps := analysis.PowerSpectrum(data)
	// drop the constant term
	plotData := ps[1:]
	fmt.Println(asciigraph.Plot(plotData, asciigraph.Height(15), asciigraph.Width(80), asciigraph.Caption("power spectrum")))
	fmt.Println()

	sum := analysis.Summarize(data)
	fmt.Printf("mean: %.4f  stddev: %.4f  min: %.4f  max: %.4f\n", sum.Mean, sum.StdDev, sum.Min, sum.Max)

	freq, power := analysis.DominantFrequency(data, analysis.SampleInterval(run.frames))
	fmt.Printf("dominant frequency: %.3f hz (power %.3g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

// pathPoints returns the path of one particle, or of the centroid for idx -1.
func pathPoints(frames []dynamo.Frame, idx int) ([]r2.Vec, error) {
	if idx < 0 {
		return analysis.CentroidSeries(frames), nil
	}
	xs, err := analysis.ParticleSeries(frames, idx, analysis.PosX)
	if err != nil {
		return nil, err
	}
	ys, _ := analysis.ParticleSeries(frames, idx, analysis.PosY)
	points := make([]r2.Vec, len(xs))
	for i := range xs {
		points[i] = r2.Vec{X: xs[i], Y: ys[i]}
	}
	return points, nil
}

func pathPlot(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	idx, _ := cmd.Flags().GetInt("particle")
	points, err := pathPoints(run.frames, idx)
	if err != nil {
		return err
	}

	label := fmt.Sprintf("particle %d", idx)
	if idx < 0 {
		label = "centroid"
	}
	fmt.Printf("path of %s: %s\n\n", label, run.meta.ID)
	fmt.Print(analysis.PathToASCII(points, 70, 20))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// writeOutput sends write to --output, or to stdout when it is empty.
func writeOutput(write func(io.Writer) error) error {
	if output == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return writeOutput(func(w io.Writer) error {
		return export.WritePositionsCSV(w, run.frames)
	})
}

func exportJSON(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	scene, err := run.scene()
	if err != nil {
		return err
	}

	traj := export.NewTrajectory(run.frames, scene.Bonds, scene.Obstacles)
	traj.Name = run.meta.Name
	traj.Integrator = run.meta.Integrator
	traj.Topology = run.meta.Topology
	traj.Dt = run.meta.Dt
	traj.Rows, traj.Cols = run.meta.Rows, run.meta.Cols
	traj.EnergyDrift = run.meta.EnergyDrift
	traj.Metrics = run.meta.Metrics

	return writeOutput(func(w io.Writer) error {
		return export.WriteJSON(w, traj)
	})
}

func exportSVG(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("path") {
		idx, _ := cmd.Flags().GetInt("path")
		points, err := pathPoints(run.frames, idx)
		if err != nil {
			return err
		}
		return writeOutput(func(w io.Writer) error {
			_, err := io.WriteString(w, export.PathToSVG(points, 800, 600, "#00ff00"))
			return err
		})
	}

	scene, err := run.scene()
	if err != nil {
		return err
	}
	i := frameIndex
	if i < 0 {
		i += len(run.frames)
	}
	if i < 0 || i >= len(run.frames) {
		return fmt.Errorf("frame %d out of range (run has %d frames)", frameIndex, len(run.frames))
	}

	return writeOutput(func(w io.Writer) error {
		_, err := io.WriteString(w, export.FrameToSVG(run.frames[i], scene, 800, 600))
		return err
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMESH\tOBSTACLES\tSTEPS\tDT")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%dx%d\t%d\t%d\t%g\n", name, cfg.Mesh.Rows, cfg.Mesh.Cols, len(cfg.Obstacles), cfg.Steps, cfg.Dt)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if err := config.Save(args[1], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	var sweep *automation.ParameterSweep
	if len(args) == 1 {
		loaded, err := automation.LoadSweep(args[0])
		if err != nil {
			return err
		}
		sweep = loaded
	} else {
		presetName, _ := cmd.Flags().GetString("preset")
		sweep = &automation.ParameterSweep{
			Preset:   presetName,
			Param:    sweepParam,
			Min:      sweepMin,
			Max:      sweepMax,
			NumSteps: sweepSteps,
		}
	}
	if cmd.Flags().Changed("steps") {
		sweep.Steps, _ = cmd.Flags().GetInt("steps")
	}
	if cmd.Flags().Changed("workers") {
		sweep.Workers, _ = cmd.Flags().GetInt("workers")
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tDRIFT\tENERGY\tPENETRATION\tWARNINGS\tSTABLE\n", strings.ToUpper(sweep.Param))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%d\t%.2e\t%.4g\t%.3f\t%d\t%t\n", r.ParamValue, r.StepsTaken, r.EnergyDrift, r.FinalEnergy, r.MaxPenetration, r.Warnings, r.Stable)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), st, logger)
	for i, r := range results {
		fmt.Printf("step %d: %d steps, drift %.2e\n", i+1, r.StepsTaken, r.EnergyDrift)
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	presetName, _ := cmd.Flags().GetString("preset")
	mc := &automation.MonteCarloConfig{
		Preset:       presetName,
		Perturbation: perturb,
		NumTrials:    numTrials,
		Seed:         seed,
	}
	mc.Steps, _ = cmd.Flags().GetInt("steps")
	mc.Workers, _ = cmd.Flags().GetInt("workers")

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tVX\tVY\tSTEPS\tPENETRATION\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%d\t%.3f\t%t\n", r.TrialID, r.InitialVelocity.X, r.InitialVelocity.Y, r.StepsTaken, r.MaxPenetration, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}
