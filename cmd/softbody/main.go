package main

import (
	"os"

	"github.com/san-kum/softbody/internal/experiment"
	"github.com/san-kum/softbody/internal/logging"
	"github.com/san-kum/softbody/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	runName    string
	output     string
	component  string
	frameIndex int
	seed       int64
	numTrials  int
	perturb    float64
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

// meshFlags are the config overrides shared by run, live, check and compare.
// They are applied only when set on the command line.
var meshFlags = []struct {
	name, param, usage string
}{
	{"stiffness", "stiffness", "spring constant"},
	{"damping", "damping", "bond damping coefficient"},
	{"rest-length", "rest_length", "bond rest length"},
	{"mass", "mass", "particle mass"},
	{"cutoff", "cutoff", "bond cutoff distance (0 disables)"},
	{"radius", "particle_radius", "particle collision radius"},
	{"spacing", "spacing", "initial grid spacing"},
	{"gravity-x", "gravity_x", "gravity x component"},
	{"gravity-y", "gravity_y", "gravity y component (down is positive)"},
	{"vx", "velocity_x", "initial velocity x"},
	{"vy", "velocity_y", "initial velocity y"},
	{"dt", "dt", "timestep"},
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.String("preset", "", "use preset configuration")
	f.Int("rows", 0, "mesh rows")
	f.Int("cols", 0, "mesh columns")
	f.Int("steps", 0, "number of steps")
	f.Int("every", 0, "record one frame every N steps")
	f.String("integrator", "", "integrator (semi-implicit, explicit)")
	f.String("topology", "", "bond topology (grid, complete)")
	for _, mf := range meshFlags {
		f.Float64(mf.name, 0, mf.usage)
	}
}

func newLogger() *logging.Logger {
	return logging.NewStderr(logLevel)
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "softbody",
		Short:        "mass-spring soft body simulator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry(), logging.Discard())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".softbody", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, off); defaults to $"+logging.EnvVar)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and save the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset name)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&viz.GIFPath, "gif", viz.GIFPath, "where G recordings are written")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "report stability warnings for a configuration",
		Args:  cobra.NoArgs,
		RunE:  checkStability,
	}
	addConfigFlags(checkCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same configuration",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addConfigFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark step throughput across mesh sizes",
		Args:  cobra.NoArgs,
		RunE:  benchMesh,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a particle component and the energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	addSeriesFlags(plotCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	addSeriesFlags(analyzeCmd)

	pathCmd := &cobra.Command{
		Use:   "path [run_id]",
		Short: "plot the path of a particle",
		Args:  cobra.ExactArgs(1),
		RunE:  pathPlot,
	}
	pathCmd.Flags().Int("particle", -1, "particle index (-1 for the centroid)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export particle positions to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a recorded frame to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame index (negative counts from the end)")
	exportSVGCmd.Flags().Int("path", -2, "draw the path of this particle instead (-1 for the centroid)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [preset] [file]",
		Short: "write a preset to a config file",
		Args:  cobra.ExactArgs(2),
		RunE:  initConfig,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [file]",
		Short: "sweep one parameter over a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().String("preset", "drape", "base preset")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "stiffness", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 50, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "n", 10, "number of values")
	sweepCmd.Flags().Int("steps", 0, "steps per run (0 keeps the preset's)")
	sweepCmd.Flags().Int("workers", 0, "concurrent runs (0 for no limit)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run trials with randomized initial velocity",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().String("preset", "bounce", "base preset")
	monteCarloCmd.Flags().IntVar(&numTrials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturbation", 10, "maximum velocity perturbation per axis")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	monteCarloCmd.Flags().Int("steps", 0, "steps per trial (0 keeps the preset's)")
	monteCarloCmd.Flags().Int("workers", 0, "concurrent trials (0 for no limit)")

	rootCmd.AddCommand(runCmd, liveCmd, checkCmd, compareCmd, benchCmd, listCmd, plotCmd, analyzeCmd, pathCmd,
		exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, initCmd, sweepCmd, scenarioCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSeriesFlags(cmd *cobra.Command) {
	cmd.Flags().Int("particle", 0, "particle index")
	cmd.Flags().StringVar(&component, "component", "y", "component (x, y, vx, vy)")
}
