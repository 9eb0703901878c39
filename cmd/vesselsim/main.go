package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/vesselsim/internal/config"
	"github.com/san-kum/vesselsim/internal/experiment"
	"github.com/san-kum/vesselsim/internal/export"
	"github.com/san-kum/vesselsim/internal/optim"
	"github.com/san-kum/vesselsim/internal/sim"
	"github.com/san-kum/vesselsim/internal/storage"
	"github.com/san-kum/vesselsim/internal/tui"
	"github.com/san-kum/vesselsim/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	configFile  string
	preset      string
	integrator  string
	outFile     string
	figureFile  string
	showPlot    bool
	sweepRanges []string
	metricName  string
	maximize    bool
	parallel    int
	plotWidth   int
	plotHeight  int

	logger *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "vesselsim",
		Short:         "stirred mixing vessel simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".vesselsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, rk4, rk45)")
	runCmd.Flags().StringVar(&outFile, "out", "data_tBE.txt", "copy of the data table (empty to skip)")
	runCmd.Flags().StringVar(&figureFile, "figure", "", "write a figure (.png or .svg)")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "print terminal plots")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "chart height")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "browse a run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}

	figureCmd := &cobra.Command{
		Use:   "figure [run_id] [file]",
		Short: "render a run to png or svg",
		Args:  cobra.ExactArgs(2),
		RunE:  figureRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "run one scenario with several integrators",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	compareCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search scenario parameters by a run metric",
		Args:  cobra.NoArgs,
		RunE:  sweepParams,
	}
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	sweepCmd.Flags().StringArrayVar(&sweepRanges, "param", nil, "name=start:end:points or name=v1,v2 (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "min_volume", "metric to rank by")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "pick the largest metric value")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 for unlimited)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, viewCmd, figureCmd, exportJSONCmd, presetsCmd, compareCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// loadScenario resolves --preset, then --config, then the default scenario.
// --integrator overrides the method of whichever was chosen.
func loadScenario(presetName, path, method string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case presetName != "" && path != "":
		return nil, fmt.Errorf("--preset and --config are mutually exclusive")
	case presetName != "":
		cfg = config.GetPreset(presetName)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
	case path != "":
		c, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	default:
		cfg = config.DefaultConfig()
	}

	if method != "" {
		cfg.Integrator.Method = method
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(preset, configFile, integrator)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s with %s...\n", cfg.Name, cfg.Integrator.Method)
	start := time.Now()

	result, err := experiment.New(cfg, logger).Run()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Name, cfg.Integrator.Method, result)
	if err != nil {
		return err
	}

	if outFile != "" {
		if err := storage.CopyTable(outFile, result); err != nil {
			return fmt.Errorf("write %s: %w", outFile, err)
		}
	}
	if figureFile != "" {
		if err := export.SaveFigure(figureFile, result); err != nil {
			return fmt.Errorf("write %s: %w", figureFile, err)
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("points: %d\n", result.Len())
	if outFile != "" {
		fmt.Printf("table: %s\n", outFile)
	}
	if figureFile != "" {
		fmt.Printf("figure: %s\n", figureFile)
	}
	fmt.Println("\nmetrics:")
	fmt.Println(viz.MetricsTable(result.Metrics))

	if showPlot {
		fmt.Println()
		fmt.Println(viz.Render(viz.Panels(result), 80, 10))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tPOINTS\tSPAN\tINTEG")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t[%g, %g]\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Points,
			run.TStart, run.TEnd,
			run.Integrator,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	if result.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", result.Len())
	fmt.Println(viz.Render(viz.Panels(result), plotWidth, plotHeight))
	return nil
}

func viewRun(cmd *cobra.Command, args []string) error {
	meta, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	if result.Len() == 0 {
		return fmt.Errorf("no data to view")
	}
	return tui.Run(meta.ID, result)
}

func figureRun(cmd *cobra.Command, args []string) error {
	_, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	if err := export.SaveFigure(args[1], result); err != nil {
		return err
	}
	fmt.Printf("figure: %s\n", args[1])
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, result)
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := loadScenario(preset, configFile, "")
	if err != nil {
		return err
	}

	cfgs := make([]sim.Config, 0, len(args))
	var exp *experiment.Experiment
	for _, method := range args {
		c := *base
		c.Integrator.Method = method
		exp = experiment.New(&c, logger)
		simCfg, err := exp.SimConfig()
		if err != nil {
			return err
		}
		cfgs = append(cfgs, simCfg)
	}

	fmt.Printf("comparing integrators on %s (%d points)\n\n", base.Name, len(cfgs[0].Grid))

	start := time.Now()
	results, err := sim.NewEnsemble(exp.Vessel(), logger, 0).Run(context.Background(), cfgs)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("%-12s  %-14s  %-14s  %-14s  %-12s\n", "integrator", "final_V", "final_Ca", "final_T", "max_diff")
	fmt.Println(strings.Repeat("-", 74))

	ref := results[0]
	for i, res := range results {
		final := res.Final()
		fmt.Printf("%-12s  %14.8f  %14.8f  %14.8f  %12.2e\n",
			args[i], final[0], final[1], final[2], maxDivergence(ref, res))
	}
	fmt.Printf("\nwall time: %v\n", elapsed)
	return nil
}

// maxDivergence is the largest absolute difference between two runs over
// every grid point and state component.
func maxDivergence(a, b *sim.Result) float64 {
	d := 0.0
	for i := range a.States {
		d = math.Max(d, floats.Norm(b.States[i].Sub(a.States[i]), math.Inf(1)))
	}
	return d
}

func sweepParams(cmd *cobra.Command, args []string) error {
	base, err := loadScenario(preset, configFile, "")
	if err != nil {
		return err
	}

	ranges := make([]optim.Range, 0, len(sweepRanges))
	for _, expr := range sweepRanges {
		r, err := optim.ParseRange(expr)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}

	g := optim.NewGridSearch(ranges, metricName, maximize, logger)
	g.SetLimit(parallel)
	fmt.Printf("sweeping %s over %d points by %s\n\n", base.Name, g.Size(), metricName)

	best, points, err := g.Search(context.Background(), base)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, p := range points {
		var parts []string
		for _, name := range optim.Names(p) {
			parts = append(parts, fmt.Sprintf("%s=%g", name, p.Params[name]))
		}
		if p.Err != nil {
			fmt.Fprintf(w, "%s\tfailed: %v\n", strings.Join(parts, " "), p.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.6g\n", strings.Join(parts, " "), p.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Println()
	for _, name := range optim.Names(best) {
		fmt.Printf("best %s: %g\n", name, best.Params[name])
	}
	fmt.Printf("%s: %.6g\n", metricName, best.Value)
	return nil
}
