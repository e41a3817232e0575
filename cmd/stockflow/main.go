package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/stockflow/internal/config"
	"github.com/san-kum/stockflow/internal/export"
	"github.com/san-kum/stockflow/internal/metrics"
	"github.com/san-kum/stockflow/internal/plot"
	"github.com/san-kum/stockflow/internal/stockflow"
	"github.com/san-kum/stockflow/internal/storage"
	"github.com/san-kum/stockflow/internal/sweep"
	"github.com/san-kum/stockflow/internal/tui"
	"github.com/san-kum/stockflow/internal/viz"
)

var (
	dataDir string
	steps   int
	noSave  bool
	doPlot  bool
	showTab bool
	sets    []string
	columns []string
	column  string
	forks   []string
	axes    []string
	specs   []string
	maxim   bool
	svgOut  string
	theme   string
	// playback interval in milliseconds
	frameMs int

	settings config.Settings
	logger   *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "stockflow",
		Short:         "discrete-time stock and flow simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			settings, err = config.LoadSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data") {
				settings.DataDir = dataDir
			}
			logger, err = settings.NewLogger(os.Stderr)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".stockflow", "data directory (overrides STOCKFLOW_DATA)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a preset or model file",
		Args:  cobra.ExactArgs(1),
		RunE:  runModel,
	}
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = model default)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&doPlot, "plot", false, "plot state trajectories")
	runCmd.Flags().BoolVar(&showTab, "table", false, "print the full trajectory table")
	runCmd.Flags().StringArrayVar(&sets, "set", nil, "override a parameter or initial state (name=value)")
	runCmd.Flags().StringArrayVar(&specs, "metric", nil, "report a metric (peak:I, total:S to I, drift, ...)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to plot (default: all states)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "write one column of a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVar(&column, "column", "", "column to draw (default: first state)")
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output path (default: stdout)")

	topologyCmd := &cobra.Command{
		Use:   "topology [model]",
		Short: "show the states and flows of a model",
		Args:  cobra.ExactArgs(1),
		RunE:  showTopology,
	}
	topologyCmd.Flags().StringVar(&svgOut, "svg", "", "also write the graph as SVG to this path")
	topologyCmd.Flags().StringVar(&theme, "theme", "minimal", "colour theme")

	compareCmd := &cobra.Command{
		Use:   "compare [model]",
		Short: "run what-if scenarios and overlay one column",
		Long: "Each --fork name:step:param=value clones the model and changes a parameter after the\n" +
			"given step. The unmodified model is always included as \"baseline\".",
		Args: cobra.ExactArgs(1),
		RunE: compareScenarios,
	}
	compareCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = model default)")
	compareCmd.Flags().StringVar(&column, "column", "", "column to compare (default: second state)")
	compareCmd.Flags().StringArrayVar(&forks, "fork", nil, "scenario as name:step:param=value")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run a model over a grid of parameter values",
		Long: "Each --axis param=lo:hi:n or param=v1,v2 adds a dimension to the grid. Every point\n" +
			"is scored with the --metric values; the first metric picks the best point.",
		Args: cobra.ExactArgs(1),
		RunE: sweepModel,
	}
	sweepCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = model default)")
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, "swept parameter as param=lo:hi:n or param=v1,v2")
	sweepCmd.Flags().StringArrayVar(&specs, "metric", nil, "metric to report (default: drift)")
	sweepCmd.Flags().BoolVar(&maxim, "maximize", false, "best point maximizes the first metric")

	playCmd := &cobra.Command{
		Use:   "play [model]",
		Short: "step through a run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  playModel,
	}
	playCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = model default)")
	playCmd.Flags().IntVar(&frameMs, "interval", 150, "playback interval in milliseconds")
	playCmd.Flags().StringVar(&theme, "theme", "minimal", "colour theme")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in models",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTEPS\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, p.Steps, p.Description)
			}
			return w.Flush()
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate [model]",
		Short: "check a model file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(args[0])
			if err != nil {
				return err
			}
			m, err := cfg.Build(logger)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d states, %d transitions, %d scheduled events\n",
				m.Name(), m.NumStates(), m.NumTransitions(), len(m.ScheduledSteps()))
			params := m.Parameters()
			for _, name := range params.Names() {
				fmt.Printf("  %s = %g\n", name, params[name])
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, svgCmd, topologyCmd, compareCmd, sweepCmd, playCmd, presetsCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadModel resolves and builds a model, applying --set overrides.
func loadModel(arg string) (*stockflow.Model, *config.ModelConfig, error) {
	cfg, err := config.Resolve(arg)
	if err != nil {
		return nil, nil, err
	}
	m, err := cfg.Build(logger)
	if err != nil {
		return nil, nil, err
	}
	for _, s := range sets {
		if err := applySet(m, s); err != nil {
			return nil, nil, err
		}
	}
	return m, cfg, nil
}

func stepsFor(cfg *config.ModelConfig) int {
	if steps > 0 {
		return steps
	}
	return cfg.Steps
}

func runModel(cmd *cobra.Command, args []string) error {
	m, cfg, err := loadModel(args[0])
	if err != nil {
		return err
	}

	n := stepsFor(cfg)
	logger.Info("running model", "model", m.Name(), "steps", n)
	start := time.Now()

	table, err := m.RunTable(n)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed %d steps in %v\n", len(table.Rows), elapsed)

	if !noSave {
		st := storage.New(settings.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.NewMetadata(m, table), table)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if showTab {
		if err := storage.WriteCSV(os.Stdout, table); err != nil {
			return err
		}
	} else if len(table.Rows) > 0 {
		fmt.Println("\nfinal step:")
		last := table.Rows[len(table.Rows)-1]
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for i, col := range table.Columns {
			fmt.Fprintf(w, "  %s\t%.6g\n", col, last[i])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(specs) > 0 {
		vals, err := metrics.Evaluate(table, m.NumStates(), specs...)
		if err != nil {
			return err
		}
		fmt.Println("\nmetrics:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, spec := range specs {
			fmt.Fprintf(w, "  %s\t%.6g\n", spec, vals[spec])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if doPlot && len(table.Rows) > 0 {
		graph, err := plot.Columns(table, nil, m.NumStates(), m.ScheduledSteps(), plot.DefaultOptions())
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(graph)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(settings.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSTEPS\tSTATES\tEVENTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.States,
			len(run.Markers),
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *stockflow.Table, error) {
	st := storage.New(settings.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	table, err := st.LoadTable(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, table, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, table, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("steps: %d\n\n", len(table.Rows))

	graph, err := plot.Columns(table, columns, meta.States, meta.Markers, plot.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, table, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, table)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, table, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteCSV(os.Stdout, table)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, table, err := loadRun(args[0])
	if err != nil {
		return err
	}

	name := column
	if name == "" && len(table.Columns) > 0 {
		name = table.Columns[0]
	}
	idx := table.ColumnIndex(name)
	if idx < 0 {
		return fmt.Errorf("unknown column %q", name)
	}

	svg := export.TrajectoryToSVG(table.Column(idx), meta.Markers, 800, 300, "#00ff88")
	if svg == "" {
		return fmt.Errorf("need at least two steps to draw")
	}
	return writeOut(svgOut, svg)
}

func writeOut(path, content string) error {
	if path == "" {
		_, err := fmt.Println(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func showTopology(cmd *cobra.Command, args []string) error {
	m, _, err := loadModel(args[0])
	if err != nil {
		return err
	}

	topo := m.Topology()
	fmt.Println(viz.Summary(topo, m.Values(), viz.GetTheme(theme)))

	if svgOut != "" {
		if err := writeOut(svgOut, export.TopologyToSVG(topo, 600, 400)); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgOut)
	}
	return nil
}

func compareScenarios(cmd *cobra.Command, args []string) error {
	m, cfg, err := loadModel(args[0])
	if err != nil {
		return err
	}

	scenarios := []stockflow.Scenario{{Name: "baseline"}}
	for _, f := range forks {
		sc, err := parseFork(f)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	name := column
	if name == "" {
		cols := m.Columns()
		switch {
		case m.NumStates() > 1:
			name = cols[1]
		case len(cols) > 0:
			name = cols[0]
		default:
			return fmt.Errorf("model has no columns to compare")
		}
	}

	n := stepsFor(cfg)
	logger.Info("running scenarios", "model", m.Name(), "scenarios", len(scenarios), "steps", n)

	outcomes, err := stockflow.NewEnsemble(m, n).Run(context.Background(), scenarios)
	if err != nil {
		return err
	}

	runs := make([]plot.Named, len(outcomes))
	for i, o := range outcomes {
		runs[i] = plot.Named{Name: o.Name, Table: o.Table, Markers: o.Markers}
	}

	graph, err := plot.Compare(runs, name, plot.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Println(graph)

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tFINAL\tPEAK\tPEAK STEP")
	for _, o := range outcomes {
		vals, err := metrics.Evaluate(o.Table, o.Model.NumStates(), "final:"+name, "peak:"+name, "peakstep:"+name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.0f\n", o.Name,
			vals["final:"+name], vals["peak:"+name], vals["peakstep:"+name])
	}
	return w.Flush()
}

func sweepModel(cmd *cobra.Command, args []string) error {
	m, cfg, err := loadModel(args[0])
	if err != nil {
		return err
	}

	var g sweep.Grid
	for _, a := range axes {
		ax, err := sweep.ParseAxis(a)
		if err != nil {
			return err
		}
		g.Axes = append(g.Axes, ax)
	}
	if len(specs) == 0 {
		specs = []string{"drift"}
	}

	n := stepsFor(cfg)
	logger.Info("sweeping model", "model", m.Name(), "points", len(g.Points()), "steps", n)

	results, err := sweep.Run(context.Background(), m, n, g, specs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "POINT\t%s\n", strings.ToUpper(strings.Join(specs, "\t")))
	for _, r := range results {
		row := make([]string, len(specs))
		for i, spec := range specs {
			row[i] = fmt.Sprintf("%.6g", r.Metrics[spec])
		}
		fmt.Fprintf(w, "%s\t%s\n", r.Name, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := sweep.Best(results, specs[0], maxim); ok {
		fmt.Printf("\nbest by %s: %s (%.6g)\n", specs[0], best.Name, best.Metrics[specs[0]])
	}
	return nil
}

func playModel(cmd *cobra.Command, args []string) error {
	m, cfg, err := loadModel(args[0])
	if err != nil {
		return err
	}

	table, err := m.RunTable(stepsFor(cfg))
	if err != nil {
		return err
	}

	p := tui.NewPlayer(m.Name(), table, m.NumStates(), m.ScheduledSteps(),
		time.Duration(frameMs)*time.Millisecond, viz.GetTheme(theme))

	if _, err := tea.NewProgram(p).Run(); err != nil {
		return err
	}
	return nil
}
