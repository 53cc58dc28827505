package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"panelfit/adapters/chart"
	"panelfit/adapters/dgp"
	"panelfit/adapters/excel"
	"panelfit/adapters/postgres"
	"panelfit/app"
	"panelfit/domain/core"
	"panelfit/domain/panel"
	"panelfit/domain/run"
	"panelfit/domain/search"
	"panelfit/internal"
	"panelfit/internal/config"
	"panelfit/internal/migration"
	"panelfit/ports"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

func main() {
	config.LoadDotEnv()

	rootCmd := &cobra.Command{
		Use:          "panelfit",
		Short:        "Staged simulation search for the change process behind a binary panel",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newEstimateCmd(),
		newGridCmd(),
		newRunsCmd(),
		newShowCmd(),
		newMigrateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagOverrides binds flags that, when set, replace environment settings
type flagOverrides struct {
	pattern     string
	steps       [3]int
	reliability float64
	seed        int64
	workers     int
	sheet       string
	unitCol     string
	timeCol     string
	outcomeCol  string
	out         string
	plot        string
	dbDriver    string
	dbURL       string
}

func (o *flagOverrides) bindInput(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.pattern, "pattern", "contingency", "Signature to compare on: contingency or slopes")
	cmd.Flags().StringVar(&o.sheet, "sheet", "Sheet1", "Worksheet to read from .xlsx input")
	cmd.Flags().StringVar(&o.unitCol, "unit-col", "id", "Column holding the unit identifier")
	cmd.Flags().StringVar(&o.timeCol, "time-col", "time", "Column holding the time point")
	cmd.Flags().StringVar(&o.outcomeCol, "outcome-col", "outcome", "Column holding the 0/1 outcome")
}

func (o *flagOverrides) bindSearch(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.steps[0], "step1", 30, "Cumulative draws per tuple after stage 1")
	cmd.Flags().IntVar(&o.steps[1], "step2", 120, "Cumulative draws per tuple after stage 2")
	cmd.Flags().IntVar(&o.steps[2], "step3", 400, "Cumulative draws per tuple after stage 3")
	cmd.Flags().Float64Var(&o.reliability, "reliability", 1.0, "Measurement reliability in [0,1]")
	cmd.Flags().Int64Var(&o.seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Worker pool size (default: number of CPUs)")
	cmd.Flags().StringVar(&o.out, "out", "", "Write the result table to this .csv or .xlsx file")
	cmd.Flags().StringVar(&o.plot, "plot", "", "Write the error surface plot to this .png/.svg/.pdf file")
}

func (o *flagOverrides) bindDatabase(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.dbDriver, "db-driver", "postgres", "Database driver for persistence: postgres or sqlite3")
	cmd.Flags().StringVar(&o.dbURL, "db-url", "", "Database URL; results are persisted when set")
}

// apply loads the environment configuration and lets explicitly set flags win
func (o *flagOverrides) apply(cmd *cobra.Command, input string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Input.Path = input

	set := func(name string, fn func()) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			fn()
		}
	}
	set("pattern", func() { cfg.Search.Pattern = o.pattern })
	set("step1", func() { cfg.Search.Step1 = o.steps[0] })
	set("step2", func() { cfg.Search.Step2 = o.steps[1] })
	set("step3", func() { cfg.Search.Step3 = o.steps[2] })
	set("reliability", func() { cfg.Search.Reliability = o.reliability })
	set("seed", func() { cfg.Search.Seed = o.seed })
	set("workers", func() { cfg.Search.Workers = o.workers })
	set("sheet", func() { cfg.Input.Sheet = o.sheet })
	set("unit-col", func() { cfg.Input.UnitColumn = o.unitCol })
	set("time-col", func() { cfg.Input.TimeColumn = o.timeCol })
	set("outcome-col", func() { cfg.Input.OutcomeColumn = o.outcomeCol })
	set("out", func() { cfg.Output.ResultsPath = o.out })
	set("plot", func() { cfg.Output.PlotPath = o.plot })
	set("db-driver", func() { cfg.Database.Driver = o.dbDriver })
	set("db-url", func() { cfg.Database.URL = o.dbURL })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readObservations(cfg *config.Config) ([]panel.Observation, error) {
	readerCfg := excel.ReaderConfigFrom(cfg.Input)
	return excel.NewReaderFromConfig(readerCfg).ReadPanel(readerCfg.Columns)
}

func newEstimateCmd() *cobra.Command {
	var o flagOverrides
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "estimate [panel.csv|panel.xlsx]",
		Short: "Run the three-stage search and report the error surface",
		Long: `Simulate synthetic panels for every (rate, strength, direction) tuple,
score them against the observed panel and narrow the grid over three stages.

Settings come from PANELFIT_* environment variables (and .env); flags override them.

Example: panelfit estimate smoking.csv --pattern slopes --seed 7 --out results.xlsx --plot surface.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.apply(cmd, args[0])
			if err != nil {
				return err
			}
			return runEstimate(cmd.Context(), cfg, asJSON)
		},
	}

	o.bindInput(cmd)
	o.bindSearch(cmd)
	o.bindDatabase(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run manifest as JSON")

	return cmd
}

func runEstimate(ctx context.Context, cfg *config.Config, asJSON bool) error {
	logger := internal.DefaultLogger
	observations, err := readObservations(cfg)
	if err != nil {
		return err
	}

	estimator := dgp.NewOLSEstimator()
	service := app.NewEstimationService(
		dgp.NewSimulator(dgp.DefaultParams(), estimator),
		estimator,
		dgp.NewRNGAdapter(),
		logger,
	)

	result, err := service.Estimate(ctx, app.EstimationRequest{
		Observations: observations,
		Settings: run.Settings{
			Pattern:     cfg.Search.Pattern,
			Steps:       [3]int{cfg.Search.Step1, cfg.Search.Step2, cfg.Search.Step3},
			Reliability: cfg.Search.Reliability,
			Seed:        cfg.Search.Seed,
			Workers:     cfg.Search.Workers,
		},
	})
	if err != nil {
		return err
	}

	if cfg.Output.ResultsPath != "" {
		if err := excel.WriteResults(cfg.Output.ResultsPath, result.Table, result.Manifest); err != nil {
			return err
		}
		logger.Info("results written to %s", cfg.Output.ResultsPath)
	}
	if cfg.Output.PlotPath != "" {
		if err := chart.SaveSurface(cfg.Output.PlotPath, result.Table); err != nil {
			return err
		}
		logger.Info("error surface written to %s", cfg.Output.PlotPath)
	}
	if cfg.Database.Enabled() {
		if err := persist(ctx, cfg, result); err != nil {
			return err
		}
		logger.Info("run %s stored", result.Manifest.RunID)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Manifest)
	}
	printSummary(result)
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config) (ports.ResultRepository, func(), error) {
	db, err := postgres.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	repo := postgres.NewResultRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}

func persist(ctx context.Context, cfg *config.Config, result *app.EstimationResult) error {
	repo, closeDB, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	return repo.SaveRun(ctx, result.Manifest, result.Table)
}

func printSummary(result *app.EstimationResult) {
	m := result.Manifest
	fmt.Printf("Run %s (%s, seed %d)\n", m.RunID, m.Settings.Pattern, m.Settings.Seed)
	fmt.Printf("Panel: %d units, %d waves, base rate %.4f, %d records dropped\n",
		m.Panel.Units, m.Panel.Waves, m.Panel.BaseRate, m.Panel.Dropped)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tTUPLES\tDRAWS\tFAILED\tTHRESHOLD\tSURVIVORS")
	for _, s := range m.Stages {
		threshold := "-"
		if s.Threshold != nil {
			threshold = fmt.Sprintf("%.4f", *s.Threshold)
		} else if s.RetainedAll {
			threshold = "NA (all kept)"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%d\n", s.Stage, s.Tuples, s.DrawsEach, s.FailedDraws, threshold, s.Survivors)
	}
	w.Flush()

	summary := result.Table.Summarize()
	fmt.Printf("Errors: %d/%d valid, min %.4f, median %.4f, max %.4f\n",
		summary.Valid, summary.Rows, summary.Min, summary.Median, summary.Max)
	if best, ok := result.Table.Best(); ok {
		fmt.Printf("Best: rate %.2f, strength %.1f, %s, error %s (stage %d)\n",
			best.Rate, best.Strength, best.Label, best.Error, best.Stage)
	}
	fmt.Printf("Fingerprint: %s\n", m.ResultHash.Short())
}

func newGridCmd() *cobra.Command {
	var o flagOverrides

	cmd := &cobra.Command{
		Use:   "grid [panel.csv|panel.xlsx]",
		Short: "Show the parameter grid and reference signature without simulating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.apply(cmd, args[0])
			if err != nil {
				return err
			}
			observations, err := readObservations(cfg)
			if err != nil {
				return err
			}

			service := app.NewEstimationService(nil, dgp.NewOLSEstimator(), nil, internal.DefaultLogger)
			prepared, err := service.Prepare(observations, cfg.Search.Pattern)
			if err != nil {
				return err
			}
			printGrid(prepared)
			return nil
		},
	}

	o.bindInput(cmd)
	return cmd
}

func printGrid(p *app.Prepared) {
	c := p.Grid.Constants
	fmt.Printf("Units: %d  Waves: %d  Base rate: %.4f  Dropped: %d\n", c.N, c.T, c.BaseRate, p.Report.Dropped)
	fmt.Printf("Grid: %d rates x %d strengths x %d directions = %d tuples\n",
		len(search.RateLevels), len(search.StrengthLevels), len(search.DirectionLevels), p.Grid.Len())

	switch ref := p.Reference.(type) {
	case panel.Contingency:
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PATTERN\tUNITS")
		for _, key := range ref.Keys() {
			fmt.Fprintf(w, "%s\t%d\n", key, ref[key])
		}
		w.Flush()
	case panel.Slopes:
		fmt.Printf("Slopes: %d units, min %.4f, max %.4f\n", len(ref), ref[0], ref[len(ref)-1])
	}
}

func newRunsCmd() *cobra.Command {
	var o flagOverrides
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.apply(cmd, "")
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("DATABASE_URL or --db-url is required")
			}
			repo, closeDB, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			runs, err := repo.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tPATTERN\tSEED\tFINGERPRINT\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.RunID, r.Pattern, r.Seed, r.Fingerprint.Short(), r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	o.bindDatabase(cmd)
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func newShowCmd() *cobra.Command {
	var o flagOverrides
	var top int

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the best rows of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			cfg, err := o.apply(cmd, "")
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("DATABASE_URL or --db-url is required")
			}
			repo, closeDB, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			manifest, err := repo.GetManifest(cmd.Context(), runID)
			if err != nil {
				return err
			}
			rows, err := repo.ListResults(cmd.Context(), runID)
			if err != nil {
				return err
			}
			table := &search.Table{Rows: rows}
			if table.Fingerprint() != manifest.ResultHash {
				internal.DefaultLogger.Warn("stored rows of run %s do not match the recorded fingerprint", runID)
			}

			fmt.Printf("Run %s (%s, seed %d, steps %v)\n", runID, manifest.Settings.Pattern, manifest.Settings.Seed, manifest.Settings.Steps)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RATE\tSTRENGTH\tDIRECTION\tERROR\tSTAGE")
			for _, r := range table.Ranked(top) {
				fmt.Fprintf(w, "%.2f\t%.1f\t%s\t%s\t%d\n", r.Rate, r.Strength, r.Label, r.Error, r.Stage)
			}
			return w.Flush()
		},
	}

	o.bindDatabase(cmd)
	cmd.Flags().IntVar(&top, "top", 10, "Number of rows to show")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var o flagOverrides

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the result store tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.apply(cmd, "")
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("DATABASE_URL or --db-url is required")
			}
			_, closeDB, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			internal.DefaultLogger.Info("schema version %s is in place (%s)", migration.NewRunner().Version(), cfg.Database.Driver)
			return nil
		},
	}

	o.bindDatabase(cmd)
	return cmd
}
