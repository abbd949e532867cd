package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gomdao/gomdao/internal/component"
	"github.com/gomdao/gomdao/internal/config"
	"github.com/gomdao/gomdao/internal/linearize"
	"github.com/gomdao/gomdao/internal/problems"
	"github.com/gomdao/gomdao/internal/recorder"
	"github.com/gomdao/gomdao/internal/solver"
)

// version is stamped by the release build.
var version = "0.4.0"

var (
	verbose bool
	cfgPath string
	record  bool
	dbPath  string
	maxIter int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gomdao",
	Short: "Derivative engine for implicit components",
	Long: `gomdao linearizes implicit components by tracing their residual
functions once and replaying the trace in forward or reverse mode.
It can probe jacobian sparsity, color the pattern for compressed
derivative passes, and record runs to a SQLite database.

Demo problems: ` + strings.Join(problems.Names(), ", "),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var linearizeCmd = &cobra.Command{
	Use:   "linearize [problem]",
	Short: "Solve a demo problem and print its partial derivative blocks",
	Long: `Runs Newton iteration on the named demo problem, then linearizes at
the converged point and prints every declared partial block.`,
	Args: cobra.ExactArgs(1),
	RunE: runLinearize,
}

var sparsityCmd = &cobra.Command{
	Use:   "sparsity [problem]",
	Short: "Probe a problem's jacobian structure and report colorings",
	Args:  cobra.ExactArgs(1),
	RunE:  runSparsity,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs in the database",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gomdao %s %s\n", version, runtime.Version())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "gomdao.yaml", "Config file (missing file uses defaults)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Recorder database path (overrides config)")

	linearizeCmd.Flags().BoolVar(&record, "record", false, "Record the run to the database")
	linearizeCmd.Flags().IntVar(&maxIter, "iters", 20, "Newton iteration cap")
	sparsityCmd.Flags().BoolVar(&record, "record", false, "Record the pattern to the database")

	rootCmd.AddCommand(linearizeCmd)
	rootCmd.AddCommand(sparsityCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadProblem(name string) (*component.Implicit, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, nil, err
	}
	c, err := problems.Build(name, opts, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

// openStore opens the recorder database at the --db path, falling
// back to the config's path.
func openStore(ctx context.Context, cfg *config.Config) (*recorder.Store, error) {
	path := dbPath
	if path == "" {
		path = cfg.Recording.Path
	}
	store := recorder.NewStore(path)
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func runLinearize(cmd *cobra.Command, args []string) error {
	c, cfg, err := loadProblem(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec *recorder.Recorder
	if record || cfg.Recording.Enabled {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		opts, _ := cfg.Options()
		rec = recorder.New(store, c, opts, logger)
		if err := rec.Start(ctx); err != nil {
			return err
		}
	}

	newton := solver.New(logger)
	newton.MaxIter = maxIter
	res, err := newton.Solve(c)
	if err != nil {
		return err
	}
	if err := c.Linearize(); err != nil {
		return err
	}
	if rec != nil {
		if err := rec.RecordLinearization(ctx, c); err != nil {
			return err
		}
	}

	printPoint(c)
	printPartials(c)
	fmt.Printf("\nconverged=%v iterations=%d norm=%.3e\n", res.Converged, res.Iterations, res.Norm)
	if rec != nil {
		fmt.Printf("recorded run %s\n", rec.RunID())
	}
	return nil
}

func runSparsity(cmd *cobra.Command, args []string) error {
	c, cfg, err := loadProblem(args[0])
	if err != nil {
		return err
	}
	if err := c.ApplyNonlinear(); err != nil {
		return err
	}

	spOpts, err := cfg.SparsityOptions()
	if err != nil {
		return err
	}
	p, err := c.ComputeSparsity(spOpts)
	if err != nil {
		return err
	}

	fmt.Println(p.String())
	printGrid(p)

	fwd := linearize.ColorPattern(p, linearize.DirFwd)
	rev := linearize.ColorPattern(p, linearize.DirRev)
	auto := linearize.ColorPattern(p, linearize.DirAuto)
	fmt.Printf("forward:  %d passes for %d columns\n", fwd.NumColors(), p.NCols)
	fmt.Printf("reverse:  %d passes for %d rows\n", rev.NumColors(), p.NRows)
	fmt.Printf("selected: %s with %d passes\n", auto.Direction, auto.NumColors())

	if record {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		opts, _ := cfg.Options()
		rec := recorder.New(store, c, opts, logger)
		if err := rec.Start(ctx); err != nil {
			return err
		}
		if err := rec.RecordPattern(ctx, p); err != nil {
			return err
		}
		fmt.Printf("recorded run %s\n", rec.RunID())
	}
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, run := range runs {
		snaps, err := store.Snapshots(ctx, run.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %-10s %s  %s/%s  snapshots=%d\n",
			run.ID, run.Component, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Direction, run.Method, len(snaps))
	}
	return nil
}

func printPoint(c *component.Implicit) {
	fmt.Println("inputs:")
	for _, name := range c.InputSet().Names() {
		view, _ := c.Inputs().View(name)
		fmt.Printf("  %-8s %v\n", name, view.Data())
	}
	fmt.Println("outputs:")
	for _, name := range c.OutputSet().Names() {
		view, _ := c.Outputs().View(name)
		fmt.Printf("  %-8s %v\n", name, view.Data())
	}
	fmt.Println("residuals:")
	for _, name := range c.OutputSet().Names() {
		view, _ := c.Residuals().View(name)
		fmt.Printf("  %-8s %v\n", name, view.Data())
	}
}

func printPartials(c *component.Implicit) {
	fmt.Println("partials:")
	for _, key := range c.Partials().Keys() {
		blk, _ := c.Partials().Block(key)
		kind := "dense"
		if blk.IsSparse() {
			kind = fmt.Sprintf("sparse nnz=%d", blk.NNZ())
		}
		fmt.Printf("  %-12s %-14s %v\n", key.String(), kind, blk.Dense().Data())
	}
}

// printGrid renders small patterns as an X/. matrix.
func printGrid(p *linearize.Pattern) {
	const maxCells = 50
	if p.NRows > maxCells || p.NCols > maxCells {
		return
	}
	grid := make([][]byte, p.NRows)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(".", p.NCols))
	}
	for i := range p.Rows {
		grid[p.Rows[i]][p.Cols[i]] = 'X'
	}
	for _, row := range grid {
		fmt.Printf("  %s\n", row)
	}
}
