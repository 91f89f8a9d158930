package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/mrsurvey/internal/model"
	"github.com/ppiankov/mrsurvey/internal/pipeline"
)

var compareTrials []int

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the same survey at several trial counts side by side",
	Long: `Compare runs one survey per trial count concurrently, all sharing one
seed, and prints each ranking. Few trials give coarse rates that cannot
separate composites; many trials converge on the exact liar fraction.

Example:
  mrsurvey compare
  mrsurvey compare --trials 10000,100,4 --start 2001 --end 3001`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), map[string]string{
			"survey.start":    "start",
			"survey.end":      "end",
			"survey.top_k":    "top",
			"survey.seed":     "seed",
			"survey.strategy": "strategy",
			"output.format":   "format",
		})
	},
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	defaults := model.DefaultConfig()
	compareCmd.Flags().IntSliceVar(&compareTrials, "trials", []int{1000, 4}, "trial counts to compare")
	compareCmd.Flags().Int64("start", defaults.Survey.Start, "first candidate, rounded up to odd")
	compareCmd.Flags().Int64("end", defaults.Survey.End, "exclusive upper bound")
	compareCmd.Flags().Int("top", defaults.Survey.TopK, "number of composites to report (-1 = all)")
	compareCmd.Flags().Uint64("seed", 0, "random seed shared by every run (0 = draw one)")
	compareCmd.Flags().String("strategy", defaults.Survey.Strategy, "modular exponentiation strategy (iterative, squaring)")
	compareCmd.Flags().String("format", defaults.Output.Format, "output format (text, json, yaml, markdown, html)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	if len(compareTrials) == 0 {
		return fmt.Errorf("%w: no trial counts given", model.ErrInvalidTrialCount)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := pipeline.ValidateFormat(cfg.Output.Format); err != nil {
		return err
	}
	cfg.Output.Path = ""
	logger := setupLogger(cfg.Log, cfg.Output.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Survey.Seed == 0 {
		cfg.Survey.Seed = rand.Uint64() | 1
	}

	p := pipeline.NewPipeline(cfg, logger)
	reports := make([]*model.Report, len(compareTrials))

	// the runs share the CPU, so each gets a proportional slice of workers
	workers := cfg.Survey.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, trials := range compareTrials {
		params := cfg.Survey
		params.Trials = trials
		params.Workers = max(1, workers/len(compareTrials))
		g.Go(func() error {
			report, err := p.Run(gctx, params)
			if err != nil {
				return fmt.Errorf("%d trials: %w", trials, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Seed: %d\n", cfg.Survey.Seed)
	for i, report := range reports {
		fmt.Printf("# %d trials\n", compareTrials[i])
		if err := p.RenderReport(report, os.Stdout); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Println()
	}
	return nil
}
