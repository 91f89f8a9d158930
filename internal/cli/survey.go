package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/mrsurvey/internal/metrics"
	"github.com/ppiankov/mrsurvey/internal/model"
	"github.com/ppiankov/mrsurvey/internal/pipeline"
)

var surveyTimeout time.Duration

// surveyFlagKeys maps configuration keys to the survey flags that set them
var surveyFlagKeys = map[string]string{
	"survey.start":          "start",
	"survey.end":            "end",
	"survey.trials":         "trials",
	"survey.top_k":          "top",
	"survey.workers":        "workers",
	"survey.seed":           "seed",
	"survey.strategy":       "strategy",
	"survey.exact":          "exact",
	"survey.confidence":     "confidence",
	"output.format":         "format",
	"output.path":           "out",
	"output.include_footer": "footer",
	"metrics.addr":          "metrics-addr",
}

// surveyCmd represents the survey command
var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Rank composites in a range by single-round Miller-Rabin error rate",
	Long: `Survey evaluates every odd number in [start, end):
- Runs the single-witness Miller-Rabin test --trials times per number
- Checks each number with a deterministic trial-division oracle
- Ranks composites by the fraction of trials that called them prime
- Prints the top entries as [n, rate] lines (or json, yaml, markdown, html)

A run with an explicit --seed is reproducible regardless of --workers, and is
cached unless --no-cache is given.

Example:
  mrsurvey survey
  mrsurvey survey --start 1000 --end 5000 --trials 4 --top 20
  mrsurvey survey --seed 42 --strategy squaring --exact --format markdown --out report.md
  mrsurvey survey --metrics-addr :9090`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), surveyFlagKeys)
	},
	RunE: runSurvey,
}

func init() {
	rootCmd.AddCommand(surveyCmd)
	addSurveyFlags(surveyCmd)
	surveyCmd.Flags().Int64("start", 0, "first candidate, rounded up to odd (default from config)")
	surveyCmd.Flags().Int64("end", 0, "exclusive upper bound (default from config)")
}

// addSurveyFlags registers the flags shared by survey and batch. Zero values
// defer to the configuration.
func addSurveyFlags(cmd *cobra.Command) {
	defaults := model.DefaultConfig()

	cmd.Flags().Int("trials", defaults.Survey.Trials, "witness tests per candidate")
	cmd.Flags().Int("top", defaults.Survey.TopK, "number of composites to report (-1 = all)")
	cmd.Flags().Int("workers", defaults.Survey.Workers, "concurrent workers (0 = one per CPU, 1 = sequential)")
	cmd.Flags().Uint64("seed", defaults.Survey.Seed, "random seed (0 = draw one and record it in the report)")
	cmd.Flags().String("strategy", defaults.Survey.Strategy, "modular exponentiation strategy (iterative, squaring)")
	cmd.Flags().Bool("exact", defaults.Survey.Exact, "add the exact liar fraction to every reported entry")
	cmd.Flags().Float64("confidence", defaults.Survey.Confidence, "confidence level of the reported intervals")
	cmd.Flags().String("format", defaults.Output.Format, "output format (text, json, yaml, markdown, html)")
	cmd.Flags().String("out", "", "write the report to this path instead of stdout")
	cmd.Flags().Bool("footer", defaults.Output.IncludeFooter, "include the footer in markdown and html reports")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	cmd.Flags().Bool("no-cache", false, "disable the report cache")
	cmd.Flags().DurationVar(&surveyTimeout, "timeout", 0, "abort the survey after this long (0 = no limit)")
}

func runSurvey(cmd *cobra.Command, args []string) error {
	return execute(cmd, func(ctx context.Context, p *pipeline.Pipeline) (*model.Report, error) {
		return p.Run(ctx, p.Config().Survey)
	})
}

type surveyFunc func(ctx context.Context, p *pipeline.Pipeline) (*model.Report, error)

// execute resolves configuration, runs fn under signal handling with an
// optional metrics endpoint alongside, and renders the report
func execute(cmd *cobra.Command, fn surveyFunc) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := pipeline.ValidateFormat(cfg.Output.Format); err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	logger := setupLogger(cfg.Log, cfg.Output.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if surveyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, surveyTimeout)
		defer cancel()
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Range:     [%d, %d)\n", cfg.Survey.Start, cfg.Survey.End)
		fmt.Fprintf(os.Stderr, "Trials:    %d\n", cfg.Survey.Trials)
		fmt.Fprintf(os.Stderr, "Strategy:  %s\n", cfg.Survey.Strategy)
		fmt.Fprintf(os.Stderr, "Cache:     %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	var opts []pipeline.Option
	var server *metrics.Server
	if cfg.Metrics.Addr != "" {
		collector := metrics.NewCollector()
		accessLog := logger.WriterLevel(logrus.DebugLevel)
		defer accessLog.Close()

		server, err = metrics.Listen(cfg.Metrics.Addr, collector, accessLog)
		if err != nil {
			return err
		}
		logger.WithField("addr", server.Addr()).Info("serving metrics")
		opts = append(opts, pipeline.WithCollector(collector))
	}

	p := pipeline.NewPipeline(cfg, logger, opts...)

	var report *model.Report
	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServe := context.WithCancel(gctx)
	defer stopServe()

	if server != nil {
		g.Go(func() error {
			return server.Serve(serveCtx)
		})
	}
	g.Go(func() error {
		defer stopServe()
		var err error
		report, err = fn(gctx, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("survey failed: %w", err)
	}

	if err := p.RenderReport(report, os.Stdout); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if cfg.Output.Verbose {
		pipeline.NewRenderer(false).RenderSummary(os.Stderr, report)
	}
	return nil
}
