package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/mrsurvey/internal/cache"
	"github.com/ppiankov/mrsurvey/internal/metrics"
	"github.com/ppiankov/mrsurvey/internal/model"
	"github.com/ppiankov/mrsurvey/internal/survey"
)

// Pipeline orchestrates a survey run: validation, cache lookup, the survey
// itself, metrics and rendering.
type Pipeline struct {
	surveyor  *survey.Surveyor
	store     *cache.ReportStore // nil when caching is disabled
	collector *metrics.Collector // nil when metrics are disabled
	renderer  *Renderer
	logger    logrus.FieldLogger
	config    *model.Config
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithCollector records candidate and survey metrics on c
func WithCollector(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.collector = c }
}

// WithReportStore overrides the store built from the cache configuration
func WithReportStore(s *cache.ReportStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger logrus.FieldLogger, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		logger:   logger,
		config:   cfg,
	}
	if cfg.Cache.Enabled {
		p.store = cache.NewLayeredReportStore(cfg.Cache)
	}
	for _, opt := range opts {
		opt(p)
	}

	surveyOpts := []survey.Option{survey.WithLogger(logger)}
	if p.collector != nil {
		surveyOpts = append(surveyOpts, survey.WithObserver(p.collector))
	}
	p.surveyor = survey.New(surveyOpts...)

	return p
}

// Config returns the configuration the pipeline was built with
func (p *Pipeline) Config() *model.Config {
	return p.config
}

// Run surveys params. Seeded runs are reproducible, so they are served from
// and stored in the report cache when one is configured.
func (p *Pipeline) Run(ctx context.Context, params model.SurveyParams) (*model.Report, error) {
	params, err := params.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid survey parameters: %w", err)
	}

	cacheable := p.store != nil && params.Seed != 0
	if cacheable {
		if report, found := p.store.Get(params); found {
			p.logger.WithField("run_id", report.RunID).Debug("report served from cache")
			report.Cached = true
			p.observe("cached", 0)
			return report, nil
		}
	}

	began := time.Now()
	report, err := p.surveyor.Run(ctx, params)
	if err != nil {
		p.observe("error", time.Since(began))
		return nil, fmt.Errorf("survey: %w", err)
	}
	p.observe("ok", time.Since(began))

	if cacheable {
		if err := p.store.Put(report); err != nil {
			p.logger.WithError(err).Warn("failed to cache report")
		}
	}
	return report, nil
}

// RunCandidates surveys an explicit candidate list. These runs are not
// cached since the list is not part of the cache key.
func (p *Pipeline) RunCandidates(ctx context.Context, params model.SurveyParams, candidates []int64) (*model.Report, error) {
	began := time.Now()
	report, err := p.surveyor.RunCandidates(ctx, params, candidates)
	if err != nil {
		p.observe("error", time.Since(began))
		return nil, fmt.Errorf("survey candidates: %w", err)
	}
	p.observe("ok", time.Since(began))
	return report, nil
}

// ClearCache drops every cached report
func (p *Pipeline) ClearCache() error {
	if p.store == nil {
		return nil
	}
	return p.store.Clear()
}

func (p *Pipeline) observe(result string, elapsed time.Duration) {
	if p.collector != nil {
		p.collector.ObserveSurvey(result, elapsed)
	}
}

// RenderReport writes the report in the configured format, to the configured
// path or to w when no path is set.
func (p *Pipeline) RenderReport(report *model.Report, w io.Writer) (err error) {
	format := p.config.Output.Format
	path := p.config.Output.Path

	if path == "" {
		if err := p.renderer.Render(w, report, format); err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close report file: %w", closeErr)
		}
	}()

	if err := p.renderer.Render(f, report, format); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s report: %s\n", format, path)
	}
	return nil
}
