package survey

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/mrsurvey/internal/model"
	"github.com/ppiankov/mrsurvey/internal/primality"
	"github.com/ppiankov/mrsurvey/internal/score"
	"github.com/ppiankov/mrsurvey/internal/worker"
)

// Surveyor measures single-round Miller-Rabin false-positive rates
type Surveyor struct {
	logger   logrus.FieldLogger
	observer Observer
	progress *worker.Limiter
}

// Option configures a Surveyor
type Option func(*Surveyor)

// WithLogger sets the logger used for progress and diagnostics
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Surveyor) { s.logger = logger }
}

// WithObserver registers an observer for every candidate outcome
func WithObserver(o Observer) Option {
	return func(s *Surveyor) { s.observer = o }
}

// WithProgressInterval sets how often progress is logged
func WithProgressInterval(d time.Duration) Option {
	return func(s *Surveyor) { s.progress = worker.NewIntervalLimiter(d) }
}

// New creates a Surveyor. Without options it logs nowhere.
func New(opts ...Option) *Surveyor {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Surveyor{
		logger:   discard,
		progress: worker.NewIntervalLimiter(model.ProgressInterval),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Survey is the plain entry point: odd n in [start, endExclusive), trials
// witness tests each, composites ranked by error rate, first topK returned.
// It runs sequentially with a freshly drawn seed.
func Survey(start, endExclusive int64, trials, topK int) ([]model.Entry, error) {
	report, err := New().Run(context.Background(), model.SurveyParams{
		Start:   start,
		End:     endExclusive,
		Trials:  trials,
		TopK:    topK,
		Workers: 1,
	})
	if err != nil {
		return nil, err
	}
	return report.Entries, nil
}

// Run surveys every odd candidate in params' range. Parameters are validated
// before any work starts; on error no report is produced.
func (s *Surveyor) Run(ctx context.Context, params model.SurveyParams) (*model.Report, error) {
	params, err := params.Normalize()
	if err != nil {
		return nil, err
	}

	total := params.Candidates()
	return s.run(ctx, params, total, func(b *worker.BatchProcessor, eval *evaluator, visit func(model.Outcome)) ([]*worker.EvalResult, error) {
		if params.Workers == 1 {
			for n := params.Start; n < params.End; n += 2 {
				out, err := eval.Evaluate(ctx, n)
				if err != nil {
					return nil, err
				}
				visit(out)
			}
			return nil, nil
		}
		return b.ProcessRange(ctx, params.Start, params.End), nil
	})
}

// RunCandidates surveys an explicit candidate list instead of a range. Every
// value must lie in [3, MaxCandidate); even values are evaluated as given.
func (s *Surveyor) RunCandidates(ctx context.Context, params model.SurveyParams, candidates []int64) (*model.Report, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", model.ErrInvalidRange)
	}

	lo, hi := candidates[0], candidates[0]
	for _, n := range candidates {
		if n < 3 || n >= primality.MaxCandidate {
			return nil, fmt.Errorf("%w: candidate %d outside [3, %d)", model.ErrInvalidRange, n, primality.MaxCandidate)
		}
		lo = min(lo, n)
		hi = max(hi, n)
	}

	// validate everything except the range, which the list replaces
	check := params
	check.Start, check.End = 3, 4
	norm, err := check.Normalize()
	if err != nil {
		return nil, err
	}
	norm.Start, norm.End = lo, hi+1

	return s.run(ctx, norm, int64(len(candidates)), func(b *worker.BatchProcessor, eval *evaluator, visit func(model.Outcome)) ([]*worker.EvalResult, error) {
		if norm.Workers == 1 {
			for _, n := range candidates {
				out, err := eval.Evaluate(ctx, n)
				if err != nil {
					return nil, err
				}
				visit(out)
			}
			return nil, nil
		}
		return b.ProcessCandidates(ctx, candidates), nil
	})
}

type dispatchFunc func(b *worker.BatchProcessor, eval *evaluator, visit func(model.Outcome)) ([]*worker.EvalResult, error)

func (s *Surveyor) run(ctx context.Context, params model.SurveyParams, total int64, dispatch dispatchFunc) (*model.Report, error) {
	exp, err := primality.StrategyByName(params.Strategy)
	if err != nil {
		return nil, err
	}
	if params.Seed == 0 {
		params.Seed = freshSeed()
	}

	log := s.logger.WithFields(logrus.Fields{
		"start":    params.Start,
		"end":      params.End,
		"trials":   params.Trials,
		"workers":  params.Workers,
		"strategy": params.Strategy,
		"seed":     params.Seed,
	})
	log.Info("survey started")
	began := time.Now()

	eval := &evaluator{
		tester:   primality.NewTester(exp),
		trials:   params.Trials,
		seed:     params.Seed,
		observer: s.observer,
	}

	outcomes := make([]model.Outcome, 0, total)
	visit := func(o model.Outcome) {
		outcomes = append(outcomes, o)
		if s.progress.Allow("progress") {
			log.WithFields(logrus.Fields{
				"done":    len(outcomes),
				"total":   total,
				"percent": fmt.Sprintf("%.1f", 100*float64(len(outcomes))/float64(total)),
			}).Info("survey progress")
		}
	}

	processor := worker.NewBatchProcessor(eval, params.Workers)
	processor.OnResult(func(r *worker.EvalResult) {
		if r.Error == nil {
			visit(r.Outcome)
		}
	})

	results, err := dispatch(processor, eval, visit)
	if err != nil {
		return nil, fmt.Errorf("evaluate candidates: %w", err)
	}
	for _, r := range results {
		if r.Error != nil {
			return nil, fmt.Errorf("evaluate %d: %w", r.N, r.Error)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("survey cancelled: %w", err)
	}
	if int64(len(outcomes)) != total {
		return nil, fmt.Errorf("survey incomplete: %d of %d candidates evaluated", len(outcomes), total)
	}

	scorer := score.NewScorer(params.Confidence)
	summary, entries := aggregate(outcomes, scorer)
	entries = Rank(entries, params.TopK)

	if params.Exact {
		census := primality.NewTester(primality.Squaring{})
		for i := range entries {
			rate := census.Census(entries[i].N).Rate
			entries[i].ExactRate = &rate
		}
	}

	report := &model.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Duration:    time.Since(began),
		Params:      params,
		Summary:     summary,
		Entries:     entries,
		Signals:     scorer.Signals(params, summary, entries),
	}

	log.WithFields(logrus.Fields{
		"composites":      summary.Composites,
		"false_positives": summary.FalsePositives,
		"duration":        report.Duration.Round(time.Millisecond),
	}).Info("survey finished")

	if summary.FalseNegatives > 0 {
		log.WithField("false_negatives", summary.FalseNegatives).Error("witness test rejected a prime")
	}

	return report, nil
}

// aggregate totals every outcome and builds entries for the composites
func aggregate(outcomes []model.Outcome, scorer *score.Scorer) (model.Summary, []model.Entry) {
	var summary model.Summary
	var entries []model.Entry
	var rateSum float64

	for _, o := range outcomes {
		summary.Candidates++
		summary.TotalTrials += int64(o.Trials)

		if !o.Composite {
			summary.Primes++
			summary.FalseNegatives += int64(o.Trials - o.Passed)
			continue
		}

		summary.Composites++
		summary.FalsePositives += int64(o.Passed)
		if o.Passed > 0 {
			summary.Misleading++
		}

		entry := scorer.Entry(o.N, o.Passed, o.Trials)
		rateSum += entry.ErrorRate
		summary.MaxErrorRate = max(summary.MaxErrorRate, entry.ErrorRate)
		entries = append(entries, entry)
	}

	if summary.Composites > 0 {
		summary.MeanErrorRate = rateSum / float64(summary.Composites)
	}
	return summary, entries
}

// Rank orders entries by error rate, highest first, with ties in ascending n,
// and keeps the first topK. model.TopKAll keeps every entry.
func Rank(entries []model.Entry, topK int) []model.Entry {
	ranked := make([]model.Entry, len(entries))
	copy(ranked, entries)

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].N < ranked[j].N })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ErrorRate > ranked[j].ErrorRate })

	if topK >= 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// freshSeed draws a non-zero seed from the runtime-seeded generator
func freshSeed() uint64 {
	for {
		if seed := rand.Uint64(); seed != 0 {
			return seed
		}
	}
}
