package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/mrsurvey/internal/model"
)

// RabinBound is the largest fraction of witnesses that can lie about an odd
// composite other than 9 in one Miller-Rabin round.
const RabinBound = 0.25

// minResolutionTrials is the trial count below which rates are too coarse
// to rank meaningfully.
const minResolutionTrials = 100

// warningRate marks composites that fool a single round at least this often.
const warningRate = 0.10

// Scorer turns raw trial counts into rated entries and run-level signals
type Scorer struct {
	confidence float64
	z          float64
}

// NewScorer creates a scorer for a two-sided confidence level in (0, 1)
func NewScorer(confidence float64) *Scorer {
	return &Scorer{
		confidence: confidence,
		z:          ZScore(confidence),
	}
}

// Entry builds the report entry for composite n
func (s *Scorer) Entry(n int64, falsePositives, trials int) model.Entry {
	rate := float64(falsePositives) / float64(trials)
	lo, hi := Wilson(falsePositives, trials, s.z)

	entry := model.Entry{
		N:              n,
		ErrorRate:      rate,
		FalsePositives: falsePositives,
		Trials:         trials,
		Interval: model.Interval{
			Lower:      lo,
			Upper:      hi,
			Confidence: s.confidence,
		},
		Severity: model.SeverityInfo,
	}

	switch {
	case lo > RabinBound:
		entry.Severity = model.SeverityCritical
	case rate >= warningRate:
		entry.Severity = model.SeverityWarning
	}
	return entry
}

// Signals derives diagnostic signals for a finished run
func (s *Scorer) Signals(params model.SurveyParams, summary model.Summary, entries []model.Entry) []model.Signal {
	var signals []model.Signal

	if summary.Composites == 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalNoComposites,
			Severity:    model.SeverityInfo,
			Description: "Range contains no composites; nothing to rank",
			Data: map[string]interface{}{
				"candidates": summary.Candidates,
				"primes":     summary.Primes,
			},
		})
	}

	if summary.FalseNegatives > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalFalseNegative,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("%d witness tests rejected a prime", summary.FalseNegatives),
			Data: map[string]interface{}{
				"false_negatives": summary.FalseNegatives,
				"strategy":        params.Strategy,
			},
		})
	}

	if params.Trials < minResolutionTrials {
		signals = append(signals, model.Signal{
			Type:        model.SignalLowResolution,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Only %d trials per candidate; rates are multiples of %.4f", params.Trials, 1/float64(params.Trials)),
			Data: map[string]interface{}{
				"trials":     params.Trials,
				"resolution": 1 / float64(params.Trials),
				"minimum":    minResolutionTrials,
			},
		})
	}

	var aboveBound []int64
	var deviating []int64
	for _, e := range entries {
		if e.Interval.Lower > RabinBound {
			aboveBound = append(aboveBound, e.N)
		}
		if e.ExactRate != nil && (*e.ExactRate < e.Interval.Lower || *e.ExactRate > e.Interval.Upper) {
			deviating = append(deviating, e.N)
		}
	}

	if len(aboveBound) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalRabinBound,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("%d composites credibly exceed the 1/4 strong-liar bound", len(aboveBound)),
			Data: map[string]interface{}{
				"n":       aboveBound,
				"bound":   RabinBound,
				"formula": "wilson_lower(false_positives, trials, z) > 1/4",
			},
		})
	}

	if len(deviating) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalExactDeviation,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d of %d entries have an exact rate outside their %.0f%% interval", len(deviating), len(entries), s.confidence*100),
			Data: map[string]interface{}{
				"n":          deviating,
				"expected":   (1 - s.confidence) * float64(len(entries)),
				"confidence": s.confidence,
			},
		})
	}

	return signals
}

// Wilson returns the Wilson score interval for hits successes in trials
// observations at normal quantile z.
func Wilson(hits, trials int, z float64) (lower, upper float64) {
	if trials <= 0 {
		return 0, 1
	}
	n := float64(trials)
	p := float64(hits) / n
	z2 := z * z

	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	half := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / denom

	lower = math.Max(0, center-half)
	upper = math.Min(1, center+half)
	return lower, upper
}

// ZScore returns the two-sided standard normal quantile for a confidence
// level, e.g. 1.96 for 0.95.
func ZScore(confidence float64) float64 {
	return math.Sqrt2 * math.Erfinv(confidence)
}
