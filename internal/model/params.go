package model

import (
	"fmt"
	"runtime"
)

// MaxCandidate mirrors primality.MaxCandidate; model sits below primality in
// the import graph so the bound is restated here.
const MaxCandidate int64 = 1 << 62

// TopKAll as a report size keeps every composite. Zero keeps none.
const TopKAll = -1

// SurveyParams describes one survey run
type SurveyParams struct {
	Start      int64   `json:"start" yaml:"start" mapstructure:"start"`                // First candidate (rounded up to odd)
	End        int64   `json:"end" yaml:"end" mapstructure:"end"`                      // Exclusive upper bound
	Trials     int     `json:"trials" yaml:"trials" mapstructure:"trials"`             // Witness tests per candidate
	TopK       int     `json:"top_k" yaml:"top_k" mapstructure:"top_k"`                // Report size, TopKAll keeps every composite
	Workers    int     `json:"workers" yaml:"workers" mapstructure:"workers"`          // 0 = one per CPU
	Seed       uint64  `json:"seed" yaml:"seed" mapstructure:"seed"`                   // 0 = draw a fresh seed
	Strategy   string  `json:"strategy" yaml:"strategy" mapstructure:"strategy"`       // iterative, squaring
	Exact      bool    `json:"exact" yaml:"exact" mapstructure:"exact"`                // Add the exact liar census to reported entries
	Confidence float64 `json:"confidence" yaml:"confidence" mapstructure:"confidence"` // Wilson interval level
}

// DefaultSurveyParams returns the reference survey: odd n in [105001, 115000),
// 1000 trials each, top 10.
func DefaultSurveyParams() SurveyParams {
	return SurveyParams{
		Start:      105001,
		End:        115000,
		Trials:     1000,
		TopK:       10,
		Workers:    0,
		Seed:       0,
		Strategy:   "iterative",
		Confidence: 0.95,
	}
}

// Normalize validates p and returns a copy with the start rounded up to an odd
// value and the worker count resolved.
func (p SurveyParams) Normalize() (SurveyParams, error) {
	if p.End <= p.Start {
		return p, fmt.Errorf("%w: end %d <= start %d", ErrInvalidRange, p.End, p.Start)
	}
	if p.End > MaxCandidate {
		return p, fmt.Errorf("%w: end %d > %d", ErrArithmeticOverflow, p.End, MaxCandidate)
	}
	if p.Start%2 == 0 {
		p.Start++
	}
	if p.Start < 3 {
		return p, fmt.Errorf("%w: start %d < 3", ErrInvalidRange, p.Start)
	}
	if p.Trials <= 0 {
		return p, fmt.Errorf("%w: got %d", ErrInvalidTrialCount, p.Trials)
	}
	if p.TopK < TopKAll {
		return p, fmt.Errorf("%w: got %d", ErrInvalidTopK, p.TopK)
	}
	if p.Workers < 0 {
		return p, fmt.Errorf("%w: got %d", ErrInvalidWorkers, p.Workers)
	}
	if p.Workers == 0 {
		p.Workers = runtime.NumCPU()
	}
	if p.Confidence == 0 {
		p.Confidence = 0.95
	}
	if p.Confidence <= 0 || p.Confidence >= 1 {
		return p, fmt.Errorf("%w: got %v", ErrInvalidConfidence, p.Confidence)
	}
	if p.Strategy == "" {
		p.Strategy = "iterative"
	}
	return p, nil
}

// Candidates returns the number of odd values the normalised range covers.
func (p SurveyParams) Candidates() int64 {
	if p.End <= p.Start {
		return 0
	}
	return (p.End - p.Start + 1) / 2
}
