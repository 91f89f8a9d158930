package model

import "time"

// Report is the complete result of one survey run
type Report struct {
	RunID       string        `json:"run_id" yaml:"run_id"`             // Unique id of this run
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"` // When the survey finished
	Duration    time.Duration `json:"duration" yaml:"duration"`         // Wall time of the survey
	Params      SurveyParams  `json:"params" yaml:"params"`             // Normalised parameters, seed included
	Summary     Summary       `json:"summary" yaml:"summary"`           // Totals over every candidate
	Entries     []Entry       `json:"entries" yaml:"entries"`           // Ranked composites, at most TopK
	Signals     []Signal      `json:"signals,omitempty" yaml:"signals,omitempty"`
	Cached      bool          `json:"cached,omitempty" yaml:"cached,omitempty"` // Served from the report cache
}

// Entry is one composite and its measured false-positive rate
type Entry struct {
	N              int64          `json:"n" yaml:"n"`
	ErrorRate      float64        `json:"error_rate" yaml:"error_rate"`           // FalsePositives / Trials
	FalsePositives int            `json:"false_positives" yaml:"false_positives"` // Trials that returned "probably prime"
	Trials         int            `json:"trials" yaml:"trials"`
	Interval       Interval       `json:"interval" yaml:"interval"`                         // Wilson score interval of ErrorRate
	ExactRate      *float64       `json:"exact_rate,omitempty" yaml:"exact_rate,omitempty"` // Liar fraction over every witness
	Severity       SignalSeverity `json:"severity" yaml:"severity"`
}

// Interval is a confidence interval on a rate
type Interval struct {
	Lower      float64 `json:"lower" yaml:"lower"`
	Upper      float64 `json:"upper" yaml:"upper"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Summary aggregates every candidate, not only the reported ones
type Summary struct {
	Candidates     int64   `json:"candidates" yaml:"candidates"`           // Odd values evaluated
	Primes         int64   `json:"primes" yaml:"primes"`                   // Oracle said prime
	Composites     int64   `json:"composites" yaml:"composites"`           // Oracle said composite
	TotalTrials    int64   `json:"total_trials" yaml:"total_trials"`       // Witness tests run
	FalsePositives int64   `json:"false_positives" yaml:"false_positives"` // Composite trials that passed
	FalseNegatives int64   `json:"false_negatives" yaml:"false_negatives"` // Prime trials that failed, always 0 for a correct test
	Misleading     int64   `json:"misleading" yaml:"misleading"`           // Composites with at least one false positive
	MeanErrorRate  float64 `json:"mean_error_rate" yaml:"mean_error_rate"` // Mean over composites
	MaxErrorRate   float64 `json:"max_error_rate" yaml:"max_error_rate"`
}

// Signal is a diagnostic finding with the data it was derived from
type Signal struct {
	Type        SignalType             `json:"type" yaml:"type"`
	Severity    SignalSeverity         `json:"severity" yaml:"severity"`
	Description string                 `json:"description" yaml:"description"`
	Data        map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"`
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalRabinBound     SignalType = "rabin_bound"     // Rate credibly above the 1/4 strong-liar bound
	SignalFalseNegative  SignalType = "false_negative"  // A prime was rejected
	SignalNoComposites   SignalType = "no_composites"   // Range held only primes
	SignalLowResolution  SignalType = "low_resolution"  // Too few trials to separate rates
	SignalExactDeviation SignalType = "exact_deviation" // Empirical rate outside its interval around the exact rate
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Outcome is the raw tally for one evaluated candidate
type Outcome struct {
	N         int64 `json:"n"`
	Composite bool  `json:"composite"` // Oracle verdict
	Passed    int   `json:"passed"`    // Witness tests that returned "probably prime"
	Trials    int   `json:"trials"`    // Witness tests run
}
