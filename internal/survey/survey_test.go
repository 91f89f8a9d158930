package survey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/mrsurvey/internal/model"
	"github.com/ppiankov/mrsurvey/internal/primality"
)

func TestSurvey_SmallRange(t *testing.T) {
	entries, err := Survey(9, 30, 200, 3)
	if err != nil {
		t.Fatalf("Survey failed: %v", err)
	}

	if len(entries) > 3 {
		t.Fatalf("expected at most 3 entries, got %d", len(entries))
	}

	composites := map[int64]bool{9: true, 15: true, 21: true, 25: true, 27: true}
	for i, e := range entries {
		if !composites[e.N] {
			t.Errorf("unexpected entry %d: only odd composites in [9, 30) may appear", e.N)
		}
		if e.ErrorRate < 0 || e.ErrorRate > 1 {
			t.Errorf("rate for %d out of range: %f", e.N, e.ErrorRate)
		}
		if i > 0 && entries[i-1].ErrorRate < e.ErrorRate {
			t.Errorf("entries not sorted descending at %d", i)
		}
	}
}

func TestSurvey_ZeroTopK(t *testing.T) {
	entries, err := Survey(9, 30, 200, 0)
	if err != nil {
		t.Fatalf("Survey failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected the first 0 entries, got %d", len(entries))
	}
}

func TestSurvey_AllTopK(t *testing.T) {
	entries, err := Survey(9, 30, 200, model.TopKAll)
	if err != nil {
		t.Fatalf("Survey failed: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("expected every composite in [9, 30), got %d", len(entries))
	}
}

func TestSurvey_OnlyPrime(t *testing.T) {
	entries, err := Survey(3, 4, 100, 5)
	if err != nil {
		t.Fatalf("Survey failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %+v", entries)
	}
}

func TestSurvey_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		start, end int64
		trials     int
		topK       int
		wantErr    error
	}{
		{"zero trials", 10, 100, 0, 5, model.ErrInvalidTrialCount},
		{"inverted range", 100, 10, 10, 5, model.ErrInvalidRange},
		{"start too small", 1, 100, 10, 5, model.ErrInvalidRange},
		{"top-k below all", 3, 100, 10, -2, model.ErrInvalidTopK},
		{"beyond safe width", 3, primality.MaxCandidate + 1, 10, 5, model.ErrArithmeticOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Survey(tt.start, tt.end, tt.trials, tt.topK)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if entries != nil {
				t.Errorf("expected no entries on error, got %+v", entries)
			}
		})
	}
}

func TestMaxCandidateAgrees(t *testing.T) {
	if model.MaxCandidate != primality.MaxCandidate {
		t.Errorf("model and primality disagree on MaxCandidate: %d vs %d", model.MaxCandidate, primality.MaxCandidate)
	}
}

func TestSurveyor_Summary(t *testing.T) {
	report, err := New().Run(context.Background(), model.SurveyParams{
		Start: 9, End: 30, Trials: 200, TopK: model.TopKAll, Seed: 11, Workers: 2,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	s := report.Summary
	if s.Candidates != 11 || s.Primes != 6 || s.Composites != 5 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.TotalTrials != 11*200 {
		t.Errorf("expected %d trials, got %d", 11*200, s.TotalTrials)
	}
	if s.FalseNegatives != 0 {
		t.Errorf("expected no false negatives, got %d", s.FalseNegatives)
	}
	if len(report.Entries) != 5 {
		t.Errorf("expected every composite with top-k all, got %d", len(report.Entries))
	}
	if report.Params.Seed != 11 {
		t.Errorf("expected seed to be recorded, got %d", report.Params.Seed)
	}
	if report.RunID == "" {
		t.Error("expected a run id")
	}
	for _, e := range report.Entries {
		if e.Interval.Lower > e.ErrorRate || e.Interval.Upper < e.ErrorRate {
			t.Errorf("interval [%f, %f] excludes rate %f for %d", e.Interval.Lower, e.Interval.Upper, e.ErrorRate, e.N)
		}
	}
}

func TestSurveyor_FreshSeedRecorded(t *testing.T) {
	report, err := New().Run(context.Background(), model.SurveyParams{Start: 9, End: 12, Trials: 5, Workers: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Params.Seed == 0 {
		t.Error("expected a non-zero seed to be drawn and recorded")
	}
}

func TestSurveyor_DeterministicAcrossWorkers(t *testing.T) {
	params := model.SurveyParams{Start: 1001, End: 1401, Trials: 100, TopK: model.TopKAll, Seed: 42, Strategy: "squaring"}

	params.Workers = 1
	sequential, err := New().Run(context.Background(), params)
	if err != nil {
		t.Fatalf("sequential run failed: %v", err)
	}

	params.Workers = 8
	parallel, err := New().Run(context.Background(), params)
	if err != nil {
		t.Fatalf("parallel run failed: %v", err)
	}

	if len(sequential.Entries) != len(parallel.Entries) {
		t.Fatalf("entry counts differ: %d vs %d", len(sequential.Entries), len(parallel.Entries))
	}
	for i := range sequential.Entries {
		a, b := sequential.Entries[i], parallel.Entries[i]
		if a.N != b.N || a.FalsePositives != b.FalsePositives {
			t.Errorf("entry %d differs: %d/%d vs %d/%d", i, a.N, a.FalsePositives, b.N, b.FalsePositives)
		}
	}
	if sequential.Summary != parallel.Summary {
		t.Errorf("summaries differ:\n%+v\n%+v", sequential.Summary, parallel.Summary)
	}
}

func TestSurveyor_StrategiesAgree(t *testing.T) {
	params := model.SurveyParams{Start: 3, End: 400, Trials: 50, Seed: 5, Workers: 4}

	params.Strategy = "iterative"
	slow, err := New().Run(context.Background(), params)
	if err != nil {
		t.Fatalf("iterative run failed: %v", err)
	}

	params.Strategy = "squaring"
	fast, err := New().Run(context.Background(), params)
	if err != nil {
		t.Fatalf("squaring run failed: %v", err)
	}

	if slow.Summary != fast.Summary {
		t.Errorf("strategies produced different summaries:\n%+v\n%+v", slow.Summary, fast.Summary)
	}
}

func TestSurveyor_UnknownStrategy(t *testing.T) {
	_, err := New().Run(context.Background(), model.SurveyParams{Start: 3, End: 9, Trials: 1, Strategy: "magic"})
	if !errors.Is(err, primality.ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestSurveyor_PseudoprimeFalsePositives(t *testing.T) {
	// 2047 = 23 * 89 is the smallest strong base-2 pseudoprime
	report, err := New().Run(context.Background(), model.SurveyParams{
		Start: 2041, End: 2051, Trials: 1000, TopK: model.TopKAll, Seed: 3, Workers: 2,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var found bool
	for _, e := range report.Entries {
		if e.N == 2047 {
			found = true
			if e.ErrorRate <= 0 {
				t.Errorf("expected false positives for 2047, got rate %f", e.ErrorRate)
			}
		}
	}
	if !found {
		t.Error("expected 2047 in the report")
	}
	if report.Summary.FalsePositives == 0 {
		t.Error("expected false positives across the range")
	}
}

func TestSurveyor_Exact(t *testing.T) {
	report, err := New().Run(context.Background(), model.SurveyParams{
		Start: 9, End: 30, Trials: 100, TopK: 2, Seed: 9, Exact: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	census := primality.NewTester(primality.Squaring{})
	for _, e := range report.Entries {
		if e.ExactRate == nil {
			t.Fatalf("expected exact rate for %d", e.N)
		}
		if want := census.Census(e.N).Rate; *e.ExactRate != want {
			t.Errorf("exact rate for %d: expected %f, got %f", e.N, want, *e.ExactRate)
		}
	}
}

func TestSurveyor_RunCandidates(t *testing.T) {
	candidates := []int64{341, 561, 1105, 2047, 7919}
	report, err := New().RunCandidates(context.Background(), model.SurveyParams{
		Trials: 300, TopK: model.TopKAll, Seed: 1, Workers: 3,
	}, candidates)
	if err != nil {
		t.Fatalf("RunCandidates failed: %v", err)
	}

	if report.Summary.Candidates != 5 || report.Summary.Primes != 1 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if report.Params.Start != 341 || report.Params.End != 7920 {
		t.Errorf("expected bounds [341, 7920), got [%d, %d)", report.Params.Start, report.Params.End)
	}
	for _, e := range report.Entries {
		if e.N == 7919 {
			t.Error("prime 7919 must not be reported")
		}
	}
}

func TestSurveyor_RunCandidates_Invalid(t *testing.T) {
	s := New()
	if _, err := s.RunCandidates(context.Background(), model.SurveyParams{Trials: 1}, nil); !errors.Is(err, model.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for empty list, got %v", err)
	}
	if _, err := s.RunCandidates(context.Background(), model.SurveyParams{Trials: 1}, []int64{9, 1}); !errors.Is(err, model.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for 1, got %v", err)
	}
	if _, err := s.RunCandidates(context.Background(), model.SurveyParams{Trials: 0}, []int64{9}); !errors.Is(err, model.ErrInvalidTrialCount) {
		t.Errorf("expected ErrInvalidTrialCount, got %v", err)
	}
}

func TestSurveyor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, err := New().Run(ctx, model.SurveyParams{Start: 3, End: 100001, Trials: 1000, Workers: workers})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []model.Outcome
}

func (r *recordingObserver) ObserveOutcome(o model.Outcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func TestSurveyor_Observer(t *testing.T) {
	obs := &recordingObserver{}
	_, err := New(WithObserver(obs), WithProgressInterval(time.Millisecond)).Run(context.Background(), model.SurveyParams{
		Start: 3, End: 103, Trials: 10, Seed: 2, Workers: 4,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(obs.outcomes) != 50 {
		t.Errorf("expected 50 observed outcomes, got %d", len(obs.outcomes))
	}
}

func TestRank(t *testing.T) {
	entries := []model.Entry{
		{N: 27, ErrorRate: 0.1},
		{N: 9, ErrorRate: 0.25},
		{N: 21, ErrorRate: 0.1},
		{N: 15, ErrorRate: 0.2},
		{N: 25, ErrorRate: 0.1},
	}

	ranked := Rank(entries, model.TopKAll)
	want := []int64{9, 15, 21, 25, 27}
	for i, n := range want {
		if ranked[i].N != n {
			t.Errorf("position %d: expected %d, got %d", i, n, ranked[i].N)
		}
	}

	top := Rank(entries, 3)
	if len(top) != 3 || top[2].N != 21 {
		t.Errorf("expected ties broken by ascending n, got %+v", top)
	}

	if got := Rank(entries, 0); len(got) != 0 {
		t.Errorf("expected top-k 0 to keep nothing, got %+v", got)
	}

	if entries[0].N != 27 {
		t.Error("Rank must not reorder its input")
	}

	if got := Rank(nil, 10); len(got) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestEvaluator_StreamPerCandidate(t *testing.T) {
	eval := &evaluator{tester: primality.NewTester(nil), trials: 500, seed: 77}

	a, err := eval.Evaluate(context.Background(), 341)
	if err != nil {
		t.Fatal(err)
	}
	b, err := eval.Evaluate(context.Background(), 341)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("expected identical outcomes for the same seed and candidate, got %+v and %+v", a, b)
	}
	if !a.Composite || a.Passed == 0 {
		t.Errorf("expected composite 341 with false positives, got %+v", a)
	}
}
