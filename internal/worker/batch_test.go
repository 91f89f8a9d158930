package worker

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/mrsurvey/internal/model"
)

// MockEvaluator implements Evaluator
type MockEvaluator struct {
	ShouldError bool
	calls       int32
}

func (m *MockEvaluator) Evaluate(ctx context.Context, n int64) (model.Outcome, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.ShouldError {
		return model.Outcome{}, errors.New("evaluate error")
	}
	return model.Outcome{N: n, Composite: n%3 == 0, Trials: 10}, nil
}

func TestBatchProcessor_ProcessCandidates(t *testing.T) {
	evaluator := &MockEvaluator{}
	processor := NewBatchProcessor(evaluator, 2)

	results := processor.ProcessCandidates(context.Background(), []int64{9, 11, 15})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %d: %v", res.N, res.Error)
		}
		if res.Outcome.N != res.N {
			t.Errorf("expected outcome for %d, got %d", res.N, res.Outcome.N)
		}
	}
}

func TestBatchProcessor_ProcessCandidates_Error(t *testing.T) {
	evaluator := &MockEvaluator{ShouldError: true}
	processor := NewBatchProcessor(evaluator, 2)

	results := processor.ProcessCandidates(context.Background(), []int64{9})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].GetError() == nil {
		t.Error("expected error, got nil")
	}
}

func TestBatchProcessor_ProcessCandidates_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockEvaluator{}, 2)

	results := processor.ProcessCandidates(context.Background(), []int64{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessRange(t *testing.T) {
	evaluator := &MockEvaluator{}
	processor := NewBatchProcessor(evaluator, 4)

	var streamed int32
	processor.OnResult(func(*EvalResult) { atomic.AddInt32(&streamed, 1) })

	results := processor.ProcessRange(context.Background(), 3, 2003)
	if len(results) != 1000 {
		t.Fatalf("expected 1000 results, got %d", len(results))
	}
	if streamed != 1000 {
		t.Errorf("expected 1000 callbacks, got %d", streamed)
	}

	ns := make([]int64, len(results))
	for i, r := range results {
		ns[i] = r.N
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
	for i, n := range ns {
		if want := int64(3 + 2*i); n != want {
			t.Fatalf("expected candidate %d at %d, got %d", want, i, n)
		}
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockEvaluator{}, 2)
	results := processor.ProcessRange(ctx, 3, 1_000_001)
	if len(results) >= 500000 {
		t.Errorf("expected cancellation to stop the range early, got %d results", len(results))
	}
}

func TestReadCandidatesFromFile(t *testing.T) {
	content := `341
# carmichael numbers
561
   
1_105
561   `

	tmpfile, err := os.CreateTemp("", "candidates")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	candidates, err := ReadCandidatesFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadCandidatesFromFile failed: %v", err)
	}

	expected := []int64{341, 561, 1105}
	if len(candidates) != len(expected) {
		t.Fatalf("expected %d candidates, got %d", len(expected), len(candidates))
	}

	for i, n := range candidates {
		if n != expected[i] {
			t.Errorf("expected %d at index %d, got %d", expected[i], i, n)
		}
	}
}

func TestReadCandidatesFromFile_Invalid(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "candidates")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()
	if _, err := tmpfile.WriteString("9\nnine\n"); err != nil {
		t.Fatal(err)
	}
	_ = tmpfile.Close()

	if _, err := ReadCandidatesFromFile(tmpfile.Name()); err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestReadCandidatesFromFile_NonExistent(t *testing.T) {
	_, err := ReadCandidatesFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestEvalResult_GetError(t *testing.T) {
	r1 := &EvalResult{N: 9}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("evaluate failed")
	r2 := &EvalResult{N: 9, Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
