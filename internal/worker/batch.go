package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/mrsurvey/internal/model"
)

// Evaluator defines the interface for evaluating one candidate
type Evaluator interface {
	Evaluate(ctx context.Context, n int64) (model.Outcome, error)
}

// EvalJob represents a candidate evaluation job
type EvalJob struct {
	N         int64
	Evaluator Evaluator
}

// Execute executes the evaluation job
func (j *EvalJob) Execute(ctx context.Context) Result {
	outcome, err := j.Evaluator.Evaluate(ctx, j.N)
	if err != nil {
		return &EvalResult{
			N:     j.N,
			Error: err,
		}
	}
	return &EvalResult{
		N:       j.N,
		Outcome: outcome,
	}
}

// EvalResult represents the result of an evaluation job
type EvalResult struct {
	N       int64
	Outcome model.Outcome
	Error   error
}

// GetError returns the error from the evaluation result
func (r *EvalResult) GetError() error {
	return r.Error
}

// BatchProcessor evaluates many candidates concurrently
type BatchProcessor struct {
	evaluator   Evaluator
	concurrency int
	onResult    func(*EvalResult)
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(evaluator Evaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// OnResult registers a callback run for each result as it arrives, from the
// collecting goroutine.
func (b *BatchProcessor) OnResult(fn func(*EvalResult)) {
	b.onResult = fn
}

// ProcessRange evaluates every odd n in [start, end). start must be odd.
func (b *BatchProcessor) ProcessRange(ctx context.Context, start, end int64) []*EvalResult {
	return b.process(ctx, func(submit func(int64) bool) {
		for n := start; n < end; n += 2 {
			if !submit(n) {
				return
			}
		}
	})
}

// ProcessCandidates evaluates the given candidates concurrently
func (b *BatchProcessor) ProcessCandidates(ctx context.Context, candidates []int64) []*EvalResult {
	if len(candidates) == 0 {
		return []*EvalResult{}
	}
	return b.process(ctx, func(submit func(int64) bool) {
		for _, n := range candidates {
			if !submit(n) {
				return
			}
		}
	})
}

func (b *BatchProcessor) process(ctx context.Context, feed func(submit func(int64) bool)) []*EvalResult {
	// Create worker pool
	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submit jobs
	go func() {
		defer pool.Close()
		feed(func(n int64) bool {
			return pool.Submit(&EvalJob{N: n, Evaluator: b.evaluator})
		})
	}()

	// Wait for all jobs to complete
	results := pool.Drain(func(r Result) {
		if b.onResult != nil {
			b.onResult(r.(*EvalResult))
		}
	})

	// Convert to EvalResults
	evalResults := make([]*EvalResult, len(results))
	for i, result := range results {
		evalResults[i] = result.(*EvalResult)
	}

	return evalResults
}

// ReadCandidatesFromFile reads integers from a file (one per line). Blank
// lines and # comments are skipped and duplicates dropped.
func ReadCandidatesFromFile(filePath string) ([]int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var candidates []int64
	seen := make(map[int64]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		n, err := strconv.ParseInt(strings.ReplaceAll(line, "_", ""), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		// Deduplicate candidates
		if !seen[n] {
			seen[n] = true
			candidates = append(candidates, n)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return candidates, nil
}
