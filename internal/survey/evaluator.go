package survey

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ppiankov/mrsurvey/internal/model"
	"github.com/ppiankov/mrsurvey/internal/primality"
)

// ctxCheckInterval is how many witness rounds run between context checks.
const ctxCheckInterval = 64

// Observer receives every candidate outcome as it is produced
type Observer interface {
	ObserveOutcome(o model.Outcome, elapsed time.Duration)
}

// evaluator runs the oracle once and the witness test trials times for one
// candidate. It is shared by all workers and holds no mutable state: each
// candidate gets its own random stream derived from (seed, n), so results do
// not depend on which worker evaluates which candidate.
type evaluator struct {
	tester   *primality.Tester
	trials   int
	seed     uint64
	observer Observer
}

// Evaluate implements worker.Evaluator
func (e *evaluator) Evaluate(ctx context.Context, n int64) (model.Outcome, error) {
	start := time.Now()

	out := model.Outcome{
		N:         n,
		Composite: !primality.IsPrime(n),
		Trials:    e.trials,
	}

	src := candidateSource(e.seed, n)
	for i := 0; i < e.trials; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return model.Outcome{}, err
			}
		}
		if e.tester.ProbablyPrime(n, src) {
			out.Passed++
		}
	}

	if e.observer != nil {
		e.observer.ObserveOutcome(out, time.Since(start))
	}
	return out, nil
}

// candidateSource returns the witness stream for candidate n
func candidateSource(seed uint64, n int64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(n)))
}
