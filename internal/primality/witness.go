package primality

// Source supplies witnesses. *math/rand/v2.Rand satisfies it; a survey hands
// each candidate its own stream rather than sharing one across goroutines.
type Source interface {
	// Int64N returns a value in [0, n).
	Int64N(n int64) int64
}

// Tester runs single-witness, single-round Miller-Rabin tests with a
// pluggable exponentiation strategy.
type Tester struct {
	exp Exponentiator
}

// NewTester creates a tester. A nil strategy selects Iterative.
func NewTester(exp Exponentiator) *Tester {
	if exp == nil {
		exp = Iterative{}
	}
	return &Tester{exp: exp}
}

// defaultTester backs the package-level ProbablyPrime.
var defaultTester = NewTester(Iterative{})

// ProbablyPrime runs one witness test on n with the iterative strategy.
func ProbablyPrime(n int64, src Source) bool {
	return defaultTester.ProbablyPrime(n, src)
}

// ProbablyPrime draws one witness a uniformly from [1, n-1] and reports
// whether n survives the round. A true result for a composite n is a false
// positive: a was a strong liar for n.
func (t *Tester) ProbablyPrime(n int64, src Source) bool {
	if verdict, decided := shortCircuit(n); decided {
		return verdict
	}
	a := src.Int64N(n-1) + 1
	return t.round(n, a)
}

// Passes runs the round with a caller-chosen witness a in [1, n-1]. It is
// deterministic and is what Census enumerates.
func (t *Tester) Passes(n, a int64) bool {
	if verdict, decided := shortCircuit(n); decided {
		return verdict
	}
	return t.round(n, a)
}

// shortCircuit applies the edge cases in the same order as IsPrime: the
// even check first (with 2 as its only prime), then n <= 1.
func shortCircuit(n int64) (verdict, decided bool) {
	if n%2 == 0 {
		return n == 2, true
	}
	if n <= 1 {
		return false, true
	}
	return false, false
}

func (t *Tester) round(n, a int64) bool {
	m, _ := Decompose(n)

	un := uint64(n)
	negativeOne := un - 1
	mod := t.exp.ExpMod(uint64(a), uint64(m), un)

	temp := uint64(m)
	for temp != negativeOne && mod != 1 && mod != negativeOne {
		mod = mulMod(mod, mod, un)
		temp *= 2
	}

	// An even temp means at least one squaring happened without reaching -1.
	if mod != negativeOne && temp%2 == 0 {
		return false
	}
	return true
}

// Decompose factors n-1 = m * 2^s with m odd. It is recomputed on every round.
func Decompose(n int64) (m int64, s int) {
	m = n - 1
	if m <= 0 {
		return m, 0
	}
	for m%2 == 0 {
		s++
		m /= 2
	}
	return m, s
}
