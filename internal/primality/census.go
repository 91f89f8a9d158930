package primality

// CensusResult is the exact outcome of one round over every possible witness.
type CensusResult struct {
	N         int64   `json:"n" yaml:"n"`
	Witnesses int64   `json:"witnesses" yaml:"witnesses"`
	Liars     int64   `json:"liars" yaml:"liars"`
	Rate      float64 `json:"rate" yaml:"rate"`
}

// Census runs Passes for every witness a in [1, n-1] and counts the ones that
// report "probably prime". For a composite n, Rate is the exact probability
// that ProbablyPrime gives a false positive. Census costs n-1 rounds, so pair
// it with Squaring for anything but small n.
func (t *Tester) Census(n int64) CensusResult {
	res := CensusResult{N: n}
	if _, decided := shortCircuit(n); decided {
		return res
	}
	for a := int64(1); a < n; a++ {
		res.Witnesses++
		if t.round(n, a) {
			res.Liars++
		}
	}
	res.Rate = float64(res.Liars) / float64(res.Witnesses)
	return res
}

// Liars lists the witnesses for which n passes. It returns nil for the edge
// cases; for a prime every witness is listed.
func (t *Tester) Liars(n int64) []int64 {
	if _, decided := shortCircuit(n); decided {
		return nil
	}
	var liars []int64
	for a := int64(1); a < n; a++ {
		if t.round(n, a) {
			liars = append(liars, a)
		}
	}
	return liars
}
