package primality

import "math"

// MaxCandidate is the largest value a survey may evaluate. Every modular
// product is formed in 128 bits, so the bound only keeps the odd-step
// iteration and the doubling of the exponent clear of int64 limits.
const MaxCandidate int64 = 1 << 62

// IsPrime reports whether n is prime by trial division up to the integer
// square root of n. It is the ground truth the witness test is measured
// against.
func IsPrime(n int64) bool {
	if n%2 == 0 {
		return n == 2
	}
	if n <= 1 {
		return false
	}

	boundary := isqrt(n)
	for d := int64(3); d <= boundary; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// isqrt returns floor(sqrt(n)) for n >= 0. The float estimate is off by one
// for large n, so it is nudged until r*r <= n < (r+1)*(r+1).
func isqrt(n int64) int64 {
	r := int64(math.Sqrt(float64(n)))
	for r > 0 && r > n/r {
		r--
	}
	for (r + 1) <= n/(r+1) {
		r++
	}
	return r
}
