// Package primality holds the two primality tests the survey compares: a
// deterministic trial-division oracle and a single-witness, single-round
// Miller-Rabin test whose false positives are being measured.
//
// All modular products are formed in 128 bits, so any candidate below
// MaxCandidate is evaluated without overflow.
package primality
