// Demo program for the exact liar census on well-known pseudoprimes.
// This shows which composites fool a single Miller-Rabin round most often.
package main

import (
	"fmt"
	"strings"

	"github.com/ppiankov/mrsurvey/internal/primality"
	"github.com/ppiankov/mrsurvey/internal/score"
)

func main() {
	fmt.Println("=== Miller-Rabin Liar Census ===")
	fmt.Println()

	// Carmichael numbers and strong base-2 pseudoprimes
	testNumbers := []int64{
		561,   // 3 * 11 * 17, smallest Carmichael number
		1105,  // 5 * 13 * 17
		1729,  // 7 * 13 * 19
		2047,  // 23 * 89, smallest strong base-2 pseudoprime
		3277,  // 29 * 113
		8321,  // 53 * 157
		65281, // 97 * 673
	}

	tester := primality.NewTester(primality.Squaring{})

	for _, n := range testNumbers {
		fmt.Printf("Testing: %d\n", n)
		fmt.Println(strings.Repeat("-", 60))

		if primality.IsPrime(n) {
			fmt.Println("  ✗ Oracle says prime, skipping")
			fmt.Println()
			continue
		}

		census := tester.Census(n)
		m, s := primality.Decompose(n)
		fmt.Printf("  n-1 = %d * 2^%d\n", m, s)
		fmt.Printf("  Liars: %d of %d witnesses\n", census.Liars, census.Witnesses)
		fmt.Printf("  Exact single-round error rate: %.6f\n", census.Rate)

		if census.Rate > score.RabinBound {
			fmt.Printf("  ⚠️  ABOVE THE 1/4 BOUND\n")
		} else {
			fmt.Printf("  ✓ Within the 1/4 bound (%.1f%% of it)\n", 100*census.Rate/score.RabinBound)
		}

		if tester.Passes(n, 2) {
			fmt.Println("  Base 2 is a liar")
		}
		fmt.Println()
	}

	fmt.Println("=== Census Complete ===")
	fmt.Println("\nNote: 1 and n-1 are always liars, so every odd composite has at least two.")
}
