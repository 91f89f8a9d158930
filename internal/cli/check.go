package cli

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mrsurvey/internal/model"
	"github.com/ppiankov/mrsurvey/internal/primality"
	"github.com/ppiankov/mrsurvey/internal/score"
)

var (
	checkTrials      int
	checkSeed        uint64
	checkStrategy    string
	checkCensusLimit int64
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <n>",
	Short: "Examine a single number",
	Long: `Check prints, for one number:
- The trial-division oracle verdict
- The decomposition n-1 = m * 2^s used by the witness test
- The empirical false-positive rate over --trials random witnesses
- The exact liar count over every witness in [1, n-1] (for n up to --census-limit)

Example:
  mrsurvey check 2047
  mrsurvey check 1105 --trials 100000 --seed 1`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVar(&checkTrials, "trials", 1000, "witness tests to run")
	checkCmd.Flags().Uint64Var(&checkSeed, "seed", 0, "random seed (0 = draw one)")
	checkCmd.Flags().StringVar(&checkStrategy, "strategy", primality.StrategyIterative, "modular exponentiation strategy (iterative, squaring)")
	checkCmd.Flags().Int64Var(&checkCensusLimit, "census-limit", 10_000_000, "largest n for which every witness is enumerated")
}

func runCheck(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseInt(strings.ReplaceAll(args[0], "_", ""), 10, 64)
	if err != nil {
		return fmt.Errorf("parse %q: %w", args[0], err)
	}
	if n < 3 || n >= primality.MaxCandidate {
		return fmt.Errorf("%w: %d outside [3, %d)", model.ErrInvalidRange, n, primality.MaxCandidate)
	}
	if checkTrials <= 0 {
		return fmt.Errorf("%w: %d", model.ErrInvalidTrialCount, checkTrials)
	}

	exp, err := primality.StrategyByName(checkStrategy)
	if err != nil {
		return err
	}
	tester := primality.NewTester(exp)

	seed := checkSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	src := rand.New(rand.NewPCG(seed, uint64(n)))

	passed := 0
	for i := 0; i < checkTrials; i++ {
		if tester.ProbablyPrime(n, src) {
			passed++
		}
	}

	prime := primality.IsPrime(n)
	verdict := "composite"
	if prime {
		verdict = "prime"
	}

	fmt.Printf("n:          %d\n", n)
	fmt.Printf("oracle:     %s\n", verdict)
	if n%2 == 1 {
		m, s := primality.Decompose(n)
		fmt.Printf("n-1:        %d * 2^%d\n", m, s)
	}

	lower, upper := score.Wilson(passed, checkTrials, score.ZScore(0.95))
	fmt.Printf("trials:     %d (seed %d, %s)\n", checkTrials, seed, checkStrategy)
	fmt.Printf("passed:     %d\n", passed)
	fmt.Printf("rate:       %s  95%% [%.4f, %.4f]\n", strconv.FormatFloat(float64(passed)/float64(checkTrials), 'f', -1, 64), lower, upper)

	if n > checkCensusLimit {
		fmt.Printf("census:     skipped (n > %d)\n", checkCensusLimit)
		return nil
	}

	// both strategies agree, and a census is n-1 rounds
	censusTester := primality.NewTester(primality.Squaring{})
	census := censusTester.Census(n)
	fmt.Printf("liars:      %d of %d witnesses\n", census.Liars, census.Witnesses)
	fmt.Printf("exact rate: %s\n", strconv.FormatFloat(census.Rate, 'f', -1, 64))
	if !prime && census.Liars > 0 && census.Liars <= 16 {
		liars := censusTester.Liars(n)
		parts := make([]string, len(liars))
		for i, a := range liars {
			parts[i] = strconv.FormatInt(a, 10)
		}
		fmt.Printf("witnesses:  %s\n", strings.Join(parts, ", "))
	}
	return nil
}
