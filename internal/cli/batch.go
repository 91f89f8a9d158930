package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mrsurvey/internal/model"
	"github.com/ppiankov/mrsurvey/internal/pipeline"
	"github.com/ppiankov/mrsurvey/internal/worker"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Survey an explicit list of candidates read from a file",
	Long: `Batch surveys the numbers listed in a file instead of a range:
- One number per line; blank lines and lines starting with # are skipped
- Underscores are allowed as digit separators (1_105)
- Duplicates are evaluated once
- Every number must lie in [3, 2^62)

Example:
  mrsurvey batch pseudoprimes.txt
  mrsurvey batch carmichael.txt --trials 10000 --exact --format markdown`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		keys := make(map[string]string, len(surveyFlagKeys))
		for key, name := range surveyFlagKeys {
			if cmd.Flags().Lookup(name) != nil {
				keys[key] = name
			}
		}
		return bindFlags(cmd.Flags(), keys)
	},
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addSurveyFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	candidates, err := worker.ReadCandidatesFromFile(file)
	if err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded %d candidates from %s\n", len(candidates), file)
	}

	return execute(cmd, func(ctx context.Context, p *pipeline.Pipeline) (*model.Report, error) {
		return p.RunCandidates(ctx, p.Config().Survey, candidates)
	})
}
