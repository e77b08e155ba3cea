package cli

import (
	"atsmatch/internal/common"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history (--resume-id ID | --compare OPTIMIZATION_ID)",
	Short: "List stored optimized resumes or compare one with its analysis",
	Long: `List the optimized resumes stored for a portfolio, newest first, or show one
rewrite next to the analysis it was produced from.

Only useful with a persistent store (store.backend: sqlite or postgres).`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var (
	historyConfig   common.CommandConfig
	historyResumeID string
	historyCompare  string
)

func init() {
	addOutputFlags(historyCmd, &historyConfig)
	historyCmd.Flags().StringVar(&historyResumeID, "resume-id", "", "Portfolio ID whose optimized resumes to list")
	historyCmd.Flags().StringVar(&historyCompare, "compare", "", "Optimization ID to compare with its original analysis")
	historyCmd.MarkFlagsOneRequired("resume-id", "compare")
	historyCmd.MarkFlagsMutuallyExclusive("resume-id", "compare")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	analyzer, _, cleanup, err := newAnalyzer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var result any
	if historyCompare != "" {
		logger.Info("Comparing optimized resume", "optimization_id", historyCompare)
		result, err = analyzer.Compare(cmd.Context(), historyCompare)
	} else {
		logger.Info("Listing optimized resumes", "resume_id", historyResumeID)
		result, err = analyzer.Optimizations(cmd.Context(), historyResumeID)
	}
	if err != nil {
		return err
	}

	return common.NewOutputHandler(logger).HandleOutput(result, historyConfig)
}
