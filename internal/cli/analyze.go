package cli

import (
	"context"

	"atsmatch/internal/common"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze --job FILE --portfolio FILE",
	Short: "Score a portfolio against a job description",
	Long: `Extract structured records from a job description and a portfolio, score
how well they match and list prioritized recommendations.

The scores are:
- Cosine similarity of the two documents' embeddings
- Keyword match against the job's extracted keywords
- Skill overlap with the required and preferred qualifications
- Experience relevance of past roles to the job's responsibilities

The analysis is stored so that optimize can reuse it.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var (
	analyzeConfig        common.CommandConfig
	analyzeJobFile       string
	analyzePortfolioFile string
)

func init() {
	addInputFlags(analyzeCmd, &analyzeJobFile, &analyzePortfolioFile)
	addOutputFlags(analyzeCmd, &analyzeConfig)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	analyzer, _, cleanup, err := newAnalyzer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	createInput := func(contents []string) (types.AnalyzeRequest, error) {
		portfolio, err := parsePortfolio(contents[1])
		if err != nil {
			return types.AnalyzeRequest{}, err
		}
		return types.AnalyzeRequest{JobDescription: contents[0], Portfolio: portfolio}, nil
	}

	operation := func(ctx context.Context, req types.AnalyzeRequest) (*types.Analysis, error) {
		return analyzer.Analyze(ctx, req, printProgress)
	}

	logDetails := func(req types.AnalyzeRequest, cc common.CommandConfig) {
		logger.Info("Analyzing portfolio",
			"job_file", analyzeJobFile,
			"portfolio_file", analyzePortfolioFile,
			"job_length", len(req.JobDescription),
			"format", cc.OutputFormat)
	}

	return common.RunCommand(cmd.Context(), logger, analyzeConfig,
		[]string{analyzeJobFile, analyzePortfolioFile}, createInput, operation, logDetails)
}
