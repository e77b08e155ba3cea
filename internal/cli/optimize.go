package cli

import (
	"context"

	"atsmatch/internal/common"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize --job FILE --portfolio FILE",
	Short: "Rewrite a resume to fit a job without inventing facts",
	Long: `Rewrite the portfolio's resume for a job description using the scores and
recommendations of an analysis. The analysis is taken from --analysis-id when
given, otherwise the latest stored analysis of the portfolio for the same job
is reused, otherwise a new analysis runs first.

Every company, technology and proper noun in the rewrite is checked against
the portfolio. Unsupported terms are reported as fact check violations.

Use --structured to get a JSON resume instead of markdown.`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

var (
	optimizeConfig        common.CommandConfig
	optimizeJobFile       string
	optimizePortfolioFile string
	optimizeAnalysisID    string
	optimizeStructured    bool
)

func init() {
	addInputFlags(optimizeCmd, &optimizeJobFile, &optimizePortfolioFile)
	addOutputFlags(optimizeCmd, &optimizeConfig)
	optimizeCmd.Flags().BoolVar(&optimizeStructured, "structured", false, "Produce a structured JSON resume instead of markdown")
	optimizeCmd.Flags().StringVar(&optimizeAnalysisID, "analysis-id", "", "Reuse a stored analysis instead of analyzing again")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	analyzer, _, cleanup, err := newAnalyzer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	createInput := func(contents []string) (types.OptimizeRequest, error) {
		portfolio, err := parsePortfolio(contents[1])
		if err != nil {
			return types.OptimizeRequest{}, err
		}
		return types.OptimizeRequest{
			AnalysisID:     optimizeAnalysisID,
			JobDescription: contents[0],
			Portfolio:      portfolio,
			Structured:     optimizeStructured,
		}, nil
	}

	operation := func(ctx context.Context, req types.OptimizeRequest) (*types.OptimizationResult, error) {
		return analyzer.Optimize(ctx, req, printProgress)
	}

	logDetails := func(req types.OptimizeRequest, cc common.CommandConfig) {
		logger.Info("Optimizing resume",
			"job_file", optimizeJobFile,
			"portfolio_file", optimizePortfolioFile,
			"analysis_id", req.AnalysisID,
			"structured", req.Structured,
			"format", cc.OutputFormat)
	}

	return common.RunCommand(cmd.Context(), logger, optimizeConfig,
		[]string{optimizeJobFile, optimizePortfolioFile}, createInput, operation, logDetails)
}
