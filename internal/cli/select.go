package cli

import (
	"context"

	"atsmatch/internal/common"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select --job FILE --portfolio FILE",
	Short: "Pick the portfolio items that fit a job best",
	Long: `Ask the model which work experiences, education entries, projects,
achievements and skills of the portfolio are relevant to a job description.
Only IDs present in the portfolio are returned.

With --suggestions, improvement suggestions for the selected items are added.`,
	Args: cobra.NoArgs,
	RunE: runSelect,
}

var (
	selectConfig        common.CommandConfig
	selectJobFile       string
	selectPortfolioFile string
	selectSuggestions   bool
)

func init() {
	addInputFlags(selectCmd, &selectJobFile, &selectPortfolioFile)
	addOutputFlags(selectCmd, &selectConfig)
	selectCmd.Flags().BoolVar(&selectSuggestions, "suggestions", false, "Also suggest improvements for the selected items")
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	analyzer, _, cleanup, err := newAnalyzer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	createInput := func(contents []string) (types.SelectRequest, error) {
		portfolio, err := parsePortfolio(contents[1])
		if err != nil {
			return types.SelectRequest{}, err
		}
		return types.SelectRequest{
			JobDescription:  contents[0],
			Portfolio:       portfolio,
			WithSuggestions: selectSuggestions,
		}, nil
	}

	operation := func(ctx context.Context, req types.SelectRequest) (*types.PortfolioSelection, error) {
		return analyzer.Select(ctx, req)
	}

	logDetails := func(req types.SelectRequest, cc common.CommandConfig) {
		logger.Info("Selecting portfolio items",
			"job_file", selectJobFile,
			"portfolio_file", selectPortfolioFile,
			"suggestions", req.WithSuggestions,
			"format", cc.OutputFormat)
	}

	return common.RunCommand(cmd.Context(), logger, selectConfig,
		[]string{selectJobFile, selectPortfolioFile}, createInput, operation, logDetails)
}
