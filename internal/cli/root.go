package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"atsmatch/internal/common"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/observability"
	"atsmatch/internal/pipeline"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "atsmatch",
	Short: "Score and optimize resumes against job descriptions",
	Long: `atsmatch compares a candidate portfolio with a job description the way an
applicant tracking system would. It extracts structured records from both,
scores the match, recommends changes, rewrites the resume without inventing
facts, and picks the portfolio items that fit a job best.`,
	SilenceUsage: true,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// newAnalyzer wires observability and the pipeline for one command run.
// The returned cleanup closes both.
func newAnalyzer(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*pipeline.Analyzer, *observability.ObservabilityManager, func(), error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	analyzer, err := pipeline.Build(ctx, cfg, logger, om.GetMetrics())
	if err != nil {
		shutdownObservability(om, logger)
		return nil, nil, nil, err
	}

	cleanup := func() {
		if err := analyzer.Close(); err != nil {
			logger.LogError(err, "Failed to close pipeline")
		}
		shutdownObservability(om, logger)
	}
	return analyzer, om, cleanup, nil
}

func shutdownObservability(om *observability.ObservabilityManager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}

// addOutputFlags registers --output and --format on cmd, with completion
// and a pre-run that applies the configured default format.
func addOutputFlags(cmd *cobra.Command, cc *common.CommandConfig) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVarP(&cc.OutputFormat, "format", "f", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if cc.OutputFormat == "" {
			cc.OutputFormat = cfg.App.DefaultFormat
		}
		cc.SupportedFormats = cfg.App.SupportedFormats
		cc.MaxFileSize = cfg.App.MaxFileSize
		return common.ValidateOutputFormat(cc.OutputFormat, cc.SupportedFormats)
	}
}

// addInputFlags registers the required --job and --portfolio file flags.
func addInputFlags(cmd *cobra.Command, jobFile, portfolioFile *string) {
	cmd.Flags().StringVarP(jobFile, "job", "j", "", "Job description file (text, markdown or HTML)")
	cmd.Flags().StringVarP(portfolioFile, "portfolio", "p", "", "Portfolio JSON file")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("portfolio")
}

// parsePortfolio decodes and validates a portfolio JSON document.
func parsePortfolio(content string) (*types.Portfolio, error) {
	var p types.Portfolio
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "portfolio file is not valid JSON", err)
	}
	if err := p.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid portfolio", err)
	}
	return &p, nil
}

// printProgress writes pipeline progress to stderr so stdout stays clean.
func printProgress(message string) {
	fmt.Fprintf(os.Stderr, "==> %s\n", message)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
