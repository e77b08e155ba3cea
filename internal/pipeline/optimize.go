package pipeline

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"atsmatch/internal/errors"
	"atsmatch/internal/observability"
	"atsmatch/internal/optimizer"
	"atsmatch/internal/types"
)

// Optimize rewrites the portfolio's resume for a job. The analysis comes
// from req.AnalysisID when set, otherwise from the latest stored analysis
// of the portfolio for the same job, otherwise a new analysis is run.
func (a *Analyzer) Optimize(ctx context.Context, req types.OptimizeRequest, progress ProgressFunc) (*types.OptimizationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid optimize request", err)
	}

	portfolio, err := a.resolvePortfolio(ctx, req.PortfolioID, req.Portfolio)
	if err != nil {
		return nil, err
	}

	analysis, err := a.analysisFor(ctx, req, portfolio, progress)
	if err != nil {
		return nil, err
	}

	structured := req.Structured
	if a.cfg != nil && a.cfg.Optimizer.Structured {
		structured = true
	}
	mode := types.ModeMarkdown
	if structured {
		mode = types.ModeStructured
	}

	in := optimizer.Input{
		AnalysisID:      analysis.ID,
		JobDescription:  analysis.JobDescription,
		Job:             &analysis.Job,
		Resume:          &analysis.Resume,
		Portfolio:       portfolio,
		Scores:          analysis.Scores,
		Recommendations: analysis.RecommendationSet(),
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	report(progress, ProgressOptimizing)
	var result *types.OptimizationResult
	if structured {
		result, err = a.optimizer.OptimizeStructured(ctx, in)
	} else {
		result, err = a.optimizer.Optimize(ctx, in)
	}
	a.metrics.RecordBusinessMetric(ctx, observability.MetricResumeOptimized, err == nil, attribute.String("mode", mode))
	if err != nil {
		err = timeoutError(ctx, err)
		a.logger.LogError(err, "Optimization failed", "analysis_id", analysis.ID, "mode", mode)
		return nil, err
	}

	result.ResumeID = analysis.ResumeID
	if result.ResumeID == "" {
		result.ResumeID = portfolio.ID
	}
	report(progress, ProgressSavingOptimizing)
	if err := a.store.SaveOptimization(ctx, result); err != nil {
		return nil, timeoutError(ctx, err)
	}

	a.logger.Info("Resume optimized",
		"optimization_id", result.ID,
		"analysis_id", analysis.ID,
		"mode", mode,
		"fact_check_violations", len(result.FactCheck.Violations))
	return result, nil
}

// Optimizations returns the stored rewrites of a portfolio, newest first.
func (a *Analyzer) Optimizations(ctx context.Context, resumeID string) ([]*types.OptimizationResult, error) {
	if strings.TrimSpace(resumeID) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "a resume ID is required", nil)
	}
	return a.store.ListOptimizations(ctx, resumeID)
}

// Optimization returns a stored rewrite.
func (a *Analyzer) Optimization(ctx context.Context, id string) (*types.OptimizationResult, error) {
	return a.store.GetOptimization(ctx, id)
}

// Compare pairs a stored rewrite with the analysis it was based on, so the
// baseline scores and recommendations can be shown next to the new resume.
func (a *Analyzer) Compare(ctx context.Context, optimizationID string) (*types.OptimizationComparison, error) {
	modified, err := a.store.GetOptimization(ctx, optimizationID)
	if err != nil {
		return nil, err
	}
	original, err := a.store.Get(ctx, modified.AnalysisID)
	if err != nil {
		return nil, err
	}
	return &types.OptimizationComparison{Original: original, Modified: modified}, nil
}

func (a *Analyzer) analysisFor(ctx context.Context, req types.OptimizeRequest, portfolio *types.Portfolio, progress ProgressFunc) (*types.Analysis, error) {
	if req.AnalysisID != "" {
		analysis, err := a.store.Get(ctx, req.AnalysisID)
		if err != nil {
			return nil, err
		}
		if analysis.ResumeID != "" && portfolio.ID != "" && analysis.ResumeID != portfolio.ID {
			return nil, errors.NewNotFoundError("analysis belongs to a different portfolio", nil).
				WithContext("analysis_id", analysis.ID).
				WithContext("portfolio_id", portfolio.ID)
		}
		return analysis, nil
	}

	jobDescription := strings.TrimSpace(req.JobDescription)

	if portfolio.ID != "" {
		latest, err := a.store.LatestForResume(ctx, portfolio.ID)
		switch {
		case err == nil && (jobDescription == "" || strings.TrimSpace(latest.JobDescription) == jobDescription):
			a.logger.Debug("Using latest analysis", "analysis_id", latest.ID, "portfolio_id", portfolio.ID)
			return latest, nil
		case err != nil && !errors.HasCode(err, errors.ErrCodeMissingPrerequisite):
			return nil, err
		}
	}

	if jobDescription == "" {
		return nil, errors.NewNotFoundError("no analysis available; provide an analysis ID or a job description", nil)
	}

	return a.Analyze(ctx, types.AnalyzeRequest{
		JobDescription: req.JobDescription,
		PortfolioID:    portfolio.ID,
		Portfolio:      portfolio,
	}, progress)
}
