package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"atsmatch/internal/errors"
	"atsmatch/internal/extraction"
	"atsmatch/internal/observability"
	"atsmatch/internal/recommend"
	"atsmatch/internal/types"
)

// Analyze extracts the job and resume, scores them, derives
// recommendations and stores the result. Extraction failures abort the
// run; embedding failures only switch scoring to the keyword fallback.
func (a *Analyzer) Analyze(ctx context.Context, req types.AnalyzeRequest, progress ProgressFunc) (*types.Analysis, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid analyze request", err)
	}

	portfolio, err := a.resolvePortfolio(ctx, req.PortfolioID, req.Portfolio)
	if err != nil {
		return nil, err
	}

	analysis, err := a.analyze(ctx, req.JobDescription, portfolio, progress)
	a.metrics.RecordBusinessMetric(ctx, observability.MetricAnalysisCompleted, err == nil)
	if err != nil {
		a.logger.LogError(err, "Analysis failed", "portfolio_id", portfolio.ID)
		return nil, err
	}

	a.metrics.RecordScore(ctx, analysis.Scores.OverallScore)
	a.logger.Info("Analysis completed",
		"analysis_id", analysis.ID,
		"overall_score", analysis.Scores.OverallScore,
		"embedding_fallback", analysis.Scores.EmbeddingFallback)
	return analysis, nil
}

func (a *Analyzer) analyze(ctx context.Context, jobDescription string, portfolio *types.Portfolio, progress ProgressFunc) (*types.Analysis, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	var (
		job    *types.JobRecord
		resume *types.ResumeRecord
	)

	report(progress, ProgressExtractJob)
	report(progress, ProgressExtractResume)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		job, err = a.extractor.ExtractJob(gctx, jobDescription)
		return err
	})
	g.Go(func() error {
		var err error
		resume, err = a.extractor.ExtractResume(gctx, extraction.PortfolioToText(portfolio))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, timeoutError(ctx, err)
	}

	report(progress, ProgressScoring)
	scores, err := a.engine.Score(ctx, job, resume)
	if err != nil {
		return nil, timeoutError(ctx, err)
	}

	report(progress, ProgressRecommending)
	recs := recommend.Generate(job, resume, scores)

	analysis := &types.Analysis{
		ResumeID:         portfolio.ID,
		JobDescription:   jobDescription,
		Job:              *job,
		Resume:           *resume,
		Scores:           scores,
		Recommendations:  recs.Recommendations,
		PriorityKeywords: recs.PriorityKeywords,
		MissingSkills:    recs.MissingSkills,
	}

	report(progress, ProgressSaving)
	if err := a.store.Save(ctx, analysis); err != nil {
		return nil, timeoutError(ctx, err)
	}
	return analysis, nil
}

// Analysis returns a stored analysis.
func (a *Analyzer) Analysis(ctx context.Context, id string) (*types.Analysis, error) {
	return a.store.Get(ctx, id)
}
