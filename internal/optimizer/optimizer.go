// Package optimizer rewrites a resume against a job posting using the
// scores and recommendations of a prior analysis.
package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/extraction"
	"atsmatch/internal/optimizer/factcheck"
	"atsmatch/internal/schemas"
	"atsmatch/internal/types"
	"atsmatch/internal/utils"
)

const (
	maxModifications = 5
	maxPromptTerms   = 5
)

// Input is everything an optimization needs from a prior analysis.
type Input struct {
	AnalysisID      string
	JobDescription  string
	Job             *types.JobRecord
	Resume          *types.ResumeRecord
	Portfolio       *types.Portfolio
	Scores          types.ScoreResult
	Recommendations types.RecommendationSet
}

// Optimizer produces markdown or structured resume rewrites.
type Optimizer struct {
	gen    ai.Generator
	cfg    *config.Config
	strict bool
	logger *errors.Logger
}

// New creates an Optimizer. With optimizer.strictFactCheck set, rewrites
// that mention unsupported entities fail instead of being reported.
func New(gen ai.Generator, cfg *config.Config, logger *errors.Logger) *Optimizer {
	if logger == nil {
		logger = errors.NewNop()
	}
	o := &Optimizer{gen: gen, cfg: cfg, logger: logger}
	if cfg != nil {
		o.strict = cfg.Optimizer.StrictFactCheck
	}
	return o
}

// Optimize returns a markdown rewrite of the resume.
func (o *Optimizer) Optimize(ctx context.Context, in Input) (*types.OptimizationResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	data := in.promptData(PortfolioToMarkdown(in.Portfolio))
	system, user, err := ai.RenderPrompt(o.cfg, config.PromptOptimization, data)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to render optimization prompt", err)
	}

	raw, err := o.gen.Generate(ctx, ai.Request{Operation: "optimize_markdown", System: system, Prompt: user})
	if err != nil {
		return nil, err
	}

	markdown := utils.StripCodeFences(raw)
	if markdown == "" {
		return nil, errors.NewOptimizationError("model returned an empty resume", nil)
	}

	result := &types.OptimizationResult{
		AnalysisID:    in.AnalysisID,
		Mode:          types.ModeMarkdown,
		Markdown:      markdown,
		Scores:        in.Scores,
		Modifications: Modifications(in.Recommendations.Recommendations),
	}
	return o.finish(result, markdown, in)
}

// OptimizeStructured returns a schema-validated structured rewrite.
func (o *Optimizer) OptimizeStructured(ctx context.Context, in Input) (*types.OptimizationResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	schema, err := schemas.Source(schemas.OptimizedResume)
	if err != nil {
		return nil, errors.NewInternalError("SCHEMA_UNAVAILABLE", "optimized resume schema missing", err)
	}

	data := in.promptData(PortfolioToMarkdown(in.Portfolio))
	data.Schema = schema
	system, user, err := ai.RenderPrompt(o.cfg, config.PromptStructuredOptimization, data)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to render optimization prompt", err)
	}

	raw, err := o.gen.Generate(ctx, ai.Request{Operation: "optimize_structured", System: system, Prompt: user, JSON: true})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, errors.NewOptimizationError("model returned an empty resume", nil)
	}

	structured, err := extraction.ParseStructured[types.OptimizedResume](raw, schemas.OptimizedResume)
	if err != nil {
		return nil, errors.NewOptimizationError("structured rewrite failed validation", err).
			WithContext("raw_response", raw)
	}

	result := &types.OptimizationResult{
		AnalysisID:    in.AnalysisID,
		Mode:          types.ModeStructured,
		Structured:    structured,
		Scores:        in.Scores,
		Modifications: Modifications(in.Recommendations.Recommendations),
	}
	return o.finish(result, StructuredText(structured), in)
}

func (o *Optimizer) finish(result *types.OptimizationResult, text string, in Input) (*types.OptimizationResult, error) {
	result.FactCheck = factcheck.Check(text, in.sources()...)

	if !result.FactCheck.Passed() {
		o.logger.Warn("Rewrite mentions entities missing from the source",
			"analysis_id", in.AnalysisID,
			"violations", result.FactCheck.Violations,
			"strict", o.strict)
		if o.strict {
			return nil, errors.NewOptimizationError("rewrite introduced unsupported facts", nil).
				WithContext("violations", result.FactCheck.Violations)
		}
	}
	return result, nil
}

// Modifications summarizes the first recommendations as the change log.
func Modifications(recs []types.Recommendation) []types.Modification {
	mods := make([]types.Modification, 0, min(len(recs), maxModifications))
	for _, rec := range recs[:min(len(recs), maxModifications)] {
		mods = append(mods, types.Modification{
			Section: rec.Category,
			Change:  rec.Suggestion,
			Reason:  fmt.Sprintf("To improve %s priority ATS score", rec.Priority),
		})
	}
	return mods
}

// FormatRecommendations renders recommendations as "N. [PRIORITY] text".
func FormatRecommendations(recs []types.Recommendation) string {
	lines := make([]string, 0, len(recs))
	for i, rec := range recs {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s", i+1, strings.ToUpper(rec.Priority), rec.Suggestion))
	}
	return strings.Join(lines, "\n")
}

func bulletList(items []string) string {
	items = items[:min(len(items), maxPromptTerms)]
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

func (in Input) validate() error {
	switch {
	case in.Portfolio == nil:
		return errors.NewNotFoundError("optimization requires a portfolio", nil)
	case in.Job == nil || in.Resume == nil:
		return errors.NewNotFoundError("optimization requires a completed analysis", nil)
	}
	return nil
}

func (in Input) promptData(resumeMarkdown string) ai.OptimizationPromptData {
	return ai.OptimizationPromptData{
		CosineScore:      in.Scores.CosineSimilarity,
		Recommendations:  FormatRecommendations(in.Recommendations.Recommendations),
		PriorityKeywords: bulletList(in.Recommendations.PriorityKeywords),
		MissingSkills:    bulletList(in.Recommendations.MissingSkills),
		JobDescription:   in.JobDescription,
		JobKeywords:      strings.Join(in.Job.ExtractedKeywords, ", "),
		Resume:           resumeMarkdown,
		ResumeKeywords:   strings.Join(in.Resume.ExtractedKeywords, ", "),
	}
}

// sources is the vocabulary a rewrite may draw on. Only the candidate's
// own material counts; terms that appear solely in the job posting are
// what a rewrite must not claim.
func (in Input) sources() []string {
	out := []string{PortfolioToMarkdown(in.Portfolio)}
	if resume, err := json.Marshal(in.Resume); err == nil {
		out = append(out, string(resume))
	}
	return out
}

// StructuredText flattens a structured rewrite into lines for fact checking.
func StructuredText(r *types.OptimizedResume) string {
	if r == nil {
		return ""
	}

	var lines []string
	add := func(values ...string) {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				lines = append(lines, v)
			}
		}
	}

	add(r.ProfessionalSummary)
	for _, exp := range r.WorkExperiences {
		add(exp.JobTitle, exp.Company, exp.Location)
		add(exp.BulletPoints...)
	}
	for _, edu := range r.Educations {
		add(edu.Institution, edu.Degree, edu.FieldOfStudy)
	}
	for _, s := range r.Skills {
		add(s.Name)
	}
	for _, proj := range r.Projects {
		add(proj.Name, proj.Description)
		add(proj.BulletPoints...)
		add(proj.Technologies...)
	}
	for _, ach := range r.Achievements {
		add(ach.Title, ach.Description)
	}
	return strings.Join(lines, "\n")
}
