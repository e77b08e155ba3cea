package formatters

import (
	"fmt"
	"strings"

	"atsmatch/internal/types"
)

const dateTimeLayout = "2006-01-02 15:04"

// HistoryTextFormatter lists stored rewrites of a portfolio.
type HistoryTextFormatter struct{}

func (htf *HistoryTextFormatter) Format(data any) (string, error) {
	history, ok := data.([]*types.OptimizationResult)
	if !ok {
		return "", fmt.Errorf("expected []*OptimizationResult, got %T", data)
	}
	if len(history) == 0 {
		return "No optimized resumes stored.\n", nil
	}

	var output strings.Builder
	output.WriteString("=== OPTIMIZED RESUMES ===\n")
	for i, r := range history {
		output.WriteString(fmt.Sprintf("%d. %s  %s  %s  score %.1f  violations %d\n",
			i+1, r.ID, r.CreatedAt.Format(dateTimeLayout), r.Mode,
			r.Scores.OverallScore, len(r.FactCheck.Violations)))
	}
	return output.String(), nil
}

func (htf *HistoryTextFormatter) SupportedType() string {
	return typeHistory
}

// HistoryMarkdownFormatter renders stored rewrites as a table.
type HistoryMarkdownFormatter struct{}

func (hmf *HistoryMarkdownFormatter) Format(data any) (string, error) {
	history, ok := data.([]*types.OptimizationResult)
	if !ok {
		return "", fmt.Errorf("expected []*OptimizationResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Optimized Resumes\n\n")
	if len(history) == 0 {
		output.WriteString("_None stored._\n")
		return output.String(), nil
	}
	output.WriteString("| ID | Created | Mode | Score | Analysis | Fact Check |\n")
	output.WriteString("|----|---------|------|-------|----------|------------|\n")
	for _, r := range history {
		check := "passed"
		if !r.FactCheck.Passed() {
			check = fmt.Sprintf("%d violations", len(r.FactCheck.Violations))
		}
		output.WriteString(fmt.Sprintf("| `%s` | %s | %s | %.1f | `%s` | %s |\n",
			r.ID, r.CreatedAt.Format(dateTimeLayout), r.Mode, r.Scores.OverallScore, r.AnalysisID, check))
	}
	return output.String(), nil
}

func (hmf *HistoryMarkdownFormatter) SupportedType() string {
	return typeHistory
}

// ComparisonTextFormatter shows the baseline analysis next to a rewrite.
type ComparisonTextFormatter struct{}

func (ctf *ComparisonTextFormatter) Format(data any) (string, error) {
	cmp, ok := data.(*types.OptimizationComparison)
	if !ok || cmp == nil || cmp.Original == nil || cmp.Modified == nil {
		return "", fmt.Errorf("expected a complete *OptimizationComparison, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== ORIGINAL ANALYSIS ===\n")
	output.WriteString(fmt.Sprintf("Analysis: %s (%s)\n", cmp.Original.ID, cmp.Original.CreatedAt.Format(dateTimeLayout)))
	writeScoresText(&output, cmp.Original.Scores)
	if len(cmp.Original.MissingSkills) > 0 {
		output.WriteString(fmt.Sprintf("Missing Skills: %s\n", strings.Join(cmp.Original.MissingSkills, ", ")))
	}

	output.WriteString("\n=== OPTIMIZED RESUME ===\n")
	output.WriteString(fmt.Sprintf("Optimization: %s (%s, %s)\n", cmp.Modified.ID, cmp.Modified.Mode, cmp.Modified.CreatedAt.Format(dateTimeLayout)))
	output.WriteString(fmt.Sprintf("ATS Score: %.1f/100\n", cmp.Modified.Scores.OverallScore))
	for i, mod := range cmp.Modified.Modifications {
		output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, mod.Section, mod.Change))
	}
	output.WriteString("\n")
	output.WriteString(resumeBody(cmp.Modified))
	output.WriteString("\n")
	return output.String(), nil
}

func (ctf *ComparisonTextFormatter) SupportedType() string {
	return typeComparison
}

// ComparisonMarkdownFormatter renders a comparison as markdown sections.
type ComparisonMarkdownFormatter struct{}

func (cmf *ComparisonMarkdownFormatter) Format(data any) (string, error) {
	cmp, ok := data.(*types.OptimizationComparison)
	if !ok || cmp == nil || cmp.Original == nil || cmp.Modified == nil {
		return "", fmt.Errorf("expected a complete *OptimizationComparison, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resume Comparison\n\n")
	output.WriteString(fmt.Sprintf("## Original Analysis `%s`\n\n", cmp.Original.ID))
	writeScoresMarkdown(&output, cmp.Original.Scores)
	output.WriteString(fmt.Sprintf("\n## Optimized Resume `%s`\n\n", cmp.Modified.ID))
	output.WriteString(fmt.Sprintf("ATS score: **%.1f/100**\n\n", cmp.Modified.Scores.OverallScore))
	output.WriteString(resumeBody(cmp.Modified))
	output.WriteString("\n")
	return output.String(), nil
}

func (cmf *ComparisonMarkdownFormatter) SupportedType() string {
	return typeComparison
}
