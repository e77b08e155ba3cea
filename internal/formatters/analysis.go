package formatters

import (
	"fmt"
	"strings"

	"atsmatch/internal/types"
)

// AnalysisTextFormatter handles text formatting for analyses
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.Analysis)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *Analysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Analysis ID: %s\n", result.ID))
	if result.Job.JobTitle != "" {
		output.WriteString(fmt.Sprintf("Job: %s\n", jobHeading(&result.Job)))
	}
	output.WriteString("\n")

	output.WriteString("=== SCORES ===\n")
	writeScoresText(&output, result.Scores)
	output.WriteString("\n")

	if len(result.MissingSkills) > 0 {
		output.WriteString("Missing Skills:\n")
		for _, skill := range result.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	if len(result.PriorityKeywords) > 0 {
		output.WriteString("Priority Keywords:\n")
		for _, kw := range result.PriorityKeywords {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if len(result.Recommendations) > 0 {
		output.WriteString("=== RECOMMENDATIONS ===\n")
		for i, rec := range result.Recommendations {
			output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, strings.ToUpper(rec.Priority), rec.Suggestion))
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return typeAnalysis
}

// AnalysisMarkdownFormatter handles markdown formatting for analyses
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.Analysis)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *Analysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Analysis\n\n")
	if result.Job.JobTitle != "" {
		output.WriteString(fmt.Sprintf("**Job:** %s\n\n", jobHeading(&result.Job)))
	}
	output.WriteString(fmt.Sprintf("**Analysis ID:** `%s`\n\n", result.ID))

	output.WriteString("## Scores\n\n")
	writeScoresMarkdown(&output, result.Scores)
	output.WriteString("\n")

	if len(result.MissingSkills) > 0 {
		output.WriteString("## Missing Skills\n\n")
		for _, skill := range result.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	if len(result.PriorityKeywords) > 0 {
		output.WriteString("## Priority Keywords\n\n")
		for _, kw := range result.PriorityKeywords {
			output.WriteString(fmt.Sprintf("- `%s`\n", kw))
		}
		output.WriteString("\n")
	}

	if len(result.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for i, rec := range result.Recommendations {
			output.WriteString(fmt.Sprintf("%d. **%s** %s\n", i+1, strings.ToUpper(rec.Priority), rec.Suggestion))
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return typeAnalysis
}

func jobHeading(job *types.JobRecord) string {
	if job.CompanyProfile.CompanyName == "" {
		return job.JobTitle
	}
	return fmt.Sprintf("%s at %s", job.JobTitle, job.CompanyProfile.CompanyName)
}

func writeScoresText(output *strings.Builder, s types.ScoreResult) {
	output.WriteString(fmt.Sprintf("Overall Score: %.1f/100\n", s.OverallScore))
	output.WriteString(fmt.Sprintf("Cosine Similarity: %.4f", s.CosineSimilarity))
	if s.EmbeddingFallback {
		output.WriteString(" (keyword fallback)")
	}
	output.WriteString("\n")
	output.WriteString(fmt.Sprintf("Keyword Match: %.1f%%\n", s.KeywordMatchPercent))
	output.WriteString(fmt.Sprintf("Skill Overlap: %.1f%%\n", s.SkillOverlapPercent))
	output.WriteString(fmt.Sprintf("Experience Relevance: %.1f%%\n", s.ExperienceRelevance))
}

func writeScoresMarkdown(output *strings.Builder, s types.ScoreResult) {
	output.WriteString("| Metric | Value |\n")
	output.WriteString("|--------|-------|\n")
	output.WriteString(fmt.Sprintf("| Overall Score | %.1f/100 |\n", s.OverallScore))
	cosine := fmt.Sprintf("%.4f", s.CosineSimilarity)
	if s.EmbeddingFallback {
		cosine += " (keyword fallback)"
	}
	output.WriteString(fmt.Sprintf("| Cosine Similarity | %s |\n", cosine))
	output.WriteString(fmt.Sprintf("| Keyword Match | %.1f%% |\n", s.KeywordMatchPercent))
	output.WriteString(fmt.Sprintf("| Skill Overlap | %.1f%% |\n", s.SkillOverlapPercent))
	output.WriteString(fmt.Sprintf("| Experience Relevance | %.1f%% |\n", s.ExperienceRelevance))
}
