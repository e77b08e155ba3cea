package formatters

import (
	"fmt"
	"strings"

	"atsmatch/internal/types"
)

// OptimizationTextFormatter handles text formatting for optimization results
type OptimizationTextFormatter struct{}

func (otf *OptimizationTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.OptimizationResult)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *OptimizationResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== OPTIMIZED RESUME ===\n\n")
	output.WriteString(resumeBody(result))
	output.WriteString("\n\n")

	output.WriteString("=== BASELINE SCORES ===\n")
	writeScoresText(&output, result.Scores)
	output.WriteString("\n")

	if len(result.Modifications) > 0 {
		output.WriteString("=== MODIFICATIONS ===\n")
		for i, mod := range result.Modifications {
			output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, mod.Section, mod.Change))
			output.WriteString(fmt.Sprintf("   Reason: %s\n", mod.Reason))
		}
		output.WriteString("\n")
	}

	output.WriteString("=== FACT CHECK ===\n")
	if result.FactCheck.Passed() {
		output.WriteString(fmt.Sprintf("Passed (%d terms checked)\n", result.FactCheck.Checked))
	} else {
		output.WriteString("Terms not found in the original resume:\n")
		for _, v := range result.FactCheck.Violations {
			output.WriteString(fmt.Sprintf("- %s\n", v))
		}
	}

	return output.String(), nil
}

func (otf *OptimizationTextFormatter) SupportedType() string {
	return typeOptimization
}

// OptimizationMarkdownFormatter handles markdown formatting for optimization results
type OptimizationMarkdownFormatter struct{}

func (omf *OptimizationMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.OptimizationResult)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *OptimizationResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString(resumeBody(result))
	output.WriteString("\n\n---\n\n")

	output.WriteString("## Baseline Scores\n\n")
	writeScoresMarkdown(&output, result.Scores)
	output.WriteString("\n")

	if len(result.Modifications) > 0 {
		output.WriteString("## Modifications\n\n")
		for _, mod := range result.Modifications {
			output.WriteString(fmt.Sprintf("- **%s**: %s _(%s)_\n", mod.Section, mod.Change, mod.Reason))
		}
		output.WriteString("\n")
	}

	output.WriteString("## Fact Check\n\n")
	if result.FactCheck.Passed() {
		output.WriteString(fmt.Sprintf("Passed, %d terms checked.\n", result.FactCheck.Checked))
	} else {
		output.WriteString("Terms not found in the original resume:\n\n")
		for _, v := range result.FactCheck.Violations {
			output.WriteString(fmt.Sprintf("- `%s`\n", v))
		}
	}

	return output.String(), nil
}

func (omf *OptimizationMarkdownFormatter) SupportedType() string {
	return typeOptimization
}

// resumeBody returns the markdown rewrite, or renders the structured one.
func resumeBody(result *types.OptimizationResult) string {
	if result.Structured == nil {
		return result.Markdown
	}
	r := result.Structured

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# %s\n", r.ContactInfo.Name))
	var contact []string
	for _, v := range []string{r.ContactInfo.Email, r.ContactInfo.Phone, r.ContactInfo.LinkedIn, r.ContactInfo.GitHub, r.ContactInfo.Website} {
		if v != "" {
			contact = append(contact, v)
		}
	}
	if len(contact) > 0 {
		output.WriteString(strings.Join(contact, " | "))
		output.WriteString("\n")
	}

	if r.ProfessionalSummary != "" {
		output.WriteString("\n## Summary\n\n")
		output.WriteString(r.ProfessionalSummary)
		output.WriteString("\n")
	}

	if len(r.WorkExperiences) > 0 {
		output.WriteString("\n## Work Experience\n")
		for _, exp := range r.WorkExperiences {
			output.WriteString(fmt.Sprintf("\n### %s at %s\n", exp.JobTitle, exp.Company))
			end := exp.EndDate
			if exp.IsCurrent || end == "" {
				end = "Present"
			}
			if exp.StartDate != "" {
				output.WriteString(fmt.Sprintf("%s - %s\n", exp.StartDate, end))
			}
			for _, b := range exp.BulletPoints {
				output.WriteString(fmt.Sprintf("- %s\n", b))
			}
		}
	}

	if len(r.Educations) > 0 {
		output.WriteString("\n## Education\n")
		for _, edu := range r.Educations {
			line := edu.Degree
			if edu.FieldOfStudy != "" {
				line += " in " + edu.FieldOfStudy
			}
			output.WriteString(fmt.Sprintf("\n### %s, %s\n", line, edu.Institution))
		}
	}

	if len(r.Skills) > 0 {
		names := make([]string, 0, len(r.Skills))
		for _, s := range r.Skills {
			names = append(names, s.Name)
		}
		output.WriteString("\n## Skills\n\n")
		output.WriteString(strings.Join(names, ", "))
		output.WriteString("\n")
	}

	if len(r.Projects) > 0 {
		output.WriteString("\n## Projects\n")
		for _, p := range r.Projects {
			output.WriteString(fmt.Sprintf("\n### %s\n", p.Name))
			if p.Description != "" {
				output.WriteString(p.Description + "\n")
			}
			for _, b := range p.BulletPoints {
				output.WriteString(fmt.Sprintf("- %s\n", b))
			}
		}
	}

	if len(r.Achievements) > 0 {
		output.WriteString("\n## Achievements\n\n")
		for _, a := range r.Achievements {
			if a.Description != "" {
				output.WriteString(fmt.Sprintf("- **%s**: %s\n", a.Title, a.Description))
			} else {
				output.WriteString(fmt.Sprintf("- **%s**\n", a.Title))
			}
		}
	}

	return strings.TrimRight(output.String(), "\n")
}
