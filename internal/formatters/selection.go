package formatters

import (
	"fmt"
	"strings"

	"atsmatch/internal/types"
)

// SelectionTextFormatter handles text formatting for portfolio selections
type SelectionTextFormatter struct{}

func (stf *SelectionTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.PortfolioSelection)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *PortfolioSelection, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== PORTFOLIO SELECTION ===\n\n")
	for _, group := range selectionGroups(result) {
		output.WriteString(fmt.Sprintf("%s: %s\n", group.label, joinOrNone(group.ids)))
	}
	output.WriteString("\n")

	if result.Reasoning != "" {
		output.WriteString("Reasoning:\n")
		output.WriteString(result.Reasoning)
		output.WriteString("\n\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("=== SUGGESTIONS ===\n")
		for i, s := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. [%s] %s", i+1, strings.ToUpper(s.Priority), s.Suggestion))
			if s.ItemID != "" {
				output.WriteString(fmt.Sprintf(" (item %s)", s.ItemID))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (stf *SelectionTextFormatter) SupportedType() string {
	return typeSelection
}

// SelectionMarkdownFormatter handles markdown formatting for portfolio selections
type SelectionMarkdownFormatter struct{}

func (smf *SelectionMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.PortfolioSelection)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *PortfolioSelection, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Portfolio Selection\n\n")
	for _, group := range selectionGroups(result) {
		output.WriteString(fmt.Sprintf("## %s\n\n", group.label))
		if len(group.ids) == 0 {
			output.WriteString("_None selected_\n\n")
			continue
		}
		for _, id := range group.ids {
			output.WriteString(fmt.Sprintf("- `%s`\n", id))
		}
		output.WriteString("\n")
	}

	if result.Reasoning != "" {
		output.WriteString("## Reasoning\n\n")
		output.WriteString(result.Reasoning)
		output.WriteString("\n\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for i, s := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. **%s** %s\n", i+1, strings.ToUpper(s.Priority), s.Suggestion))
		}
	}

	return output.String(), nil
}

func (smf *SelectionMarkdownFormatter) SupportedType() string {
	return typeSelection
}

type idGroup struct {
	label string
	ids   []string
}

func selectionGroups(s *types.PortfolioSelection) []idGroup {
	return []idGroup{
		{"Work Experience", s.WorkExperienceIDs},
		{"Education", s.EducationIDs},
		{"Projects", s.ProjectIDs},
		{"Achievements", s.AchievementIDs},
		{"Skills", s.SkillIDs},
	}
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}
