package optimizer

import (
	"fmt"
	"strings"

	"atsmatch/internal/extraction"
	"atsmatch/internal/types"
)

// PortfolioToMarkdown renders a portfolio as a markdown resume.
func PortfolioToMarkdown(p *types.Portfolio) string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	if p.Name != "" {
		fmt.Fprintf(&b, "# %s\n\n", p.Name)
	}

	var contact []string
	if p.Email != "" {
		contact = append(contact, p.Email)
	}
	if p.Phone != "" {
		contact = append(contact, p.Phone)
	}
	if p.LinkedIn != "" {
		contact = append(contact, "LinkedIn: "+p.LinkedIn)
	}
	if p.GitHub != "" {
		contact = append(contact, "GitHub: "+p.GitHub)
	}
	if p.Website != "" {
		contact = append(contact, "Website: "+p.Website)
	}
	if len(contact) > 0 {
		b.WriteString(strings.Join(contact, " | ") + "\n\n")
	}

	if len(p.WorkExperiences) > 0 {
		b.WriteString("## Work Experience\n\n")
		for _, exp := range p.WorkExperiences {
			fmt.Fprintf(&b, "### %s at %s\n", exp.JobTitle, exp.Company)
			fmt.Fprintf(&b, "%s | %s - %s\n\n", exp.Location, extraction.MonthYear(exp.StartDate), dateOrPresent(exp.EndDate, exp.IsCurrent))
			for _, bullet := range exp.BulletPoints {
				fmt.Fprintf(&b, "- %s\n", bullet)
			}
			b.WriteString("\n")
		}
	}

	if len(p.Educations) > 0 {
		b.WriteString("## Education\n\n")
		for _, edu := range p.Educations {
			fmt.Fprintf(&b, "### %s in %s\n", edu.Degree, edu.FieldOfStudy)
			fmt.Fprintf(&b, "%s | %s - %s\n", edu.Institution, extraction.MonthYear(edu.StartDate), dateOrPresent(edu.EndDate, edu.IsCurrent))
			if edu.GPA != "" {
				fmt.Fprintf(&b, "GPA: %s\n", edu.GPA)
			}
			b.WriteString("\n")
		}
	}

	if len(p.Skills) > 0 {
		b.WriteString("## Skills\n\n")
		order, groups := p.SkillsByCategory()
		for _, category := range order {
			fmt.Fprintf(&b, "**%s**: %s\n\n", category, strings.Join(groups[category], ", "))
		}
	}

	if len(p.Projects) > 0 {
		b.WriteString("## Projects\n\n")
		for _, proj := range p.Projects {
			fmt.Fprintf(&b, "### %s\n", proj.Name)
			if proj.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", proj.Description)
			}
			if len(proj.Technologies) > 0 {
				fmt.Fprintf(&b, "**Technologies**: %s\n\n", strings.Join(proj.Technologies, ", "))
			}
			if proj.URL != "" {
				fmt.Fprintf(&b, "**Link**: %s\n\n", proj.URL)
			}
			for _, bullet := range proj.BulletPoints {
				fmt.Fprintf(&b, "- %s\n", bullet)
			}
			b.WriteString("\n")
		}
	}

	if len(p.Achievements) > 0 {
		b.WriteString("## Achievements\n\n")
		for _, ach := range p.Achievements {
			if ach.Category != "" {
				fmt.Fprintf(&b, "### %s (%s)\n", ach.Title, ach.Category)
			} else {
				fmt.Fprintf(&b, "### %s\n", ach.Title)
			}
			if ach.Date != "" {
				fmt.Fprintf(&b, "%s\n\n", extraction.MonthYear(ach.Date))
			}
			fmt.Fprintf(&b, "%s\n\n", ach.Description)
		}
	}

	return b.String()
}

func dateOrPresent(date string, current bool) string {
	if current {
		return "Present"
	}
	return extraction.MonthYear(date)
}
