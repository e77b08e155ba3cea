package extraction

import (
	"fmt"
	"strings"

	"atsmatch/internal/types"
)

// PortfolioToText renders a portfolio as the plain resume text fed to
// resume extraction.
func PortfolioToText(p *types.Portfolio) string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", orDefault(p.Name, "N/A"))
	fmt.Fprintf(&b, "Email: %s\n", p.Email)
	fmt.Fprintf(&b, "Phone: %s\n", p.Phone)
	fmt.Fprintf(&b, "LinkedIn: %s\n", p.LinkedIn)
	fmt.Fprintf(&b, "Portfolio: %s\n\n", orDefault(p.Website, p.GitHub))

	if len(p.WorkExperiences) > 0 {
		b.WriteString("WORK EXPERIENCE\n")
		for _, exp := range p.WorkExperiences {
			fmt.Fprintf(&b, "%s at %s\n", exp.JobTitle, exp.Company)
			fmt.Fprintf(&b, "Location: %s\n", orDefault(exp.Location, "N/A"))
			fmt.Fprintf(&b, "Duration: %s - %s\n", exp.StartDate, endDate(exp.EndDate, exp.IsCurrent))
			writeBullets(&b, exp.BulletPoints)
			b.WriteString("\n")
		}
	}

	if len(p.Educations) > 0 {
		b.WriteString("EDUCATION\n")
		for _, edu := range p.Educations {
			fmt.Fprintf(&b, "%s in %s\n", edu.Degree, edu.FieldOfStudy)
			fmt.Fprintf(&b, "Institution: %s\n", edu.Institution)
			fmt.Fprintf(&b, "Duration: %s - %s\n", edu.StartDate, endDate(edu.EndDate, edu.IsCurrent))
			if edu.GPA != "" {
				fmt.Fprintf(&b, "GPA: %s\n", edu.GPA)
			}
			b.WriteString("\n")
		}
	}

	if len(p.Projects) > 0 {
		b.WriteString("PROJECTS\n")
		for _, proj := range p.Projects {
			b.WriteString(proj.Name + "\n")
			if proj.Description != "" {
				b.WriteString(proj.Description + "\n")
			}
			if len(proj.Technologies) > 0 {
				fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(proj.Technologies, ", "))
			}
			if proj.URL != "" {
				fmt.Fprintf(&b, "Link: %s\n", proj.URL)
			}
			writeBullets(&b, proj.BulletPoints)
			b.WriteString("\n")
		}
	}

	if len(p.Skills) > 0 {
		b.WriteString("SKILLS\n")
		order, groups := p.SkillsByCategory()
		for _, category := range order {
			fmt.Fprintf(&b, "%s: %s\n", category, strings.Join(groups[category], ", "))
		}
		b.WriteString("\n")
	}

	if len(p.Achievements) > 0 {
		b.WriteString("ACHIEVEMENTS\n")
		for _, ach := range p.Achievements {
			fmt.Fprintf(&b, "%s: %s\n", ach.Title, ach.Description)
		}
	}

	return b.String()
}

// PortfolioWithIDs renders a portfolio with every item tagged by its ID,
// so a model can answer with ID lists.
func PortfolioWithIDs(p *types.Portfolio) string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("# Work Experience\n\n")
	for _, exp := range p.WorkExperiences {
		fmt.Fprintf(&b, "## [ID: %s] %s at %s\n", exp.ID, exp.JobTitle, exp.Company)
		fmt.Fprintf(&b, "Location: %s\n", orDefault(exp.Location, "N/A"))
		fmt.Fprintf(&b, "Duration: %s - %s\n", MonthYear(exp.StartDate), monthYearEnd(exp.EndDate, exp.IsCurrent))
		b.WriteString("Achievements:\n")
		writeBullets(&b, exp.BulletPoints)
		b.WriteString("\n")
	}

	b.WriteString("\n# Education\n\n")
	for _, edu := range p.Educations {
		fmt.Fprintf(&b, "## [ID: %s] %s in %s\n", edu.ID, edu.Degree, edu.FieldOfStudy)
		fmt.Fprintf(&b, "Institution: %s\n", edu.Institution)
		fmt.Fprintf(&b, "Duration: %s - %s\n", MonthYear(edu.StartDate), monthYearEnd(edu.EndDate, edu.IsCurrent))
		if edu.GPA != "" {
			fmt.Fprintf(&b, "GPA: %s\n", edu.GPA)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n# Projects\n\n")
	for _, proj := range p.Projects {
		fmt.Fprintf(&b, "## [ID: %s] %s\n", proj.ID, proj.Name)
		if len(proj.BulletPoints) > 0 {
			b.WriteString("Highlights:\n")
			writeBullets(&b, proj.BulletPoints)
		}
		fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(proj.Technologies, ", "))
		if proj.URL != "" {
			fmt.Fprintf(&b, "URL: %s\n", proj.URL)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n# Achievements\n\n")
	for _, ach := range p.Achievements {
		fmt.Fprintf(&b, "## [ID: %s] %s (%s)\n", ach.ID, ach.Title, orDefault(ach.Category, "General"))
		fmt.Fprintf(&b, "Description: %s\n", ach.Description)
		if ach.Date != "" {
			fmt.Fprintf(&b, "Date: %s\n", MonthYear(ach.Date))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n# Skills\n\n")
	var order []string
	byCategory := make(map[string][]types.Skill)
	for _, s := range p.Skills {
		category := orDefault(strings.TrimSpace(s.Category), "Other")
		if _, ok := byCategory[category]; !ok {
			order = append(order, category)
		}
		byCategory[category] = append(byCategory[category], s)
	}
	for _, category := range order {
		fmt.Fprintf(&b, "## %s\n", category)
		for _, s := range byCategory[category] {
			fmt.Fprintf(&b, "- [ID: %s] %s\n", s.ID, s.Name)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// MonthYear formats a YYYY-MM-DD date as "Jan 2024". Unparseable values
// are returned unchanged.
func MonthYear(date string) string {
	t, ok := types.ParseDate(date)
	if !ok {
		return date
	}
	return t.Format("Jan 2006")
}

func monthYearEnd(date string, current bool) string {
	if current || date == "" {
		return "Present"
	}
	return MonthYear(date)
}

func endDate(date string, current bool) string {
	if current {
		return "Present"
	}
	return date
}

func writeBullets(b *strings.Builder, bullets []string) {
	for _, bullet := range bullets {
		fmt.Fprintf(b, "- %s\n", bullet)
	}
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
