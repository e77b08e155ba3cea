package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the date format used throughout portfolios and records.
const DateLayout = "2006-01-02"

// validate is shared so struct metadata is parsed once per type.
var validate = validator.New()

// Portfolio is a read-only snapshot of a candidate's stored profile.
type Portfolio struct {
	ID              string           `json:"id,omitempty"`
	Name            string           `json:"name" validate:"required"`
	Email           string           `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string           `json:"phone,omitempty"`
	LinkedIn        string           `json:"linkedin,omitempty"`
	GitHub          string           `json:"github,omitempty"`
	Website         string           `json:"website,omitempty"`
	WorkExperiences []WorkExperience `json:"workExperiences" validate:"dive"`
	Educations      []Education      `json:"educations" validate:"dive"`
	Projects        []Project        `json:"projects" validate:"dive"`
	Skills          []Skill          `json:"skills" validate:"dive"`
	Achievements    []Achievement    `json:"achievements" validate:"dive"`
}

type WorkExperience struct {
	ID           string   `json:"id"`
	JobTitle     string   `json:"jobTitle" validate:"required"`
	Company      string   `json:"company" validate:"required"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string   `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsCurrent    bool     `json:"isCurrent"`
	BulletPoints []string `json:"bulletPoints"`
}

type Education struct {
	ID           string `json:"id"`
	Institution  string `json:"institution" validate:"required"`
	Degree       string `json:"degree" validate:"required"`
	FieldOfStudy string `json:"fieldOfStudy"`
	GPA          string `json:"gpa,omitempty"`
	StartDate    string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsCurrent    bool   `json:"isCurrent"`
}

type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description,omitempty"`
	BulletPoints []string `json:"bulletPoints"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty" validate:"omitempty,url"`
	StartDate    string   `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string   `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Category string `json:"category,omitempty"`
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Validate validates the Portfolio using the validator.
func (p *Portfolio) Validate() error {
	return validate.Struct(p)
}

// SkillsByCategory groups skill names by category, keeping first-seen
// category order. Skills without a category go under "Other".
func (p *Portfolio) SkillsByCategory() ([]string, map[string][]string) {
	var order []string
	groups := make(map[string][]string)
	for _, s := range p.Skills {
		category := strings.TrimSpace(s.Category)
		if category == "" {
			category = "Other"
		}
		if _, ok := groups[category]; !ok {
			order = append(order, category)
		}
		groups[category] = append(groups[category], s.Name)
	}
	return order, groups
}

// ParseDate parses a YYYY-MM-DD date. RFC 3339 timestamps are accepted too.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}
