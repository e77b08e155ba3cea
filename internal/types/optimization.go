package types

import "time"

// Optimization output modes.
const (
	ModeMarkdown   = "markdown"
	ModeStructured = "structured"
)

type ContactInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
}

type OptimizedExperience struct {
	JobTitle     string   `json:"jobTitle"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	IsCurrent    bool     `json:"isCurrent"`
	BulletPoints []string `json:"bulletPoints"`
}

type OptimizedEducation struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	GPA          string `json:"gpa"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	IsCurrent    bool   `json:"isCurrent"`
}

type OptimizedSkill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type OptimizedProject struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	BulletPoints []string `json:"bulletPoints"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url"`
}

type OptimizedAchievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

// OptimizedResume is the structured rewrite of a resume.
type OptimizedResume struct {
	ContactInfo         ContactInfo            `json:"contactInfo"`
	ProfessionalSummary string                 `json:"professionalSummary"`
	WorkExperiences     []OptimizedExperience  `json:"workExperiences"`
	Educations          []OptimizedEducation   `json:"educations"`
	Skills              []OptimizedSkill       `json:"skills"`
	Projects            []OptimizedProject     `json:"projects"`
	Achievements        []OptimizedAchievement `json:"achievements"`
}

// Modification records one change applied during optimization.
type Modification struct {
	Section string `json:"section"`
	Change  string `json:"change"`
	Reason  string `json:"reason"`
}

// FactCheckReport lists terms in the rewrite that do not appear in the source.
type FactCheckReport struct {
	Checked    int      `json:"checked"`
	Violations []string `json:"violations"`
}

// Passed reports whether no unsupported terms were found.
func (r FactCheckReport) Passed() bool {
	return len(r.Violations) == 0
}

type OptimizationResult struct {
	ID            string           `json:"id,omitempty"`
	ResumeID      string           `json:"resumeId,omitempty"`
	AnalysisID    string           `json:"analysisId"`
	Mode          string           `json:"mode"`
	Markdown      string           `json:"markdown,omitempty"`
	Structured    *OptimizedResume `json:"structured,omitempty"`
	Scores        ScoreResult      `json:"scores"`
	Modifications []Modification   `json:"modifications"`
	FactCheck     FactCheckReport  `json:"factCheck"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// OptimizationComparison pairs a stored rewrite with the analysis it was
// produced from.
type OptimizationComparison struct {
	Original *Analysis           `json:"original"`
	Modified *OptimizationResult `json:"modified"`
}

// PortfolioSelection holds the IDs of portfolio items chosen for a job.
type PortfolioSelection struct {
	WorkExperienceIDs []string         `json:"workExperienceIds"`
	EducationIDs      []string         `json:"educationIds"`
	ProjectIDs        []string         `json:"projectIds"`
	AchievementIDs    []string         `json:"achievementIds"`
	SkillIDs          []string         `json:"skillIds"`
	Reasoning         string           `json:"reasoning,omitempty"`
	Suggestions       []Recommendation `json:"suggestions,omitempty"`
}
