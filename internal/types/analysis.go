package types

import (
	"time"
)

// ScoreResult holds the four sub-metrics and the fused score.
type ScoreResult struct {
	CosineSimilarity    float64 `json:"cosineSimilarity"`
	KeywordMatchPercent float64 `json:"keywordMatchPercent"`
	SkillOverlapPercent float64 `json:"skillOverlapPercent"`
	ExperienceRelevance float64 `json:"experienceRelevance"`
	OverallScore        float64 `json:"overallScore"`
	// EmbeddingFallback is set when cosine similarity was approximated
	// from the keyword match.
	EmbeddingFallback bool `json:"embeddingFallback,omitempty"`
}

// Recommendation categories.
const (
	CategorySkill          = "skill"
	CategoryGeneral        = "general"
	CategoryWorkExperience = "work_experience"
	CategoryEducation      = "education"
	CategoryProject        = "project"
	CategoryAchievement    = "achievement"
)

// Recommendation priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

type Recommendation struct {
	Category   string `json:"category" validate:"oneof=skill general work_experience education project achievement"`
	ItemID     string `json:"itemId,omitempty"`
	Suggestion string `json:"suggestion" validate:"required"`
	Priority   string `json:"priority" validate:"oneof=high medium low"`
}

// RecommendationSet is the output of the recommendation generator.
type RecommendationSet struct {
	Recommendations  []Recommendation `json:"recommendations"`
	PriorityKeywords []string         `json:"priorityKeywords"`
	MissingSkills    []string         `json:"missingSkills"`
}

// Analysis is the persisted result of one scoring run. ResumeID is the
// portfolio the resume was built from, empty for inline portfolios.
type Analysis struct {
	ID               string           `json:"id"`
	ResumeID         string           `json:"resumeId,omitempty"`
	JobDescription   string           `json:"jobDescription"`
	Job              JobRecord        `json:"job"`
	Resume           ResumeRecord     `json:"resume"`
	Scores           ScoreResult      `json:"scores"`
	Recommendations  []Recommendation `json:"recommendations"`
	PriorityKeywords []string         `json:"priorityKeywords"`
	MissingSkills    []string         `json:"missingSkills"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// RecommendationSet regroups the analysis recommendations.
func (a *Analysis) RecommendationSet() RecommendationSet {
	return RecommendationSet{
		Recommendations:  a.Recommendations,
		PriorityKeywords: a.PriorityKeywords,
		MissingSkills:    a.MissingSkills,
	}
}

// AnalyzeRequest asks for a job/portfolio analysis. Either PortfolioID or an
// inline Portfolio must be given.
type AnalyzeRequest struct {
	JobDescription string     `json:"jobDescription" validate:"required"`
	PortfolioID    string     `json:"portfolioId,omitempty" validate:"required_without=Portfolio"`
	Portfolio      *Portfolio `json:"portfolio,omitempty" validate:"required_without=PortfolioID"`
}

// Validate validates the AnalyzeRequest using the validator.
func (r *AnalyzeRequest) Validate() error {
	return validate.Struct(r)
}

// OptimizeRequest asks for a rewrite. When AnalysisID is empty the latest
// analysis for the portfolio is used, or a fresh one is computed.
type OptimizeRequest struct {
	AnalysisID     string     `json:"analysisId,omitempty" validate:"omitempty,uuid"`
	JobDescription string     `json:"jobDescription,omitempty"`
	PortfolioID    string     `json:"portfolioId,omitempty" validate:"required_without=Portfolio"`
	Portfolio      *Portfolio `json:"portfolio,omitempty" validate:"required_without=PortfolioID"`
	Structured     bool       `json:"structured,omitempty"`
}

// Validate validates the OptimizeRequest using the validator.
func (r *OptimizeRequest) Validate() error {
	return validate.Struct(r)
}

// SelectRequest asks which portfolio items best fit a job.
type SelectRequest struct {
	JobDescription  string     `json:"jobDescription" validate:"required"`
	PortfolioID     string     `json:"portfolioId,omitempty" validate:"required_without=Portfolio"`
	Portfolio       *Portfolio `json:"portfolio,omitempty" validate:"required_without=PortfolioID"`
	WithSuggestions bool       `json:"withSuggestions,omitempty"`
}

// Validate validates the SelectRequest using the validator.
func (r *SelectRequest) Validate() error {
	return validate.Struct(r)
}
