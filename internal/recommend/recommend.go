// Package recommend turns the gaps between a job and a resume into
// prioritized suggestions.
package recommend

import (
	"fmt"
	"slices"
	"strings"

	"atsmatch/internal/keywords"
	"atsmatch/internal/scoring"
	"atsmatch/internal/types"
)

// Retention limits, applied after all rules have run.
const (
	MaxRecommendations  = 10
	MaxPriorityKeywords = 15
	MaxMissingSkills    = 10

	// topJobKeywords is how many leading job keywords are checked against
	// the resume keywords.
	topJobKeywords = 10
)

// Score thresholds below which a global recommendation is emitted.
const (
	KeywordMatchThreshold = 50.0
	SkillOverlapThreshold = 60.0
	ExperienceThreshold   = 50.0
)

const (
	increaseKeywordDensity = "Increase keyword density by incorporating more job-relevant terms throughout your resume"
	addMoreSkills          = "Add more required and preferred skills to better match the job requirements"
	reframeExperience      = "Reframe your work experience to better align with the job title and responsibilities"
)

// Generate diffs job requirements against the resume and the scores.
func Generate(job *types.JobRecord, resume *types.ResumeRecord, scores types.ScoreResult) types.RecommendationSet {
	set := types.RecommendationSet{
		Recommendations:  []types.Recommendation{},
		PriorityKeywords: []string{},
		MissingSkills:    []string{},
	}

	required := lowerAll(job.Qualifications.Required)
	resumeSkills := scoring.ResumeSkills(resume)
	for _, skill := range scoring.JobSkills(job) {
		if scoring.MatchesAny(skill, resumeSkills) {
			continue
		}
		priority := types.PriorityMedium
		if slices.Contains(required, skill) {
			priority = types.PriorityHigh
		}
		set.MissingSkills = append(set.MissingSkills, skill)
		set.Recommendations = append(set.Recommendations, types.Recommendation{
			Category:   types.CategorySkill,
			Suggestion: fmt.Sprintf(`Add "%s" to your skills section`, skill),
			Priority:   priority,
		})
	}

	jobKeywords := lowerAll(job.ExtractedKeywords)
	resumeKeywords := keywords.Normalize(resume.ExtractedKeywords)
	for _, kw := range jobKeywords[:min(len(jobKeywords), topJobKeywords)] {
		if kw == "" || scoring.MatchesAny(kw, resumeKeywords) {
			continue
		}
		set.PriorityKeywords = append(set.PriorityKeywords, kw)
		set.Recommendations = append(set.Recommendations, types.Recommendation{
			Category:   types.CategoryGeneral,
			Suggestion: fmt.Sprintf(`Incorporate the keyword "%s" naturally into your resume`, kw),
			Priority:   types.PriorityMedium,
		})
	}

	if scores.KeywordMatchPercent < KeywordMatchThreshold {
		set.Recommendations = append(set.Recommendations, types.Recommendation{
			Category:   types.CategoryGeneral,
			Suggestion: increaseKeywordDensity,
			Priority:   types.PriorityHigh,
		})
	}
	if scores.SkillOverlapPercent < SkillOverlapThreshold {
		set.Recommendations = append(set.Recommendations, types.Recommendation{
			Category:   types.CategorySkill,
			Suggestion: addMoreSkills,
			Priority:   types.PriorityHigh,
		})
	}
	if scores.ExperienceRelevance < ExperienceThreshold {
		set.Recommendations = append(set.Recommendations, types.Recommendation{
			Category:   types.CategoryWorkExperience,
			Suggestion: reframeExperience,
			Priority:   types.PriorityMedium,
		})
	}

	set.Recommendations = truncate(set.Recommendations, MaxRecommendations)
	set.PriorityKeywords = truncate(set.PriorityKeywords, MaxPriorityKeywords)
	set.MissingSkills = truncate(set.MissingSkills, MaxMissingSkills)
	return set
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
