// Package scoring computes how well a resume fits a job posting.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"atsmatch/internal/keywords"
	"atsmatch/internal/types"
)

// Matches reports whether either term contains the other. This is a loose
// proxy: "java" matches "javascript".
func Matches(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// MatchesAny reports whether term matches at least one entry of pool.
func MatchesAny(term string, pool []string) bool {
	for _, p := range pool {
		if Matches(term, p) {
			return true
		}
	}
	return false
}

// JobKeywordPool gathers the job's keywords, requirements and the keywords
// found in its summary and responsibilities.
func JobKeywordPool(job *types.JobRecord) []string {
	return keywords.Normalize(
		job.ExtractedKeywords,
		job.Qualifications.Required,
		job.Qualifications.Preferred,
		keywords.Extract(job.JobSummary),
		keywords.Extract(strings.Join(job.KeyResponsibilities, " ")),
	)
}

// ResumeKeywordPool gathers the resume's keywords, skill names and the
// technologies and description keywords of every experience and project.
func ResumeKeywordPool(resume *types.ResumeRecord) []string {
	groups := [][]string{resume.ExtractedKeywords, resume.SkillNames()}
	for _, exp := range resume.Experiences {
		groups = append(groups, exp.TechnologiesUsed, keywords.Extract(strings.Join(exp.Description, " ")))
	}
	for _, proj := range resume.Projects {
		groups = append(groups, proj.TechnologiesUsed, keywords.Extract(proj.Description))
	}
	return keywords.Normalize(groups...)
}

// KeywordMatchPercent is the share of job keywords with a match in the
// resume pool, 0 to 100. An empty job pool scores 0.
func KeywordMatchPercent(jobPool, resumePool []string) float64 {
	if len(jobPool) == 0 {
		return 0
	}
	matched := 0
	for _, kw := range jobPool {
		if MatchesAny(kw, resumePool) {
			matched++
		}
	}
	return float64(matched) / float64(len(jobPool)) * 100
}

// JobSkills returns required then preferred qualifications, lowercased.
// Duplicates are kept so a skill listed twice weighs twice.
func JobSkills(job *types.JobRecord) []string {
	skills := make([]string, 0, len(job.Qualifications.Required)+len(job.Qualifications.Preferred))
	for _, group := range [][]string{job.Qualifications.Required, job.Qualifications.Preferred} {
		for _, s := range group {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				skills = append(skills, s)
			}
		}
	}
	return skills
}

// ResumeSkills returns the resume's skill names, lowercased.
func ResumeSkills(resume *types.ResumeRecord) []string {
	skills := make([]string, 0, len(resume.Skills))
	for _, s := range resume.SkillNames() {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// SkillOverlapPercent is the share of job skills with a match among the
// resume skills, 0 to 100.
func SkillOverlapPercent(job *types.JobRecord, resume *types.ResumeRecord) float64 {
	jobSkills := JobSkills(job)
	if len(jobSkills) == 0 {
		return 0
	}
	resumeSkills := ResumeSkills(resume)
	matched := 0
	for _, s := range jobSkills {
		if MatchesAny(s, resumeSkills) {
			matched++
		}
	}
	return float64(matched) / float64(len(jobSkills)) * 100
}

// ExperienceRelevance averages, over all experiences, the fraction of job
// title words matched by the experience's title words. 0 to 100.
func ExperienceRelevance(job *types.JobRecord, resume *types.ResumeRecord) float64 {
	if len(resume.Experiences) == 0 {
		return 0
	}
	titleWords := strings.Fields(strings.ToLower(job.JobTitle))
	denominator := float64(max(len(titleWords), 1))

	var total float64
	for _, exp := range resume.Experiences {
		expWords := strings.Fields(strings.ToLower(exp.JobTitle))
		matched := 0
		for _, w := range titleWords {
			if MatchesAny(w, expWords) {
				matched++
			}
		}
		total += float64(matched) / denominator
	}
	return total / float64(len(resume.Experiences)) * 100
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|), or 0 when either
// vector has zero norm. The vectors must have the same length.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
