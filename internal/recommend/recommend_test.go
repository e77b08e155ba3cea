package recommend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsmatch/internal/types"
)

func TestGenerateScenario(t *testing.T) {
	job := &types.JobRecord{
		ExtractedKeywords: []string{"python", "aws", "docker"},
		Qualifications:    types.Qualifications{Required: []string{"python"}},
	}
	resume := &types.ResumeRecord{
		Skills:            []types.ResumeSkill{{SkillName: "Python"}},
		ExtractedKeywords: []string{"python"},
	}
	scores := types.ScoreResult{KeywordMatchPercent: 100.0 / 3, SkillOverlapPercent: 100}

	set := Generate(job, resume, scores)

	assert.Empty(t, set.MissingSkills)
	assert.Equal(t, []string{"aws", "docker"}, set.PriorityKeywords)
	require.Len(t, set.Recommendations, 4)
	assert.Equal(t, types.Recommendation{
		Category:   types.CategoryGeneral,
		Suggestion: `Incorporate the keyword "aws" naturally into your resume`,
		Priority:   types.PriorityMedium,
	}, set.Recommendations[0])
	assert.Equal(t, types.CategoryGeneral, set.Recommendations[1].Category)
	assert.Equal(t, types.PriorityMedium, set.Recommendations[1].Priority)
	assert.Equal(t, increaseKeywordDensity, set.Recommendations[2].Suggestion)
	assert.Equal(t, types.PriorityHigh, set.Recommendations[2].Priority)
	assert.Equal(t, reframeExperience, set.Recommendations[3].Suggestion)
}

func TestRequiredGapsAreHighPreferredAreMedium(t *testing.T) {
	job := &types.JobRecord{Qualifications: types.Qualifications{
		Required:  []string{"Kubernetes"},
		Preferred: []string{"Terraform"},
	}}
	resume := &types.ResumeRecord{}
	scores := types.ScoreResult{KeywordMatchPercent: 100, SkillOverlapPercent: 100, ExperienceRelevance: 100}

	set := Generate(job, resume, scores)

	assert.Equal(t, []string{"kubernetes", "terraform"}, set.MissingSkills)
	require.Len(t, set.Recommendations, 2)
	assert.Equal(t, types.Recommendation{
		Category:   types.CategorySkill,
		Suggestion: `Add "kubernetes" to your skills section`,
		Priority:   types.PriorityHigh,
	}, set.Recommendations[0])
	assert.Equal(t, types.PriorityMedium, set.Recommendations[1].Priority)
}

func TestThresholdRecommendations(t *testing.T) {
	tests := []struct {
		name   string
		scores types.ScoreResult
		want   []string
	}{
		{"all healthy", types.ScoreResult{KeywordMatchPercent: 50, SkillOverlapPercent: 60, ExperienceRelevance: 50}, nil},
		{"low keywords", types.ScoreResult{KeywordMatchPercent: 49.9, SkillOverlapPercent: 60, ExperienceRelevance: 50}, []string{increaseKeywordDensity}},
		{"low skills", types.ScoreResult{KeywordMatchPercent: 50, SkillOverlapPercent: 59, ExperienceRelevance: 50}, []string{addMoreSkills}},
		{"all low", types.ScoreResult{}, []string{increaseKeywordDensity, addMoreSkills, reframeExperience}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Generate(&types.JobRecord{}, &types.ResumeRecord{}, tt.scores)
			var got []string
			for _, r := range set.Recommendations {
				got = append(got, r.Suggestion)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOnlyTopTenJobKeywordsAreChecked(t *testing.T) {
	var kws []string
	for i := 0; i < 20; i++ {
		kws = append(kws, fmt.Sprintf("term%02d", i))
	}
	set := Generate(&types.JobRecord{ExtractedKeywords: kws}, &types.ResumeRecord{},
		types.ScoreResult{KeywordMatchPercent: 100, SkillOverlapPercent: 100, ExperienceRelevance: 100})

	assert.Equal(t, kws[:10], set.PriorityKeywords)
}

func TestLimitsHoldForLargeInputs(t *testing.T) {
	job := &types.JobRecord{}
	for i := 0; i < 40; i++ {
		job.Qualifications.Required = append(job.Qualifications.Required, fmt.Sprintf("req%d", i))
		job.Qualifications.Preferred = append(job.Qualifications.Preferred, fmt.Sprintf("pref%d", i))
		job.ExtractedKeywords = append(job.ExtractedKeywords, fmt.Sprintf("kw%d", i))
	}

	set := Generate(job, &types.ResumeRecord{}, types.ScoreResult{})

	assert.Len(t, set.Recommendations, MaxRecommendations)
	assert.LessOrEqual(t, len(set.PriorityKeywords), MaxPriorityKeywords)
	assert.Len(t, set.MissingSkills, MaxMissingSkills)
	// Truncation preserves order.
	assert.Equal(t, "req0", set.MissingSkills[0])
	for _, r := range set.Recommendations {
		assert.Equal(t, types.PriorityHigh, r.Priority)
	}
}

func TestContainmentMatchAvoidsFalseGaps(t *testing.T) {
	job := &types.JobRecord{
		ExtractedKeywords: []string{"script"},
		Qualifications:    types.Qualifications{Required: []string{"Java"}},
	}
	resume := &types.ResumeRecord{
		Skills:            []types.ResumeSkill{{SkillName: "JavaScript"}},
		ExtractedKeywords: []string{"javascript"},
	}

	set := Generate(job, resume, types.ScoreResult{KeywordMatchPercent: 100, SkillOverlapPercent: 100, ExperienceRelevance: 100})

	assert.Empty(t, set.MissingSkills)
	assert.Empty(t, set.PriorityKeywords)
	assert.Empty(t, set.Recommendations)
}
