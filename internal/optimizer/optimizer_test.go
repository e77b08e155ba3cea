package optimizer

import (
	"context"
	"slices"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	atsmatchErrors "atsmatch/internal/errors"
	"atsmatch/internal/types"
)

type fakeGenerator struct {
	response string
	requests []ai.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.response, nil
}

func testInput() Input {
	return Input{
		AnalysisID:     "a-1",
		JobDescription: "Senior Go engineer with Kubernetes and Terraform experience.",
		Job: &types.JobRecord{
			JobTitle:          "Senior Go Engineer",
			ExtractedKeywords: []string{"go", "kubernetes", "terraform"},
		},
		Resume: &types.ResumeRecord{
			ExtractedKeywords: []string{"go", "apis"},
		},
		Portfolio: &types.Portfolio{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			WorkExperiences: []types.WorkExperience{{
				ID: "w-1", JobTitle: "Backend Engineer", Company: "Acme",
				Location: "Berlin", StartDate: "2021-03-01", IsCurrent: true,
				BulletPoints: []string{"Built payment APIs in Go"},
			}},
			Skills: []types.Skill{{ID: "s-1", Name: "Go", Category: "Languages"}},
		},
		Scores: types.ScoreResult{CosineSimilarity: 0.61234, OverallScore: 55},
		Recommendations: types.RecommendationSet{
			Recommendations: []types.Recommendation{
				{Category: types.CategorySkill, Suggestion: `Add "kubernetes" to your skills section`, Priority: types.PriorityHigh},
				{Category: types.CategoryGeneral, Suggestion: "Tailor your summary", Priority: types.PriorityMedium},
			},
			PriorityKeywords: []string{"kubernetes", "terraform", "go", "ci", "cd", "sre"},
			MissingSkills:    []string{"kubernetes"},
		},
	}
}

func TestOptimizeMarkdown(t *testing.T) {
	gen := &fakeGenerator{response: "```markdown\n# Jane Doe\n\n## Work Experience\n### Backend Engineer at Acme\n- Built payment APIs in Go\n```"}
	o := New(gen, nil, nil)

	result, err := o.Optimize(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, types.ModeMarkdown, result.Mode)
	assert.Equal(t, "a-1", result.AnalysisID)
	assert.True(t, strings.HasPrefix(result.Markdown, "# Jane Doe"))
	assert.False(t, strings.Contains(result.Markdown, "```"))
	assert.True(t, result.FactCheck.Passed(), "violations: %v", result.FactCheck.Violations)

	require.Len(t, result.Modifications, 2)
	assert.Equal(t, types.Modification{
		Section: types.CategorySkill,
		Change:  `Add "kubernetes" to your skills section`,
		Reason:  "To improve high priority ATS score",
	}, result.Modifications[0])

	prompt := gen.requests[0].Prompt
	assert.Contains(t, prompt, "0.6123")
	assert.Contains(t, prompt, `1. [HIGH] Add "kubernetes" to your skills section`)
	assert.Contains(t, prompt, "- cd")
	assert.NotContains(t, prompt, "- sre", "only the top five keywords are listed")
	assert.Contains(t, prompt, "go, kubernetes, terraform")
	assert.Contains(t, prompt, "### Backend Engineer at Acme")
}

func TestOptimizeEmptyResponse(t *testing.T) {
	o := New(&fakeGenerator{response: "```\n```"}, nil, nil)

	_, err := o.Optimize(context.Background(), testInput())
	assert.True(t, atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeOptimizationFailed))
}

func TestOptimizeRequiresPrerequisites(t *testing.T) {
	o := New(&fakeGenerator{response: "# ok"}, nil, nil)

	in := testInput()
	in.Portfolio = nil
	_, err := o.Optimize(context.Background(), in)
	assert.True(t, atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeMissingPrerequisite))

	in = testInput()
	in.Job = nil
	_, err = o.OptimizeStructured(context.Background(), in)
	assert.True(t, atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeMissingPrerequisite))
}

func TestStrictFactCheckRejectsInventions(t *testing.T) {
	gen := &fakeGenerator{response: "# Jane Doe\n- Led Snowflake migration at Globex"}

	lenient := New(gen, nil, nil)
	result, err := lenient.Optimize(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, []string{"Snowflake", "Globex"}, result.FactCheck.Violations)

	cfg := &config.Config{}
	cfg.Optimizer.StrictFactCheck = true
	strict := New(gen, cfg, nil)
	_, err = strict.Optimize(context.Background(), testInput())
	assert.True(t, atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeOptimizationFailed))
}

const structuredJSON = `{
  "contactInfo": {"name": "Jane Doe", "email": "jane@example.com"},
  "professionalSummary": "Backend engineer building payment APIs in Go.",
  "workExperiences": [{"jobTitle": "Backend Engineer", "company": "Acme", "bulletPoints": ["Built payment APIs in Go"]}],
  "educations": [],
  "skills": [{"name": "Go", "category": "Languages"}],
  "projects": [],
  "achievements": []
}`

func TestOptimizeStructured(t *testing.T) {
	gen := &fakeGenerator{response: structuredJSON}
	o := New(gen, nil, nil)

	result, err := o.OptimizeStructured(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, types.ModeStructured, result.Mode)
	require.NotNil(t, result.Structured)
	assert.Equal(t, "Jane Doe", result.Structured.ContactInfo.Name)
	assert.Equal(t, "Acme", result.Structured.WorkExperiences[0].Company)
	assert.True(t, result.FactCheck.Passed(), "violations: %v", result.FactCheck.Violations)
	assert.True(t, gen.requests[0].JSON)
	assert.Contains(t, gen.requests[0].Prompt, `"professionalSummary"`)
}

func TestOptimizeStructuredRejectsInvalidJSON(t *testing.T) {
	o := New(&fakeGenerator{response: `{"contactInfo": {}}`}, nil, nil)

	_, err := o.OptimizeStructured(context.Background(), testInput())
	require.Error(t, err)
	appErr, ok := atsmatchErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, atsmatchErrors.ErrCodeOptimizationFailed, appErr.Code)
	assert.Equal(t, `{"contactInfo": {}}`, appErr.Context["raw_response"])
}

func TestModificationsAreCapped(t *testing.T) {
	recs := make([]types.Recommendation, 8)
	for i := range recs {
		recs[i] = types.Recommendation{Category: types.CategoryGeneral, Suggestion: "s", Priority: types.PriorityLow}
	}
	assert.Len(t, Modifications(recs), 5)
	assert.Empty(t, Modifications(nil))
}

func TestPortfolioToMarkdown(t *testing.T) {
	md := PortfolioToMarkdown(testInput().Portfolio)

	assert.True(t, strings.HasPrefix(md, "# Jane Doe\n\njane@example.com\n\n"))
	assert.Contains(t, md, "## Work Experience\n\n### Backend Engineer at Acme\nBerlin | Mar 2021 - Present\n\n- Built payment APIs in Go\n")
	assert.Contains(t, md, "## Skills\n\n**Languages**: Go\n")
	assert.NotContains(t, md, "## Education")
}

func TestFactCheckIgnoresJobVocabulary(t *testing.T) {
	gen := &fakeGenerator{response: "# Jane Doe\n- Built Go services on Kubernetes provisioned with Terraform for Initech"}
	in := testInput()
	in.JobDescription = "Initech is hiring a Go engineer with Kubernetes and Terraform."
	in.Job.CompanyProfile.CompanyName = "Initech"

	result, err := New(gen, nil, nil).Optimize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kubernetes", "Terraform", "Initech"}, result.FactCheck.Violations)

	cfg := &config.Config{}
	cfg.Optimizer.StrictFactCheck = true
	_, err = New(gen, cfg, nil).Optimize(context.Background(), in)
	assert.True(t, atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeOptimizationFailed))
}

func TestFactCheckFlagsEveryUngroundedEntity(t *testing.T) {
	type term struct {
		name     string
		grounded bool
	}
	terms := []term{
		{"Acme", true},
		{"Terraform", false},
		{"Berlin", true},
		{"Initech", false},
		{"APIs", true},
		{"Snowflake", false},
		{"Globex Industries", false},
		{"Datadog", false},
	}

	property := func(mask uint8, recMask uint8) bool {
		in := testInput()
		in.JobDescription = "Initech needs Terraform, Snowflake and Datadog at Globex Industries."
		in.Job.ExtractedKeywords = []string{"initech", "terraform", "snowflake", "datadog", "globex"}

		var recs []types.Recommendation
		var missing []string
		lines := []string{"# Jane Doe"}
		want := []string{}
		for i, tm := range terms {
			if recMask&(1<<i) != 0 {
				recs = append(recs, types.Recommendation{
					Category:   types.CategorySkill,
					Suggestion: `Add "` + tm.name + `" to your skills section`,
					Priority:   types.PriorityHigh,
				})
				missing = append(missing, strings.ToLower(tm.name))
			}
			if mask&(1<<i) == 0 {
				continue
			}
			lines = append(lines, "- Worked with "+tm.name)
			if !tm.grounded {
				want = append(want, tm.name)
			}
		}
		in.Recommendations = types.RecommendationSet{
			Recommendations:  recs,
			PriorityKeywords: missing,
			MissingSkills:    missing,
		}

		gen := &fakeGenerator{response: strings.Join(lines, "\n")}
		result, err := New(gen, nil, nil).Optimize(context.Background(), in)
		if err != nil {
			t.Logf("optimize failed: %v", err)
			return false
		}
		if !slices.Equal(result.FactCheck.Violations, want) {
			t.Logf("mask=%08b violations=%v want=%v", mask, result.FactCheck.Violations, want)
			return false
		}
		return true
	}

	require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 200}))
}
