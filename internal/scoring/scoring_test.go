package scoring

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsmatch/internal/types"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func scenarioJob() *types.JobRecord {
	return &types.JobRecord{
		JobTitle:          "Backend Engineer",
		ExtractedKeywords: []string{"python", "aws", "docker"},
		Qualifications:    types.Qualifications{Required: []string{"python"}},
	}
}

func scenarioResume() *types.ResumeRecord {
	return &types.ResumeRecord{
		Skills:            []types.ResumeSkill{{SkillName: "Python"}},
		ExtractedKeywords: []string{"python"},
	}
}

func TestMatchesChecksBothDirections(t *testing.T) {
	assert.True(t, Matches("javascript", "script"))
	assert.True(t, Matches("script", "javascript"))
	assert.True(t, Matches("java", "javascript"))
	assert.False(t, Matches("go", "rust"))
}

func TestKeywordMatchPercent(t *testing.T) {
	tests := []struct {
		name       string
		jobPool    []string
		resumePool []string
		want       float64
	}{
		{"empty job pool", nil, []string{"python"}, 0},
		{"all contained", []string{"go", "sql"}, []string{"golang", "postgresql"}, 100},
		{"resume term inside job term", []string{"javascript"}, []string{"script"}, 100},
		{"partial", []string{"python", "aws", "docker"}, []string{"python"}, 100.0 / 3},
		{"nothing", []string{"rust"}, []string{"python"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, KeywordMatchPercent(tt.jobPool, tt.resumePool), 1e-9)
		})
	}
}

func TestPoolsAreLowercasedAndDeduplicated(t *testing.T) {
	job := &types.JobRecord{
		ExtractedKeywords:   []string{"Python", "AWS"},
		Qualifications:      types.Qualifications{Required: []string{"python"}, Preferred: []string{"Terraform"}},
		JobSummary:          "Build data pipelines",
		KeyResponsibilities: []string{"Own deployments", "Mentor engineers"},
	}
	assert.Equal(t,
		[]string{"python", "aws", "terraform", "build", "data", "pipelines", "deployments", "mentor", "engineers", "own"},
		JobKeywordPool(job))

	resume := &types.ResumeRecord{
		ExtractedKeywords: []string{"Go"},
		Skills:            []types.ResumeSkill{{SkillName: "Go"}, {SkillName: "Kubernetes"}},
		Experiences: []types.ResumeExperience{{
			TechnologiesUsed: []string{"gRPC"},
			Description:      []string{"Shipped services"},
		}},
		Projects: []types.ResumeProject{{
			TechnologiesUsed: []string{"Redis"},
			Description:      "cache layer",
		}},
	}
	assert.Equal(t,
		[]string{"go", "kubernetes", "grpc", "shipped", "services", "redis", "cache", "layer"},
		ResumeKeywordPool(resume))
}

func TestSkillOverlapPercent(t *testing.T) {
	job := &types.JobRecord{Qualifications: types.Qualifications{
		Required:  []string{"Go", "PostgreSQL"},
		Preferred: []string{"Kafka", "Terraform"},
	}}
	resume := &types.ResumeRecord{Skills: []types.ResumeSkill{{SkillName: "golang"}, {SkillName: "Kafka Streams"}}}

	assert.InDelta(t, 50, SkillOverlapPercent(job, resume), 1e-9)
	assert.Equal(t, 0.0, SkillOverlapPercent(&types.JobRecord{}, resume))
}

func TestExperienceRelevance(t *testing.T) {
	job := &types.JobRecord{JobTitle: "Senior Backend Engineer"}

	t.Run("no experiences", func(t *testing.T) {
		assert.Equal(t, 0.0, ExperienceRelevance(job, &types.ResumeRecord{}))
	})

	t.Run("averages across entries", func(t *testing.T) {
		resume := &types.ResumeRecord{Experiences: []types.ResumeExperience{
			{JobTitle: "Backend Engineer"},
			{JobTitle: "Barista"},
		}}
		// 2/3 for the first entry, 0 for the second.
		assert.InDelta(t, 100.0/3, ExperienceRelevance(job, resume), 1e-9)
	})

	t.Run("empty job title", func(t *testing.T) {
		// A title with no words has nothing to match and scores 0, not 100.
		resume := &types.ResumeRecord{Experiences: []types.ResumeExperience{{JobTitle: "Engineer"}}}
		assert.Equal(t, 0.0, ExperienceRelevance(&types.JobRecord{}, resume))
		assert.Equal(t, 0.0, ExperienceRelevance(&types.JobRecord{JobTitle: "   "}, resume))
	})

	t.Run("surrounding whitespace in job title", func(t *testing.T) {
		resume := &types.ResumeRecord{Experiences: []types.ResumeExperience{{JobTitle: "Backend Engineer"}}}
		assert.InDelta(t, 100.0, ExperienceRelevance(&types.JobRecord{JobTitle: "  Backend Engineer "}, resume), 1e-9)
	})
}

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1, sim, 1e-9)

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0, sim, 1e-9)

	sim, err = CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	_, err = CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

func TestFuse(t *testing.T) {
	assert.Equal(t, 100.0, Fuse(1, 100, 100, 100))
	assert.Equal(t, 0.0, Fuse(0, 0, 0, 0))
	assert.Equal(t, 100.0, Fuse(2, 100, 100, 100))
	assert.Equal(t, 0.0, Fuse(-1, 0, 0, 0))
	assert.InDelta(t, 20+15+10+5, Fuse(0.5, 50, 50, 50), 1e-9)
}

func TestEngineScoreScenario(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{}, nil)

	result, err := engine.Score(context.Background(), scenarioJob(), scenarioResume())
	require.NoError(t, err)

	assert.InDelta(t, 33.3, result.KeywordMatchPercent, 0.05)
	assert.Equal(t, 100.0, result.SkillOverlapPercent)
	assert.Equal(t, 0.0, result.ExperienceRelevance)
	assert.InDelta(t, 1, result.CosineSimilarity, 1e-9)
	assert.False(t, result.EmbeddingFallback)
	assert.InDelta(t, 40+10+20, result.OverallScore, 0.01)
}

func TestEngineFallsBackWhenEmbeddingFails(t *testing.T) {
	var hookErr error
	engine := NewEngine(&fakeEmbedder{err: fmt.Errorf("service unavailable")}, nil).
		WithFallbackHook(func(_ context.Context, err error) { hookErr = err })

	result, err := engine.Score(context.Background(), scenarioJob(), scenarioResume())
	require.NoError(t, err)

	assert.True(t, result.EmbeddingFallback)
	assert.InDelta(t, result.KeywordMatchPercent/100, result.CosineSimilarity, 1e-9)
	assert.Error(t, hookErr)
}

func TestEngineFallsBackOnEmptyVectorAndNilEmbedder(t *testing.T) {
	empty := &fakeEmbedder{vectors: map[string][]float32{"python aws docker": {}}}
	for name, engine := range map[string]*Engine{
		"empty vector": NewEngine(empty, nil),
		"nil embedder": NewEngine(nil, nil),
	} {
		t.Run(name, func(t *testing.T) {
			result, err := engine.Score(context.Background(), scenarioJob(), scenarioResume())
			require.NoError(t, err)
			assert.True(t, result.EmbeddingFallback)
		})
	}
}

func TestEngineEmbedsPlaceholderForEmptyPools(t *testing.T) {
	embedder := &fakeEmbedder{}
	_, err := NewEngine(embedder, nil).Score(context.Background(), &types.JobRecord{}, &types.ResumeRecord{})
	require.NoError(t, err)
	assert.Equal(t, []string{EmptyPlaceholder, EmptyPlaceholder}, embedder.calls)
}

func TestEngineReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(&fakeEmbedder{err: context.Canceled}, nil).Score(ctx, scenarioJob(), scenarioResume())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreBoundsHoldForArbitraryInput(t *testing.T) {
	vectors := map[string][]float32{}
	engine := NewEngine(&fakeEmbedder{vectors: vectors}, nil)

	for i := 0; i < 50; i++ {
		job := &types.JobRecord{
			JobTitle:          fmt.Sprintf("Engineer %d Lead", i),
			ExtractedKeywords: []string{fmt.Sprintf("kw%d", i%7), "go"},
			Qualifications:    types.Qualifications{Required: []string{fmt.Sprintf("skill%d", i%5)}},
		}
		resume := &types.ResumeRecord{
			Skills:      []types.ResumeSkill{{SkillName: fmt.Sprintf("skill%d", i%3)}},
			Experiences: []types.ResumeExperience{{JobTitle: "Lead"}},
		}
		vectors[fmt.Sprintf("kw%d go skill%d", i%7, i%5)] = []float32{float32(math.Sin(float64(i))), -1, 0.5}

		r, err := engine.Score(context.Background(), job, resume)
		require.NoError(t, err)
		for _, v := range []float64{r.KeywordMatchPercent, r.SkillOverlapPercent, r.ExperienceRelevance, r.OverallScore} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
		assert.GreaterOrEqual(t, r.CosineSimilarity, 0.0)
		assert.LessOrEqual(t, r.CosineSimilarity, 1.0)
	}
}
