package scoring

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"atsmatch/internal/errors"
	"atsmatch/internal/types"
)

// EmptyPlaceholder is embedded in place of an empty keyword pool.
const EmptyPlaceholder = "empty"

// Embedder maps text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// FallbackFunc is called when cosine similarity had to be approximated.
type FallbackFunc func(ctx context.Context, err error)

// Engine scores a job/resume pair.
type Engine struct {
	embedder   Embedder
	logger     *errors.Logger
	onFallback FallbackFunc
}

// NewEngine creates an Engine. A nil embedder always uses the keyword
// fallback for cosine similarity.
func NewEngine(embedder Embedder, logger *errors.Logger) *Engine {
	if logger == nil {
		logger = errors.NewNop()
	}
	return &Engine{embedder: embedder, logger: logger}
}

// WithFallbackHook sets a callback invoked whenever embeddings fail.
func (e *Engine) WithFallbackHook(fn FallbackFunc) *Engine {
	e.onFallback = fn
	return e
}

// Score computes all four metrics and the fused score. Embedding failures
// degrade to keywordMatchPercent/100; the only error returned is the
// context's.
func (e *Engine) Score(ctx context.Context, job *types.JobRecord, resume *types.ResumeRecord) (types.ScoreResult, error) {
	jobPool := JobKeywordPool(job)
	resumePool := ResumeKeywordPool(resume)

	result := types.ScoreResult{
		KeywordMatchPercent: KeywordMatchPercent(jobPool, resumePool),
		SkillOverlapPercent: SkillOverlapPercent(job, resume),
		ExperienceRelevance: ExperienceRelevance(job, resume),
	}

	cosine, err := e.cosine(ctx, jobPool, resumePool)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.ScoreResult{}, ctxErr
		}
		e.logger.LogError(err, "Embedding failed, using keyword match as similarity",
			"keyword_match_percent", result.KeywordMatchPercent)
		if e.onFallback != nil {
			e.onFallback(ctx, err)
		}
		cosine = result.KeywordMatchPercent / 100
		result.EmbeddingFallback = true
	}

	result.CosineSimilarity = clamp(cosine, 0, 1)
	result.OverallScore = Fuse(result.CosineSimilarity, result.KeywordMatchPercent,
		result.SkillOverlapPercent, result.ExperienceRelevance)
	return result, nil
}

func (e *Engine) cosine(ctx context.Context, jobPool, resumePool []string) (float64, error) {
	if e.embedder == nil {
		return 0, errors.NewEmbeddingError("no embedding provider configured", nil)
	}

	var jobVec, resumeVec []float32
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := e.embed(gCtx, jobPool)
		jobVec = v
		return err
	})
	g.Go(func() error {
		v, err := e.embed(gCtx, resumePool)
		resumeVec = v
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	sim, err := CosineSimilarity(jobVec, resumeVec)
	if err != nil {
		return 0, errors.NewEmbeddingError("embedding dimensions differ", err)
	}
	return sim, nil
}

func (e *Engine) embed(ctx context.Context, pool []string) ([]float32, error) {
	text := strings.Join(pool, " ")
	if text == "" {
		text = EmptyPlaceholder
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewEmbeddingError("embedding request failed", err)
	}
	if len(vec) == 0 {
		return nil, errors.NewEmbeddingError("embedding service returned no vector", nil)
	}
	return vec, nil
}
