// Package pipeline ties extraction, scoring, recommendation, optimization
// and persistence into the operations exposed by the CLI and the API.
package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"atsmatch/internal/ai"
	"atsmatch/internal/cache"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/extraction"
	"atsmatch/internal/observability"
	"atsmatch/internal/optimizer"
	"atsmatch/internal/scoring"
	"atsmatch/internal/store"
	"atsmatch/internal/types"
)

// ProgressFunc receives human readable progress messages. It is always
// called from the goroutine running the operation.
type ProgressFunc func(message string)

// Progress messages emitted by Analyze.
const (
	ProgressExtractJob    = "Extracting job posting structure..."
	ProgressExtractResume = "Extracting resume structure..."
	ProgressScoring       = "Calculating ATS scores..."
	ProgressRecommending  = "Generating recommendations..."
	ProgressSaving        = "Saving analysis..."
)

// Progress messages emitted by Optimize after the analysis is available.
const (
	ProgressOptimizing       = "Optimizing resume..."
	ProgressSavingOptimizing = "Saving optimized resume..."
)

// Components are the model backends and store an Analyzer runs on.
type Components struct {
	Extractor ai.Generator
	Embedder  ai.Embedder
	Optimizer ai.Generator
	Selector  ai.Generator
	Store     store.Store
}

// Analyzer runs analyses, optimizations and portfolio selections.
type Analyzer struct {
	cfg       *config.Config
	extractor *extraction.Extractor
	engine    *scoring.Engine
	optimizer *optimizer.Optimizer
	selector  ai.Generator
	store     store.Store
	logger    *errors.Logger
	metrics   *observability.Metrics
	timeout   time.Duration

	services map[string]*ai.Service
	closers  []func() error
}

// New creates an Analyzer from already built components. A nil Embedder
// scores every analysis with the keyword fallback.
func New(cfg *config.Config, c Components, logger *errors.Logger, metrics *observability.Metrics) *Analyzer {
	if logger == nil {
		logger = errors.NewNop()
	}
	if c.Store == nil {
		c.Store = store.NewMemory()
	}

	a := &Analyzer{
		cfg:       cfg,
		extractor: extraction.NewExtractor(c.Extractor, cfg, logger),
		optimizer: optimizer.New(c.Optimizer, cfg, logger),
		selector:  c.Selector,
		store:     c.Store,
		logger:    logger,
		metrics:   metrics,
	}
	if cfg != nil {
		a.timeout = cfg.Pipeline.Timeout
	}

	a.engine = scoring.NewEngine(c.Embedder, logger).WithFallbackHook(func(ctx context.Context, err error) {
		reason := "error"
		if appErr, ok := errors.AsAppError(err); ok {
			reason = appErr.Code
		}
		metrics.RecordEmbeddingFallback(ctx, reason)
	})
	return a
}

// Build creates one AI service per operation, the configured store and,
// when enabled, the Redis embedding cache.
func Build(ctx context.Context, cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) (*Analyzer, error) {
	if logger == nil {
		logger = errors.NewNop()
	}

	services := make(map[string]*ai.Service)
	var closers []func() error
	fail := func(err error) (*Analyzer, error) {
		closeAll(closers)
		return nil, err
	}

	for _, op := range []string{config.OpExtract, config.OpEmbed, config.OpOptimize, config.OpSelect} {
		svc, err := ai.NewService(ctx, cfg.OperationConfig(op), op, logger, metrics)
		if err != nil {
			return fail(err)
		}
		services[op] = svc
		closers = append(closers, svc.Close)
	}

	var embedder ai.Embedder = services[config.OpEmbed]
	if cfg.Cache.Enabled {
		client := cache.NewClient(ctx, cfg.Cache, logger)
		closers = append(closers, client.Close)
		embedder = cache.NewEmbedder(embedder, client, services[config.OpEmbed].Model(), cfg.Cache.TTL, logger, metrics)
		logger.Debug("Embedding cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, st.Close)

	a := New(cfg, Components{
		Extractor: services[config.OpExtract],
		Embedder:  embedder,
		Optimizer: services[config.OpOptimize],
		Selector:  services[config.OpSelect],
		Store:     st,
	}, logger, metrics)
	a.services = services
	a.closers = closers
	return a, nil
}

// Store returns the backing store.
func (a *Analyzer) Store() store.Store {
	return a.store
}

// Services returns the AI service per operation. It is empty for
// analyzers created with New.
func (a *Analyzer) Services() map[string]*ai.Service {
	return a.services
}

// Stats returns circuit breaker statistics per operation.
func (a *Analyzer) Stats() map[string]any {
	stats := make(map[string]any, len(a.services))
	for op, svc := range a.services {
		stats[op] = svc.CircuitBreakerStats()
	}
	return stats
}

// Healthy reports whether every circuit breaker is closed or half-open.
func (a *Analyzer) Healthy() bool {
	for _, svc := range a.services {
		if !svc.IsHealthy() {
			return false
		}
	}
	return true
}

// Close releases every service, the cache client and the store.
func (a *Analyzer) Close() error {
	return closeAll(a.closers)
}

func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (a *Analyzer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// resolvePortfolio loads the stored portfolio or validates the inline one.
func (a *Analyzer) resolvePortfolio(ctx context.Context, id string, inline *types.Portfolio) (*types.Portfolio, error) {
	if inline == nil {
		return a.store.GetPortfolio(ctx, id)
	}
	if err := inline.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid portfolio", err)
	}
	return inline, nil
}

func timeoutError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded && !errors.HasCode(err, errors.ErrCodeAITimeout) {
		return errors.NewAIError(errors.ErrCodeAITimeout, "operation timed out", err)
	}
	return err
}

func report(progress ProgressFunc, message string) {
	if progress != nil {
		progress(message)
	}
}
