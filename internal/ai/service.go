package ai

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/observability"
)

const defaultRetryBaseDelay = time.Second

type generation struct {
	text  string
	usage *TokenUsage
}

// Service runs one configured AI operation against a provider, adding
// per-call timeouts, bounded retries, circuit breaking, tracing and metrics.
type Service struct {
	provider       Provider
	config         config.OperationAIConfig
	operation      string
	genBreaker     *CircuitBreaker[generation]
	embedBreaker   *CircuitBreaker[[]float32]
	logger         *errors.Logger
	metrics        *observability.Metrics
	retryBaseDelay time.Duration
}

var (
	_ Generator = (*Service)(nil)
	_ Embedder  = (*Service)(nil)
)

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(ctx context.Context, cfg config.OperationAIConfig, operationType string, logger *errors.Logger, metrics *observability.Metrics) (*Service, error) {
	if logger == nil {
		logger = errors.NewNop()
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", derefFloat(cfg.Temperature),
		"timeout", derefDuration(cfg.Timeout),
		"max_retries", derefInt(cfg.MaxRetries))

	var provider Provider
	var err error
	switch cfg.Provider {
	case config.ProviderGemini:
		provider, err = NewGeminiProvider(ctx, cfg.APIKey, logger)
	case config.ProviderOpenAI:
		provider, err = NewOpenAIProvider(cfg.APIKey, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	return NewServiceWithProvider(provider, cfg, operationType, logger, metrics), nil
}

// NewServiceWithProvider wraps an existing provider.
func NewServiceWithProvider(provider Provider, cfg config.OperationAIConfig, operationType string, logger *errors.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = errors.NewNop()
	}
	return &Service{
		provider:       provider,
		config:         cfg,
		operation:      operationType,
		genBreaker:     NewCircuitBreaker[generation](operationType, &cfg, logger),
		embedBreaker:   NewCircuitBreaker[[]float32](operationType+"-embed", &cfg, logger),
		logger:         logger.With("operation_type", operationType),
		metrics:        metrics,
		retryBaseDelay: defaultRetryBaseDelay,
	}
}

// Generate sends req to the model and returns its text.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if !derefBool(s.config.UseSystemPrompts, true) && req.System != "" {
		req.Prompt = req.System + "\n\n" + req.Prompt
		req.System = ""
	}

	name := req.Operation
	if name == "" {
		name = s.operation
	}

	var text string
	err := s.metrics.TrackAIOperationWithTokens(ctx, name, func(ctx context.Context) *observability.AIOperationResult {
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("ai.provider", s.provider.Name()),
			attribute.String("ai.model", s.config.Model),
			attribute.Float64("ai.temperature", derefFloat(s.config.Temperature)),
			attribute.Int("input.prompt_length", len(req.Prompt)),
		)

		callCtx, cancel := s.withTimeout(ctx)
		defer cancel()

		result, err := s.genBreaker.Execute(func() (generation, error) {
			return executeWithRetry(callCtx, name, derefInt(s.config.MaxRetries), s.retryBaseDelay, s.logger, func() (generation, error) {
				text, usage, err := s.provider.Generate(callCtx, s.config.Model, req, derefFloat(s.config.Temperature))
				return generation{text: text, usage: usage}, err
			})
		})
		if err != nil {
			return &observability.AIOperationResult{
				Error: errors.NewAIError(s.failureCode(callCtx),
					"Failed to generate content for "+name, err).
					WithContext("provider", s.provider.Name()).
					WithContext("model", s.config.Model),
			}
		}

		text = result.text
		return &observability.AIOperationResult{TokenUsage: toMetricsUsage(result.usage)}
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Embed returns the embedding of text. Empty input is sent as "empty" so
// the provider never rejects it.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		text = "empty"
	}

	var vector []float32
	err := s.metrics.TrackAIOperationWithTokens(ctx, "embed", func(ctx context.Context) *observability.AIOperationResult {
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("ai.provider", s.provider.Name()),
			attribute.String("ai.model", s.config.Model),
			attribute.Int("input.text_length", len(text)),
		)

		callCtx, cancel := s.withTimeout(ctx)
		defer cancel()

		result, err := s.embedBreaker.Execute(func() ([]float32, error) {
			return executeWithRetry(callCtx, "embed", derefInt(s.config.MaxRetries), s.retryBaseDelay, s.logger, func() ([]float32, error) {
				return s.provider.Embed(callCtx, s.config.Model, text)
			})
		})
		if err != nil {
			return &observability.AIOperationResult{
				Error: errors.NewEmbeddingError("Failed to embed text", err).
					WithContext("provider", s.provider.Name()).
					WithContext("model", s.config.Model),
			}
		}

		vector = result
		return &observability.AIOperationResult{}
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// Model returns the configured model name.
func (s *Service) Model() string {
	return s.config.Model
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.provider.GetModelInfo(ctx, s.config.Model)
}

// CircuitBreakerStats returns the breaker state for both call kinds.
func (s *Service) CircuitBreakerStats() map[string]any {
	return map[string]any{
		"generate": s.genBreaker.GetStats(),
		"embed":    s.embedBreaker.GetStats(),
	}
}

// IsHealthy reports whether neither breaker is open.
func (s *Service) IsHealthy() bool {
	return s.genBreaker.IsHealthy() && s.embedBreaker.IsHealthy()
}

// Close releases the provider.
func (s *Service) Close() error {
	return s.provider.Close()
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout == nil || *s.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, *s.config.Timeout)
}

func (s *Service) failureCode(ctx context.Context) string {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.ErrCodeAITimeout
	}
	return errors.ErrCodeAIServiceFailed
}

func toMetricsUsage(u *TokenUsage) *observability.TokenUsage {
	if u == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func derefDuration(p *time.Duration) time.Duration {
	if p == nil {
		return 0
	}
	return *p
}
