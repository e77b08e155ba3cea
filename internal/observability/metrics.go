package observability

import (
	"context"
	"fmt"
	"time"

	"atsmatch/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Business metric types accepted by RecordBusinessMetric.
const (
	MetricAnalysisCompleted = "analysis_completed"
	MetricResumeOptimized   = "resume_optimized"
	MetricPortfolioSelected = "portfolio_selected"
	MetricRateLimitHit      = "rate_limit_hit"
)

// Metrics holds all custom instruments. Every method is safe on a nil or
// zero Metrics, so callers never need to check whether telemetry is on.
type Metrics struct {
	cfg *config.ObservabilityConfig

	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics
	AnalysesCompleted  metric.Int64Counter
	ResumesOptimized   metric.Int64Counter
	PortfoliosSelected metric.Int64Counter
	OverallScore       metric.Float64Histogram
	EmbeddingFallbacks metric.Int64Counter

	// Infrastructure metrics
	RateLimitHits metric.Int64Counter
	CacheLookups  metric.Int64Counter
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// NewMetrics registers every instrument on meter. cfg may be nil, in which
// case all metric groups are recorded.
func NewMetrics(meter metric.Meter, cfg *config.ObservabilityConfig) (*Metrics, error) {
	m := &Metrics{cfg: cfg}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"atsmatch_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	if m.AIRequestCount, err = meter.Int64Counter(
		"atsmatch_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	if m.AIErrorCount, err = meter.Int64Counter(
		"atsmatch_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	if m.AITokenUsage, err = meter.Int64Histogram(
		"atsmatch_ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.AnalysesCompleted, err = meter.Int64Counter(
		"atsmatch_analyses_completed_total",
		metric.WithDescription("Total number of job/resume analyses"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analyses metric: %w", err)
	}

	if m.ResumesOptimized, err = meter.Int64Counter(
		"atsmatch_resumes_optimized_total",
		metric.WithDescription("Total number of resumes optimized"),
	); err != nil {
		return nil, fmt.Errorf("failed to create resumes optimized metric: %w", err)
	}

	if m.PortfoliosSelected, err = meter.Int64Counter(
		"atsmatch_portfolio_selections_total",
		metric.WithDescription("Total number of portfolio item selections"),
	); err != nil {
		return nil, fmt.Errorf("failed to create portfolio selection metric: %w", err)
	}

	if m.OverallScore, err = meter.Float64Histogram(
		"atsmatch_overall_score",
		metric.WithDescription("Distribution of fused ATS scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create overall score metric: %w", err)
	}

	if m.EmbeddingFallbacks, err = meter.Int64Counter(
		"atsmatch_embedding_fallbacks_total",
		metric.WithDescription("Analyses that approximated cosine similarity from keywords"),
	); err != nil {
		return nil, fmt.Errorf("failed to create embedding fallback metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"atsmatch_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	if m.CacheLookups, err = meter.Int64Counter(
		"atsmatch_embedding_cache_lookups_total",
		metric.WithDescription("Embedding cache lookups by result"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache lookup metric: %w", err)
	}

	return m, nil
}

// TrackAIOperationWithTokens instruments an AI operation with tracing, metrics, and token usage
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	tracer := otel.Tracer("atsmatch.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	if m.aiEnabled() {
		m.recordAIMetrics(ctx, operation, err, duration, result, span)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

func (m *Metrics) aiEnabled() bool {
	if m == nil || m.AIProcessingTime == nil {
		return false
	}
	return m.cfg == nil || m.cfg.CustomMetrics.AIOperations.Enabled
}

func (m *Metrics) businessEnabled() bool {
	return m != nil && (m.cfg == nil || m.cfg.CustomMetrics.BusinessMetrics.Enabled)
}

func (m *Metrics) infraEnabled() bool {
	return m != nil && (m.cfg == nil || m.cfg.CustomMetrics.Infrastructure.Enabled)
}

func (m *Metrics) recordAIMetrics(ctx context.Context, operation string, err error, duration float64, result *AIOperationResult, span oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}

	if m.cfg == nil || m.cfg.CustomMetrics.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.recordTokenUsage(ctx, result, attrs, span)

	span.SetAttributes(attrs...)
}

func (m *Metrics) recordTokenUsage(ctx context.Context, result *AIOperationResult, attrs []attribute.KeyValue, span oteltrace.Span) {
	if result == nil || result.TokenUsage == nil || m.AITokenUsage == nil {
		return
	}
	usage := result.TokenUsage

	if m.cfg == nil || m.cfg.CustomMetrics.AIOperations.TrackTokenUsage {
		for _, tt := range []struct {
			tokenType string
			value     int64
		}{
			{"input", usage.InputTokens},
			{"output", usage.OutputTokens},
			{"total", usage.TotalTokens},
		} {
			tokenAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("token_type", tt.tokenType))
			m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
		}
	}

	span.SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
	)
}

// RecordBusinessMetric records business-specific metrics
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	if m == nil {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.Bool("success", success),
	}, attributes...)

	switch metricType {
	case MetricAnalysisCompleted:
		m.addBusiness(ctx, m.AnalysesCompleted, attrs)
	case MetricResumeOptimized:
		m.addBusiness(ctx, m.ResumesOptimized, attrs)
	case MetricPortfolioSelected:
		m.addBusiness(ctx, m.PortfoliosSelected, attrs)
	case MetricRateLimitHit:
		if m.RateLimitHits == nil || !m.infraEnabled() {
			return
		}
		if m.cfg != nil && !m.cfg.CustomMetrics.Infrastructure.TrackRateLimits {
			return
		}
		m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *Metrics) addBusiness(ctx context.Context, c metric.Int64Counter, attrs []attribute.KeyValue) {
	if c == nil || !m.businessEnabled() {
		return
	}
	// Drop the success label when success rates are not tracked.
	if m.cfg != nil && !m.cfg.CustomMetrics.BusinessMetrics.TrackSuccessRates {
		attrs = attrs[1:]
	}
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordScore records the fused score of a completed analysis.
func (m *Metrics) RecordScore(ctx context.Context, overall float64) {
	if !m.businessEnabled() || m.OverallScore == nil {
		return
	}
	if m.cfg != nil && !m.cfg.CustomMetrics.BusinessMetrics.TrackScores {
		return
	}
	m.OverallScore.Record(ctx, overall)
}

// RecordEmbeddingFallback counts an analysis scored without embeddings.
func (m *Metrics) RecordEmbeddingFallback(ctx context.Context, reason string) {
	if !m.businessEnabled() || m.EmbeddingFallbacks == nil {
		return
	}
	if m.cfg != nil && !m.cfg.CustomMetrics.BusinessMetrics.TrackFallbacks {
		return
	}
	m.EmbeddingFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordCacheLookup counts an embedding cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if !m.infraEnabled() || m.CacheLookups == nil {
		return
	}
	if m.cfg != nil && !m.cfg.CustomMetrics.Infrastructure.TrackCache {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
