// Package cache memoizes embeddings in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/observability"
)

const keyPrefix = "atsmatch:embed:"

// Client is the subset of the Redis API the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Embedder serves vectors from Redis and falls through to the wrapped
// embedder on a miss. Cache failures are logged and never returned.
type Embedder struct {
	next    ai.Embedder
	client  Client
	model   string
	ttl     time.Duration
	logger  *errors.Logger
	metrics *observability.Metrics
}

var _ ai.Embedder = (*Embedder)(nil)

// NewClient connects to the Redis server in cfg. An unreachable server is
// reported as a warning; lookups then miss until it comes back.
func NewClient(ctx context.Context, cfg config.CacheConfig, logger *errors.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil && logger != nil {
		logger.Warn("Failed to connect to Redis", "addr", cfg.Addr, "error", err.Error())
	}
	return client
}

// NewEmbedder wraps next. Keys include model so switching models never
// serves stale vectors.
func NewEmbedder(next ai.Embedder, client Client, model string, ttl time.Duration, logger *errors.Logger, metrics *observability.Metrics) *Embedder {
	if logger == nil {
		logger = errors.NewNop()
	}
	return &Embedder{
		next:    next,
		client:  client,
		model:   model,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Key returns the cache key for text under model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(e.model, text)

	raw, err := e.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vector []float32
		if jsonErr := json.Unmarshal(raw, &vector); jsonErr == nil && len(vector) > 0 {
			e.metrics.RecordCacheLookup(ctx, true)
			return vector, nil
		}
		e.logger.Warn("Discarding corrupt cached embedding", "key", key)
	case err != redis.Nil:
		e.logger.Warn("Embedding cache lookup failed", "error", err.Error())
	}
	e.metrics.RecordCacheLookup(ctx, false)

	vector, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vector); err == nil {
		if err := e.client.Set(ctx, key, data, e.ttl).Err(); err != nil {
			e.logger.Warn("Failed to cache embedding", "error", err.Error())
		}
	}
	return vector, nil
}
