// Package store persists analyses and portfolios.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/types"
)

// AnalysisStore saves and looks up analyses.
type AnalysisStore interface {
	// Save assigns an ID and CreatedAt when they are empty and stores a.
	Save(ctx context.Context, a *types.Analysis) error
	Get(ctx context.Context, id string) (*types.Analysis, error)
	// LatestForResume returns the newest analysis for a portfolio.
	LatestForResume(ctx context.Context, resumeID string) (*types.Analysis, error)
}

// PortfolioStore saves and looks up portfolios.
type PortfolioStore interface {
	GetPortfolio(ctx context.Context, id string) (*types.Portfolio, error)
	// PutPortfolio stores p and returns its ID, generating one if empty.
	PutPortfolio(ctx context.Context, p *types.Portfolio) (string, error)
}

// OptimizationStore keeps the history of resume rewrites.
type OptimizationStore interface {
	// SaveOptimization assigns an ID and CreatedAt when they are empty and
	// stores r.
	SaveOptimization(ctx context.Context, r *types.OptimizationResult) error
	GetOptimization(ctx context.Context, id string) (*types.OptimizationResult, error)
	// ListOptimizations returns the rewrites of a portfolio, newest first.
	ListOptimizations(ctx context.Context, resumeID string) ([]*types.OptimizationResult, error)
}

// Store is every record store plus a Close for the backing connection.
type Store interface {
	AnalysisStore
	PortfolioStore
	OptimizationStore
	Close() error
}

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (Store, error) {
	if logger == nil {
		logger = errors.NewNop()
	}

	switch cfg.Backend {
	case "", config.StoreMemory:
		logger.Debug("Using in-memory store")
		return NewMemory(), nil
	case config.StoreSQLite:
		logger.Debug("Opening sqlite store", "path", cfg.SQLitePath)
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		logger.Debug("Connecting to postgres store")
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown store backend: %s", cfg.Backend), nil)
	}
}

func prepareAnalysis(a *types.Analysis) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
}

func prepareOptimization(r *types.OptimizationResult) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

func preparePortfolio(p *types.Portfolio) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
}

func analysisNotFound(id string) error {
	return errors.NewNotFoundError("analysis not found", nil).WithContext("analysis_id", id)
}

func portfolioNotFound(id string) error {
	return errors.NewNotFoundError("portfolio not found", nil).WithContext("portfolio_id", id)
}

func optimizationNotFound(id string) error {
	return errors.NewNotFoundError("optimization not found", nil).WithContext("optimization_id", id)
}

func latestNotFound(resumeID string) error {
	return errors.NewNotFoundError("no analysis for resume", nil).WithContext("resume_id", resumeID)
}

func storageError(message string, err error) error {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, message, err)
}

func decode[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, storageError("failed to decode stored record", err)
	}
	return &v, nil
}
