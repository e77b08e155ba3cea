package store

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atsmatch/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	resume_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	data JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_resume ON analyses(resume_id, created_at DESC);
CREATE TABLE IF NOT EXISTS portfolios (
	id TEXT PRIMARY KEY,
	data JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS optimizations (
	id TEXT PRIMARY KEY,
	resume_id TEXT NOT NULL DEFAULT '',
	analysis_id TEXT NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	data JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_optimizations_resume ON optimizations(resume_id, created_at DESC);`

// Postgres stores records as jsonb through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects to databaseURL and creates the tables if needed.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, storageError("failed to create connection pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageError("failed to ping database", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, storageError("failed to create postgres schema", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Save(ctx context.Context, a *types.Analysis) error {
	prepareAnalysis(a)
	data, err := json.Marshal(a)
	if err != nil {
		return storageError("failed to encode analysis", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO analyses (id, resume_id, created_at, data) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET resume_id = EXCLUDED.resume_id, created_at = EXCLUDED.created_at, data = EXCLUDED.data`,
		a.ID, a.ResumeID, a.CreatedAt, data)
	if err != nil {
		return storageError("failed to save analysis", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*types.Analysis, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM analyses WHERE id = $1`, id).Scan(&data)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, analysisNotFound(id)
	}
	if err != nil {
		return nil, storageError("failed to load analysis", err)
	}
	return decode[types.Analysis](data)
}

func (p *Postgres) LatestForResume(ctx context.Context, resumeID string) (*types.Analysis, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT data FROM analyses WHERE resume_id = $1 ORDER BY created_at DESC LIMIT 1`,
		resumeID).Scan(&data)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, latestNotFound(resumeID)
	}
	if err != nil {
		return nil, storageError("failed to load latest analysis", err)
	}
	return decode[types.Analysis](data)
}

func (p *Postgres) GetPortfolio(ctx context.Context, id string) (*types.Portfolio, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM portfolios WHERE id = $1`, id).Scan(&data)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, portfolioNotFound(id)
	}
	if err != nil {
		return nil, storageError("failed to load portfolio", err)
	}
	return decode[types.Portfolio](data)
}

func (p *Postgres) PutPortfolio(ctx context.Context, pf *types.Portfolio) (string, error) {
	preparePortfolio(pf)
	data, err := json.Marshal(pf)
	if err != nil {
		return "", storageError("failed to encode portfolio", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO portfolios (id, data) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		pf.ID, data)
	if err != nil {
		return "", storageError("failed to save portfolio", err)
	}
	return pf.ID, nil
}

func (p *Postgres) SaveOptimization(ctx context.Context, r *types.OptimizationResult) error {
	prepareOptimization(r)
	data, err := json.Marshal(r)
	if err != nil {
		return storageError("failed to encode optimization", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO optimizations (id, resume_id, analysis_id, overall_score, created_at, data) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET resume_id = EXCLUDED.resume_id, analysis_id = EXCLUDED.analysis_id,
		 overall_score = EXCLUDED.overall_score, created_at = EXCLUDED.created_at, data = EXCLUDED.data`,
		r.ID, r.ResumeID, r.AnalysisID, r.Scores.OverallScore, r.CreatedAt, data)
	if err != nil {
		return storageError("failed to save optimization", err)
	}
	return nil
}

func (p *Postgres) GetOptimization(ctx context.Context, id string) (*types.OptimizationResult, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM optimizations WHERE id = $1`, id).Scan(&data)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, optimizationNotFound(id)
	}
	if err != nil {
		return nil, storageError("failed to load optimization", err)
	}
	return decode[types.OptimizationResult](data)
}

func (p *Postgres) ListOptimizations(ctx context.Context, resumeID string) ([]*types.OptimizationResult, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT data FROM optimizations WHERE resume_id = $1 ORDER BY created_at DESC`, resumeID)
	if err != nil {
		return nil, storageError("failed to list optimizations", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, storageError("failed to list optimizations", err)
	}

	out := make([]*types.OptimizationResult, 0, len(records))
	for _, data := range records {
		r, err := decode[types.OptimizationResult](data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
