package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	_ "modernc.org/sqlite"

	"atsmatch/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	resume_id TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_resume ON analyses(resume_id, created_at);
CREATE TABLE IF NOT EXISTS portfolios (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS optimizations (
	id TEXT PRIMARY KEY,
	resume_id TEXT NOT NULL DEFAULT '',
	analysis_id TEXT NOT NULL,
	overall_score REAL NOT NULL,
	created_at INTEGER NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_optimizations_resume ON optimizations(resume_id, created_at);`

// SQLite stores records as JSON text in an embedded database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageError("failed to open sqlite database", err)
	}
	db.SetMaxOpenConns(1) // single writer

	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, storageError("failed to create sqlite schema", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, a *types.Analysis) error {
	prepareAnalysis(a)
	data, err := json.Marshal(a)
	if err != nil {
		return storageError("failed to encode analysis", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, resume_id, created_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET resume_id = excluded.resume_id, created_at = excluded.created_at, data = excluded.data`,
		a.ID, a.ResumeID, a.CreatedAt.UnixNano(), string(data))
	if err != nil {
		return storageError("failed to save analysis", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*types.Analysis, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM analyses WHERE id = ?`, id).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, analysisNotFound(id)
	}
	if err != nil {
		return nil, storageError("failed to load analysis", err)
	}
	return decode[types.Analysis]([]byte(data))
}

func (s *SQLite) LatestForResume(ctx context.Context, resumeID string) (*types.Analysis, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM analyses WHERE resume_id = ? ORDER BY created_at DESC LIMIT 1`,
		resumeID).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, latestNotFound(resumeID)
	}
	if err != nil {
		return nil, storageError("failed to load latest analysis", err)
	}
	return decode[types.Analysis]([]byte(data))
}

func (s *SQLite) GetPortfolio(ctx context.Context, id string) (*types.Portfolio, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM portfolios WHERE id = ?`, id).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, portfolioNotFound(id)
	}
	if err != nil {
		return nil, storageError("failed to load portfolio", err)
	}
	return decode[types.Portfolio]([]byte(data))
}

func (s *SQLite) PutPortfolio(ctx context.Context, p *types.Portfolio) (string, error) {
	preparePortfolio(p)
	data, err := json.Marshal(p)
	if err != nil {
		return "", storageError("failed to encode portfolio", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO portfolios (id, data) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		p.ID, string(data))
	if err != nil {
		return "", storageError("failed to save portfolio", err)
	}
	return p.ID, nil
}

func (s *SQLite) SaveOptimization(ctx context.Context, r *types.OptimizationResult) error {
	prepareOptimization(r)
	data, err := json.Marshal(r)
	if err != nil {
		return storageError("failed to encode optimization", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO optimizations (id, resume_id, analysis_id, overall_score, created_at, data) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET resume_id = excluded.resume_id, analysis_id = excluded.analysis_id,
		 overall_score = excluded.overall_score, created_at = excluded.created_at, data = excluded.data`,
		r.ID, r.ResumeID, r.AnalysisID, r.Scores.OverallScore, r.CreatedAt.UnixNano(), string(data))
	if err != nil {
		return storageError("failed to save optimization", err)
	}
	return nil
}

func (s *SQLite) GetOptimization(ctx context.Context, id string) (*types.OptimizationResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM optimizations WHERE id = ?`, id).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, optimizationNotFound(id)
	}
	if err != nil {
		return nil, storageError("failed to load optimization", err)
	}
	return decode[types.OptimizationResult]([]byte(data))
}

func (s *SQLite) ListOptimizations(ctx context.Context, resumeID string) ([]*types.OptimizationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM optimizations WHERE resume_id = ? ORDER BY created_at DESC`, resumeID)
	if err != nil {
		return nil, storageError("failed to list optimizations", err)
	}
	defer rows.Close()

	out := []*types.OptimizationResult{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, storageError("failed to read optimization", err)
		}
		r, err := decode[types.OptimizationResult]([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to list optimizations", err)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
