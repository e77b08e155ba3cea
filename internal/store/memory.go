package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"atsmatch/internal/types"
)

// Memory keeps records in process. Records are stored as JSON so callers
// never share memory with the store.
type Memory struct {
	mu            sync.RWMutex
	analyses      map[string][]byte
	latest        map[string]latestRef
	portfolios    map[string][]byte
	optimizations map[string][]byte
	rewrites      map[string][]string // resume ID -> optimization IDs
}

type latestRef struct {
	id        string
	createdAt time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		analyses:      make(map[string][]byte),
		latest:        make(map[string]latestRef),
		portfolios:    make(map[string][]byte),
		optimizations: make(map[string][]byte),
		rewrites:      make(map[string][]string),
	}
}

func (m *Memory) Save(ctx context.Context, a *types.Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepareAnalysis(a)

	data, err := json.Marshal(a)
	if err != nil {
		return storageError("failed to encode analysis", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[a.ID] = data
	if a.ResumeID != "" {
		if cur, ok := m.latest[a.ResumeID]; !ok || !a.CreatedAt.Before(cur.createdAt) {
			m.latest[a.ResumeID] = latestRef{id: a.ID, createdAt: a.CreatedAt}
		}
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*types.Analysis, error) {
	m.mu.RLock()
	data, ok := m.analyses[id]
	m.mu.RUnlock()
	if !ok {
		return nil, analysisNotFound(id)
	}
	return decode[types.Analysis](data)
}

func (m *Memory) LatestForResume(ctx context.Context, resumeID string) (*types.Analysis, error) {
	m.mu.RLock()
	ref, ok := m.latest[resumeID]
	m.mu.RUnlock()
	if !ok {
		return nil, latestNotFound(resumeID)
	}
	return m.Get(ctx, ref.id)
}

func (m *Memory) GetPortfolio(ctx context.Context, id string) (*types.Portfolio, error) {
	m.mu.RLock()
	data, ok := m.portfolios[id]
	m.mu.RUnlock()
	if !ok {
		return nil, portfolioNotFound(id)
	}
	return decode[types.Portfolio](data)
}

func (m *Memory) PutPortfolio(ctx context.Context, p *types.Portfolio) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	preparePortfolio(p)

	data, err := json.Marshal(p)
	if err != nil {
		return "", storageError("failed to encode portfolio", err)
	}

	m.mu.Lock()
	m.portfolios[p.ID] = data
	m.mu.Unlock()
	return p.ID, nil
}

func (m *Memory) SaveOptimization(ctx context.Context, r *types.OptimizationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepareOptimization(r)

	data, err := json.Marshal(r)
	if err != nil {
		return storageError("failed to encode optimization", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.optimizations[r.ID]; !exists {
		m.rewrites[r.ResumeID] = append(m.rewrites[r.ResumeID], r.ID)
	}
	m.optimizations[r.ID] = data
	return nil
}

func (m *Memory) GetOptimization(ctx context.Context, id string) (*types.OptimizationResult, error) {
	m.mu.RLock()
	data, ok := m.optimizations[id]
	m.mu.RUnlock()
	if !ok {
		return nil, optimizationNotFound(id)
	}
	return decode[types.OptimizationResult](data)
}

func (m *Memory) ListOptimizations(ctx context.Context, resumeID string) ([]*types.OptimizationResult, error) {
	m.mu.RLock()
	records := make([][]byte, 0, len(m.rewrites[resumeID]))
	for _, id := range m.rewrites[resumeID] {
		records = append(records, m.optimizations[id])
	}
	m.mu.RUnlock()

	out := make([]*types.OptimizationResult, 0, len(records))
	for _, data := range records {
		r, err := decode[types.OptimizationResult](data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b *types.OptimizationResult) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (m *Memory) Close() error { return nil }
