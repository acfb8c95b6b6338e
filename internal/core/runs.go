package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run records one completed inference.
type Run struct {
	ID         uuid.UUID                 `json:"id" yaml:"id"`
	Source     string                    `json:"source" yaml:"source"`
	Classifier string                    `json:"classifier" yaml:"classifier"`
	CreatedAt  time.Time                 `json:"created_at" yaml:"created_at"`
	Duration   time.Duration             `json:"duration_ns" yaml:"duration_ns"`
	Rows       int                       `json:"rows" yaml:"rows"`
	Codes      map[string]ClassifierCode `json:"codes" yaml:"codes"`
	Metadata   *FeatureMetadata          `json:"metadata" yaml:"metadata"`
}

// Summary returns the listing view of the run.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		Source:     r.Source,
		Classifier: r.Classifier,
		CreatedAt:  r.CreatedAt,
		Columns:    len(r.Metadata.Features),
		Rows:       r.Rows,
	}
}

// RunSummary is a run without its per-column payload.
type RunSummary struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	Source     string    `json:"source" yaml:"source"`
	Classifier string    `json:"classifier" yaml:"classifier"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Columns    int       `json:"columns" yaml:"columns"`
	Rows       int       `json:"rows" yaml:"rows"`
}

// RunStore persists inference runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// DefaultMemoryRuns is the retention of a MemoryRunStore created with capacity 0.
const DefaultMemoryRuns = 500

// MemoryRunStore keeps the most recent runs in memory.
type MemoryRunStore struct {
	mu       sync.RWMutex
	runs     map[uuid.UUID]*Run
	order    []uuid.UUID
	capacity int
}

// NewMemoryRunStore creates a store retaining at most capacity runs.
func NewMemoryRunStore(capacity int) *MemoryRunStore {
	if capacity <= 0 {
		capacity = DefaultMemoryRuns
	}
	return &MemoryRunStore{
		runs:     make(map[uuid.UUID]*Run),
		capacity: capacity,
	}
}

// SaveRun implements RunStore. The oldest run is evicted when full.
func (s *MemoryRunStore) SaveRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run

	for len(s.order) > s.capacity {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// GetRun implements RunStore.
func (s *MemoryRunStore) GetRun(_ context.Context, id uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// ListRuns implements RunStore.
func (s *MemoryRunStore) ListRuns(_ context.Context, limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Walk insertion order backwards so ties keep newest-saved first.
	out := make([]RunSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.runs[s.order[i]].Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
