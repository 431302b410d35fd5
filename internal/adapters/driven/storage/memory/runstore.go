package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.SyncRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.SyncRun),
	}
}

// StartRun records a new run.
func (s *RunStore) StartRun(_ context.Context, run domain.SyncRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	run.Streams = slices.Clone(run.Streams)
	s.runs[run.ID] = run
	return nil
}

// FinishRun updates a recorded run.
func (s *RunStore) FinishRun(_ context.Context, run domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return domain.ErrNotFound
	}
	run.Streams = slices.Clone(run.Streams)
	s.runs[run.ID] = run
	return nil
}

// ListRuns returns the most recent runs first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SyncRun, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
