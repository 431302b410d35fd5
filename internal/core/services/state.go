package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driving"
	"github.com/custodia-labs/tap-facebook-pages/internal/logger"
)

// Ensure StateService implements the interface.
var _ driving.StateService = (*StateService)(nil)

// StateService reads, imports and resets stored bookmarks.
type StateService struct {
	store driven.StateStore
	runs  driven.RunStore
}

// NewStateService creates a state service. runs may be nil.
func NewStateService(store driven.StateStore, runs driven.RunStore) *StateService {
	return &StateService{store: store, runs: runs}
}

// State returns the stored bookmarks as a Singer state document.
func (s *StateService) State(ctx context.Context) (*domain.State, error) {
	bookmarks, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return domain.StateFrom(bookmarks), nil
}

// Bookmarks returns stored bookmarks, optionally filtered by stream.
func (s *StateService) Bookmarks(ctx context.Context, stream string) ([]domain.Bookmark, error) {
	bookmarks, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	if stream == "" {
		return bookmarks, nil
	}
	var out []domain.Bookmark
	for _, b := range bookmarks {
		if b.Stream == stream {
			out = append(out, b)
		}
	}
	return out, nil
}

// Import stores every bookmark of state.
func (s *StateService) Import(ctx context.Context, state *domain.State) error {
	if state == nil {
		return nil
	}
	bookmarks := state.All()
	for _, b := range bookmarks {
		if err := s.store.Save(ctx, b); err != nil {
			return fmt.Errorf("save bookmark %s/%s: %w", b.Stream, b.PartitionID, err)
		}
	}
	logger.Debug("Imported %d bookmarks", len(bookmarks))
	return nil
}

// Reset removes the bookmarks of a stream, or all bookmarks.
func (s *StateService) Reset(ctx context.Context, stream string) error {
	if err := s.store.Delete(ctx, stream); err != nil {
		return fmt.Errorf("delete bookmarks: %w", err)
	}
	return nil
}

// Runs returns recent sync runs, newest first.
func (s *StateService) Runs(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
