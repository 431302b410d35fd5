package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

type bookmarkKey struct {
	stream    string
	partition string
}

// StateStore is an in-memory implementation of driven.StateStore.
// Bookmarks last for the lifetime of the process; the Singer state file
// carries them between runs.
type StateStore struct {
	mu        sync.RWMutex
	bookmarks map[bookmarkKey]domain.Bookmark
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		bookmarks: make(map[bookmarkKey]domain.Bookmark),
	}
}

// Save stores or updates a bookmark.
func (s *StateStore) Save(_ context.Context, bookmark domain.Bookmark) error {
	if bookmark.Stream == "" || bookmark.PartitionID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks[bookmarkKey{bookmark.Stream, bookmark.PartitionID}] = bookmark
	return nil
}

// Get retrieves the bookmark of one stream partition.
func (s *StateStore) Get(_ context.Context, stream, partitionID string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookmarks[bookmarkKey{stream, partitionID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

// List returns every bookmark ordered by stream then partition.
func (s *StateStore) List(_ context.Context) ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bookmark, 0, len(s.bookmarks))
	for _, b := range s.bookmarks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stream != out[j].Stream {
			return out[i].Stream < out[j].Stream
		}
		return out[i].PartitionID < out[j].PartitionID
	})
	return out, nil
}

// Delete removes the bookmarks of a stream, or all of them.
func (s *StateStore) Delete(_ context.Context, stream string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.bookmarks {
		if stream == "" || k.stream == stream {
			delete(s.bookmarks, k)
		}
	}
	return nil
}
