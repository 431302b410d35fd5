package driven

import (
	"context"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// StateStore persists replication bookmarks.
type StateStore interface {
	// Save stores or updates the bookmark of one stream partition.
	Save(ctx context.Context, bookmark domain.Bookmark) error

	// Get retrieves the bookmark of one stream partition.
	// Returns domain.ErrNotFound when none is stored.
	Get(ctx context.Context, stream, partitionID string) (*domain.Bookmark, error)

	// List returns every stored bookmark ordered by stream then partition.
	List(ctx context.Context) ([]domain.Bookmark, error)

	// Delete removes the bookmarks of a stream. An empty stream removes all.
	Delete(ctx context.Context, stream string) error
}

// RunStore records sync run history.
type RunStore interface {
	// StartRun records a new running sync.
	StartRun(ctx context.Context, run domain.SyncRun) error

	// FinishRun updates a run with its outcome.
	FinishRun(ctx context.Context, run domain.SyncRun) error

	// ListRuns returns the most recent runs first, at most limit.
	ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
