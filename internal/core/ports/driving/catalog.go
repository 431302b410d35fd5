package driving

import (
	"context"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// CatalogService exposes the stream catalog.
type CatalogService interface {
	// Streams returns every stream the tap can extract.
	Streams() []domain.Stream

	// Stream returns one stream by name.
	// Returns domain.ErrStreamNotFound for unknown names.
	Stream(name string) (domain.Stream, error)

	// Discover builds the Singer catalog with every stream selected by default.
	Discover() *domain.Catalog

	// Select returns the streams selected in an input catalog.
	// A nil catalog selects every stream.
	Select(catalog *domain.Catalog) ([]domain.Stream, error)
}

// StateService reads and resets replication bookmarks.
type StateService interface {
	// State returns the stored bookmarks as a Singer state document.
	State(ctx context.Context) (*domain.State, error)

	// Bookmarks returns stored bookmarks, optionally filtered by stream.
	Bookmarks(ctx context.Context, stream string) ([]domain.Bookmark, error)

	// Import stores the bookmarks of a Singer state document, replacing
	// stored bookmarks of the same stream partitions.
	Import(ctx context.Context, state *domain.State) error

	// Reset removes the bookmarks of a stream. An empty stream resets all.
	Reset(ctx context.Context, stream string) error

	// Runs returns recent sync runs.
	Runs(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
