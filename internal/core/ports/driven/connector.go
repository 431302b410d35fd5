package driven

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// Connector extracts records from a data source, one stream partition at a time.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the connector is configured and the credentials are
	// accepted. Performs a lightweight API call.
	Validate(ctx context.Context) error

	// Authorize resolves per-partition credentials once, before any Sync.
	// The result is read-only afterwards.
	Authorize(ctx context.Context, partitions []domain.Partition) error

	// Streams returns every stream the connector can extract.
	Streams() []domain.Stream

	// Sync extracts one stream for one partition, starting at since.
	// Records are sent on the first channel. The error channel carries
	// either a terminal error or a *SyncComplete with the new bookmark.
	// An error wrapping domain.ErrPartitionSkipped means the partition was
	// abandoned and extraction may continue with the others.
	Sync(ctx context.Context, stream domain.Stream, partition domain.Partition, since time.Time) (<-chan domain.Record, <-chan error)

	// Close releases resources.
	Close() error
}

// SyncComplete is sent on the error channel when a partition completes.
// Carries the bookmark advanced to the greatest replication value seen.
type SyncComplete struct {
	Bookmark domain.Bookmark
	Records  int
}

// Error implements the error interface.
// This allows SyncComplete to be sent on the error channel.
func (SyncComplete) Error() string {
	return "sync complete"
}

// IsSyncComplete checks if an error is actually a successful completion.
// Returns the SyncComplete and true if it is, nil and false otherwise.
func IsSyncComplete(err error) (*SyncComplete, bool) {
	var sc *SyncComplete
	if errors.As(err, &sc) {
		return sc, true
	}
	return nil, false
}
