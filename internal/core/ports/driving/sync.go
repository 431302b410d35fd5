package driving

import (
	"context"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// SyncOrchestrator coordinates extraction of the selected streams.
type SyncOrchestrator interface {
	// Run extracts the given streams for every configured partition.
	// An empty stream list runs every stream.
	Run(ctx context.Context, streams []domain.Stream) (*domain.SyncRun, error)

	// Status returns the state of the current run.
	Status(ctx context.Context) (*SyncStatus, error)
}

// SyncStatus represents the current state of a sync operation.
type SyncStatus struct {
	// RunID identifies the run.
	RunID string

	// Running indicates if sync is currently in progress.
	Running bool

	// Stream is the stream being extracted.
	Stream string

	// PartitionID is the partition being extracted.
	PartitionID string

	// RecordsWritten is the count of records emitted.
	RecordsWritten int

	// SkippedPartitions counts partitions abandoned on authorisation errors.
	SkippedPartitions int

	// ErrorCount is the number of errors encountered.
	ErrorCount int
}
