package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driving"
	"github.com/custodia-labs/tap-facebook-pages/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator runs the selected streams over every partition, one
// partition after another, and checkpoints bookmarks as it goes.
type SyncOrchestrator struct {
	connector  driven.Connector
	stateStore driven.StateStore
	runStore   driven.RunStore
	writer     driven.RecordWriter
	validator  driven.RecordValidator
	partitions []domain.Partition
	start      time.Time
	now        func() time.Time

	mu     sync.RWMutex
	status *driving.SyncStatus
}

// NewSyncOrchestrator creates a new sync orchestrator.
// The runStore and validator are optional; nil disables run history and
// record validation.
func NewSyncOrchestrator(
	connector driven.Connector,
	stateStore driven.StateStore,
	runStore driven.RunStore,
	writer driven.RecordWriter,
	validator driven.RecordValidator,
	partitions []domain.Partition,
	start time.Time,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		connector:  connector,
		stateStore: stateStore,
		runStore:   runStore,
		writer:     writer,
		validator:  validator,
		partitions: partitions,
		start:      start,
		now:        time.Now,
	}
}

// Run extracts streams for every partition. Partitions rejected with an
// authorisation error are skipped; any other error aborts the run.
func (o *SyncOrchestrator) Run(ctx context.Context, streams []domain.Stream) (*domain.SyncRun, error) {
	if len(streams) == 0 {
		streams = o.connector.Streams()
	}

	run := &domain.SyncRun{
		ID:        uuid.NewString(),
		StartedAt: o.now().UTC(),
		Status:    domain.RunRunning,
	}
	for _, s := range streams {
		run.Streams = append(run.Streams, s.Name)
	}

	if o.runStore != nil {
		if err := o.runStore.StartRun(ctx, *run); err != nil {
			return nil, fmt.Errorf("start run: %w", err)
		}
	}

	status := &driving.SyncStatus{RunID: run.ID, Running: true}
	o.setStatus(status)

	logger.Section("Sync run %s", run.ID)
	logger.Info("Extracting %d streams from %d pages", len(streams), len(o.partitions))

	err := o.run(ctx, streams, run)
	return o.finish(ctx, run, err)
}

func (o *SyncOrchestrator) run(ctx context.Context, streams []domain.Stream, run *domain.SyncRun) error {
	if err := o.connector.Validate(ctx); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := o.connector.Authorize(ctx, o.partitions); err != nil {
		return fmt.Errorf("authorize: %w", err)
	}

	stored, err := o.stateStore.List(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	state := domain.StateFrom(stored)

	// Pages whose token was rejected are dropped for the rest of the run.
	// Forbidden errors stay per stream since permissions can be metric specific.
	revoked := make(map[string]bool)

	for _, stream := range streams {
		if err := o.writer.WriteSchema(stream); err != nil {
			return fmt.Errorf("write schema %s: %w", stream.Name, err)
		}

		for _, partition := range o.partitions {
			if revoked[partition.PageID] {
				logger.Debug("Skipping %s for page %s: token rejected earlier in this run", stream.Name, partition.PageID)
				continue
			}
			err := o.runPartition(ctx, stream, partition, state, run)
			if errors.Is(err, domain.ErrAuthInvalid) {
				revoked[partition.PageID] = true
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// runPartition extracts one stream partition, writes its records and
// checkpoints the bookmark.
//
//nolint:gocognit // Orchestration function coordinating multiple async operations
func (o *SyncOrchestrator) runPartition(
	ctx context.Context,
	stream domain.Stream,
	partition domain.Partition,
	state *domain.State,
	run *domain.SyncRun,
) error {
	o.updateStatus(func(s *driving.SyncStatus) {
		s.Stream = stream.Name
		s.PartitionID = partition.PageID
	})

	since, err := o.startFor(ctx, stream, partition)
	if err != nil {
		return err
	}
	logger.Debug("Syncing %s for page %s since %s", stream.Name, partition.PageID, since.Format(time.RFC3339))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recordsCh, errsCh := o.connector.Sync(ctx, stream, partition, since)

	var complete *driven.SyncComplete
	for recordsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if sc, isSyncComplete := driven.IsSyncComplete(err); isSyncComplete {
				complete = sc
				continue
			}
			if errors.Is(err, domain.ErrPartitionSkipped) {
				logger.Warn("Skipping %s for page %s: %v", stream.Name, partition.PageID, err)
				run.SkippedPartitions++
				o.updateStatus(func(s *driving.SyncStatus) { s.SkippedPartitions++ })
				if errors.Is(err, domain.ErrAuthInvalid) {
					return err
				}
				return nil
			}
			o.updateStatus(func(s *driving.SyncStatus) { s.ErrorCount++ })
			return fmt.Errorf("connector error: %w", err)

		case rec, ok := <-recordsCh:
			if !ok {
				recordsCh = nil
				continue
			}
			if o.validator != nil {
				if err := o.validator.Validate(stream, rec); err != nil {
					o.updateStatus(func(s *driving.SyncStatus) { s.ErrorCount++ })
					logger.Warn("Dropping %s record: %v", stream.Name, err)
					continue
				}
			}
			if err := o.writer.WriteRecord(stream.Name, rec, o.now().UTC()); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
			run.Records++
			o.updateStatus(func(s *driving.SyncStatus) { s.RecordsWritten++ })
		}
	}

	if complete == nil {
		return fmt.Errorf("%s page %s: connector ended without completing", stream.Name, partition.PageID)
	}

	if stream.IsIncremental() {
		bookmark := complete.Bookmark
		bookmark.ReplicationKey = stream.ReplicationKey
		bookmark.UpdatedAt = o.now().UTC()
		if err := o.stateStore.Save(ctx, bookmark); err != nil {
			return fmt.Errorf("save bookmark: %w", err)
		}
		state.SetBookmark(bookmark)
	}
	if err := o.writer.WriteState(state); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	logger.Debug("Finished %s for page %s: %d records", stream.Name, partition.PageID, complete.Records)
	return nil
}

// startFor returns where a partition resumes: the later of the stored
// bookmark and the configured start. Full-table streams always start over.
func (o *SyncOrchestrator) startFor(ctx context.Context, stream domain.Stream, partition domain.Partition) (time.Time, error) {
	if !stream.IsIncremental() {
		return o.start, nil
	}
	b, err := o.stateStore.Get(ctx, stream.Name, partition.PageID)
	if errors.Is(err, domain.ErrNotFound) {
		return o.start, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get bookmark: %w", err)
	}
	if b.Value.After(o.start) {
		return b.Value, nil
	}
	return o.start, nil
}

// finish records the outcome of a run.
func (o *SyncOrchestrator) finish(ctx context.Context, run *domain.SyncRun, runErr error) (*domain.SyncRun, error) {
	run.FinishedAt = o.now().UTC()
	run.Status = domain.RunSucceeded
	if runErr != nil {
		run.Status = domain.RunFailed
		run.Error = runErr.Error()
	}

	errs := []error{runErr}
	if err := o.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if o.runStore != nil {
		// The run context may already be cancelled.
		if err := o.runStore.FinishRun(context.WithoutCancel(ctx), *run); err != nil {
			errs = append(errs, fmt.Errorf("finish run: %w", err))
		}
	}

	o.updateStatus(func(s *driving.SyncStatus) { s.Running = false })

	if runErr != nil {
		logger.Warn("Sync run %s failed: %v", run.ID, runErr)
	} else {
		logger.Info("Sync complete: %d records, %d skipped partitions", run.Records, run.SkippedPartitions)
	}
	return run, errors.Join(errs...)
}

// Status returns the state of the current or last run.
func (o *SyncOrchestrator) Status(_ context.Context) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.status == nil {
		return &driving.SyncStatus{}, nil
	}
	// Return a copy to avoid race conditions
	s := *o.status
	return &s, nil
}

func (o *SyncOrchestrator) setStatus(status *driving.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = status
}

func (o *SyncOrchestrator) updateStatus(fn func(*driving.SyncStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != nil {
		fn(o.status)
	}
}
