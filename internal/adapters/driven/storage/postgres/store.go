// Package postgres provides a Postgres-backed implementation of the state and
// run history stores, for taps that run on ephemeral hosts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
)

// DefaultMaxConns bounds the pool. The tap is single-threaded.
const DefaultMaxConns = 2

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tap_facebook_pages_bookmarks (
		stream TEXT NOT NULL,
		partition_id TEXT NOT NULL,
		replication_key TEXT NOT NULL DEFAULT '',
		value TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (stream, partition_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tap_facebook_pages_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		streams TEXT[] NOT NULL DEFAULT '{}',
		records INTEGER NOT NULL DEFAULT 0,
		skipped_partitions INTEGER NOT NULL DEFAULT 0,
		error TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS tap_facebook_pages_runs_started_at
		ON tap_facebook_pages_runs (started_at DESC)`,
}

// Store holds the connection pool shared by the state and run stores.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn and creates the tables if needed.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: state_dsn: %w", domain.ErrInvalidConfig, err)
	}
	cfg.MaxConns = DefaultMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// StateStore returns a StateStore interface backed by this store.
func (s *Store) StateStore() driven.StateStore {
	return &stateStore{pool: s.pool}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{pool: s.pool}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	b := &pgx.Batch{}
	for _, stmt := range schemaStatements {
		b.Queue(stmt)
	}
	br := s.pool.SendBatch(ctx, b)
	for range schemaStatements {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// stateStore implements driven.StateStore.
type stateStore struct {
	pool *pgxpool.Pool
}

var _ driven.StateStore = (*stateStore)(nil)

func (s *stateStore) Save(ctx context.Context, b domain.Bookmark) error {
	if b.Stream == "" || b.PartitionID == "" {
		return domain.ErrInvalidInput
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tap_facebook_pages_bookmarks (stream, partition_id, replication_key, value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stream, partition_id) DO UPDATE SET
			replication_key = EXCLUDED.replication_key,
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`,
		b.Stream, b.PartitionID, b.ReplicationKey, b.Value.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving bookmark: %w", err)
	}
	return nil
}

func (s *stateStore) Get(ctx context.Context, stream, partitionID string) (*domain.Bookmark, error) {
	var b domain.Bookmark
	err := s.pool.QueryRow(ctx, `
		SELECT stream, partition_id, replication_key, value, updated_at
		FROM tap_facebook_pages_bookmarks WHERE stream = $1 AND partition_id = $2`,
		stream, partitionID).Scan(&b.Stream, &b.PartitionID, &b.ReplicationKey, &b.Value, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning bookmark: %w", err)
	}
	b.Value = b.Value.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

func (s *stateStore) List(ctx context.Context) ([]domain.Bookmark, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT stream, partition_id, replication_key, value, updated_at
		FROM tap_facebook_pages_bookmarks ORDER BY stream, partition_id`)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarks: %w", err)
	}
	bookmarks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Bookmark, error) {
		var b domain.Bookmark
		err := row.Scan(&b.Stream, &b.PartitionID, &b.ReplicationKey, &b.Value, &b.UpdatedAt)
		b.Value = b.Value.UTC()
		b.UpdatedAt = b.UpdatedAt.UTC()
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (s *stateStore) Delete(ctx context.Context, stream string) error {
	var err error
	if stream == "" {
		_, err = s.pool.Exec(ctx, `DELETE FROM tap_facebook_pages_bookmarks`)
	} else {
		_, err = s.pool.Exec(ctx, `DELETE FROM tap_facebook_pages_bookmarks WHERE stream = $1`, stream)
	}
	if err != nil {
		return fmt.Errorf("deleting bookmarks: %w", err)
	}
	return nil
}

// runStore implements driven.RunStore.
type runStore struct {
	pool *pgxpool.Pool
}

var _ driven.RunStore = (*runStore)(nil)

func (s *runStore) StartRun(ctx context.Context, run domain.SyncRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	streams := run.Streams
	if streams == nil {
		streams = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tap_facebook_pages_runs (id, started_at, status, streams)
		VALUES ($1, $2, $3, $4)`,
		run.ID, run.StartedAt.UTC(), string(run.Status), streams)
	if err != nil {
		return fmt.Errorf("saving sync run: %w", err)
	}
	return nil
}

func (s *runStore) FinishRun(ctx context.Context, run domain.SyncRun) error {
	var runErr *string
	if run.Error != "" {
		runErr = &run.Error
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE tap_facebook_pages_runs
		SET finished_at = $2, status = $3, records = $4, skipped_partitions = $5, error = $6
		WHERE id = $1`,
		run.ID, run.FinishedAt.UTC(), string(run.Status), run.Records, run.SkippedPartitions, runErr)
	if err != nil {
		return fmt.Errorf("updating sync run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, finished_at, status, streams, records, skipped_partitions, error
		FROM tap_facebook_pages_runs ORDER BY started_at DESC LIMIT $1`, limitArg)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SyncRun, error) {
		var (
			run        domain.SyncRun
			finishedAt *time.Time
			status     string
			runErr     *string
		)
		if err := row.Scan(&run.ID, &run.StartedAt, &finishedAt, &status, &run.Streams,
			&run.Records, &run.SkippedPartitions, &runErr); err != nil {
			return run, err
		}
		run.StartedAt = run.StartedAt.UTC()
		if finishedAt != nil {
			run.FinishedAt = finishedAt.UTC()
		}
		run.Status = domain.RunStatus(status)
		if runErr != nil {
			run.Error = *runErr
		}
		return run, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning sync runs: %w", err)
	}
	return runs, nil
}
