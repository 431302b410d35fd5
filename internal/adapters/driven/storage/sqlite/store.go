package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the state and run stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tap-facebook-pages/data/state.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tap-facebook-pages", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// StateStore returns a StateStore interface backed by this store.
func (s *Store) StateStore() driven.StateStore {
	return &stateStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations.
// Each migration records its own version in schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== State Store ====================

// stateStore implements driven.StateStore.
type stateStore struct {
	store *Store
}

var _ driven.StateStore = (*stateStore)(nil)

// Save stores or updates a bookmark.
func (s *stateStore) Save(ctx context.Context, b domain.Bookmark) error {
	if b.Stream == "" || b.PartitionID == "" {
		return domain.ErrInvalidInput
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO bookmarks (stream, partition_id, replication_key, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(stream, partition_id) DO UPDATE SET
			replication_key = excluded.replication_key,
			value = excluded.value,
			updated_at = excluded.updated_at
	`, b.Stream, b.PartitionID, b.ReplicationKey, formatTime(b.Value), formatTime(b.UpdatedAt))

	if err != nil {
		return fmt.Errorf("saving bookmark: %w", err)
	}
	return nil
}

// Get retrieves the bookmark of one stream partition.
func (s *stateStore) Get(ctx context.Context, stream, partitionID string) (*domain.Bookmark, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT stream, partition_id, replication_key, value, updated_at
		FROM bookmarks WHERE stream = ? AND partition_id = ?
	`, stream, partitionID)

	b, err := scanBookmark(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List returns every bookmark ordered by stream then partition.
func (s *stateStore) List(ctx context.Context) ([]domain.Bookmark, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT stream, partition_id, replication_key, value, updated_at
		FROM bookmarks ORDER BY stream, partition_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark //nolint:prealloc // size unknown from query
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookmarks: %w", err)
	}
	return bookmarks, nil
}

// Delete removes the bookmarks of a stream, or all of them.
func (s *stateStore) Delete(ctx context.Context, stream string) error {
	var err error
	if stream == "" {
		_, err = s.store.db.ExecContext(ctx, "DELETE FROM bookmarks")
	} else {
		_, err = s.store.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE stream = ?", stream)
	}
	if err != nil {
		return fmt.Errorf("deleting bookmarks: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (*domain.Bookmark, error) {
	var b domain.Bookmark
	var value, updatedAt string
	if err := row.Scan(&b.Stream, &b.PartitionID, &b.ReplicationKey, &value, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning bookmark: %w", err)
	}
	b.Value = parseTime(value)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// StartRun records a new run.
func (s *runStore) StartRun(ctx context.Context, run domain.SyncRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	streams, err := json.Marshal(run.Streams)
	if err != nil {
		return fmt.Errorf("marshalling streams: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, status, streams)
		VALUES (?, ?, ?, ?)
	`, run.ID, formatTime(run.StartedAt), string(run.Status), string(streams))

	if err != nil {
		return fmt.Errorf("saving sync run: %w", err)
	}
	return nil
}

// FinishRun updates a run with its outcome.
func (s *runStore) FinishRun(ctx context.Context, run domain.SyncRun) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE sync_runs SET
			finished_at = ?, status = ?, records = ?, skipped_partitions = ?, error = ?
		WHERE id = ?
	`, formatTime(run.FinishedAt), string(run.Status), run.Records, run.SkippedPartitions,
		nullString(run.Error), run.ID)
	if err != nil {
		return fmt.Errorf("updating sync run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating sync run: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero returns all.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, streams, records, skipped_partitions, error
		FROM sync_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.SyncRun
		var startedAt, status, streams string
		var finishedAt, runErr sql.NullString
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &status, &streams,
			&run.Records, &run.SkippedPartitions, &runErr); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		run.StartedAt = parseTime(startedAt)
		if finishedAt.Valid {
			run.FinishedAt = parseTime(finishedAt.String)
		}
		run.Status = domain.RunStatus(status)
		run.Error = runErr.String
		if err := json.Unmarshal([]byte(streams), &run.Streams); err != nil {
			return nil, fmt.Errorf("unmarshalling streams: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync runs: %w", err)
	}
	return runs, nil
}

// ==================== Helpers ====================

// timeLayout has fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString converts an empty string to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
