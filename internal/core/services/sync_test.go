package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driving"
)

// --- Mock implementations for sync testing ---

type syncCall struct {
	stream string
	page   string
	since  time.Time
}

// syncMockConnector implements driven.Connector for testing.
type syncMockConnector struct {
	streams     []domain.Stream
	records     map[string][]domain.Record // keyed by stream/page
	errs        map[string]error           // keyed by stream/page
	validateErr error
	authErr     error
	calls       []syncCall
	authorized  []domain.Partition
}

func key(stream, page string) string { return stream + "/" + page }

func (m *syncMockConnector) Type() string                    { return "mock" }
func (m *syncMockConnector) Streams() []domain.Stream        { return m.streams }
func (m *syncMockConnector) Validate(_ context.Context) error { return m.validateErr }
func (m *syncMockConnector) Close() error                    { return nil }

func (m *syncMockConnector) Authorize(_ context.Context, partitions []domain.Partition) error {
	m.authorized = partitions
	return m.authErr
}

func (m *syncMockConnector) Sync(
	ctx context.Context, stream domain.Stream, partition domain.Partition, since time.Time,
) (<-chan domain.Record, <-chan error) {
	m.calls = append(m.calls, syncCall{stream: stream.Name, page: partition.PageID, since: since})

	recs := make(chan domain.Record)
	errs := make(chan error, 1)
	k := key(stream.Name, partition.PageID)

	go func() {
		defer close(recs)
		defer close(errs)

		bookmark := domain.Bookmark{Stream: stream.Name, PartitionID: partition.PageID, Value: since}
		for _, r := range m.records[k] {
			select {
			case <-ctx.Done():
				return
			case recs <- r:
			}
			if t, ok := r.Time(stream.ReplicationKey); ok {
				bookmark.Advance(t)
			}
		}
		if err := m.errs[k]; err != nil {
			errs <- err
			return
		}
		errs <- &driven.SyncComplete{Bookmark: bookmark, Records: len(m.records[k])}
	}()
	return recs, errs
}

// mockWriter implements driven.RecordWriter and records every message.
type mockWriter struct {
	messages []string
	states   []*domain.State
	records  []domain.Record
	writeErr error
	flushed  bool
}

func (w *mockWriter) WriteSchema(stream domain.Stream) error {
	w.messages = append(w.messages, "SCHEMA "+stream.Name)
	return nil
}

func (w *mockWriter) WriteRecord(stream string, record domain.Record, _ time.Time) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.messages = append(w.messages, "RECORD "+stream)
	w.records = append(w.records, record)
	return nil
}

func (w *mockWriter) WriteState(state *domain.State) error {
	w.messages = append(w.messages, "STATE")
	w.states = append(w.states, domain.StateFrom(state.All()))
	return nil
}

func (w *mockWriter) Flush() error {
	w.flushed = true
	return nil
}

// mockValidator rejects records with a "bad" field.
type mockValidator struct{}

func (mockValidator) Validate(_ domain.Stream, record domain.Record) error {
	if _, ok := record["bad"]; ok {
		return fmt.Errorf("%w: bad field", domain.ErrSchemaValidation)
	}
	return nil
}

var (
	syncStart   = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	pageStream  = domain.Stream{Name: "page", Kind: domain.KindPage, ReplicationMethod: domain.ReplicationFullTable}
	postsStream = domain.Stream{
		Name: "posts", Kind: domain.KindPosts,
		ReplicationKey: "created_time", ReplicationMethod: domain.ReplicationIncremental,
	}
)

type syncFixture struct {
	connector *syncMockConnector
	states    *memory.StateStore
	runs      *memory.RunStore
	writer    *mockWriter
	orch      *SyncOrchestrator
}

func newSyncFixture(pages ...string) *syncFixture {
	f := &syncFixture{
		connector: &syncMockConnector{
			streams: []domain.Stream{pageStream, postsStream},
			records: make(map[string][]domain.Record),
			errs:    make(map[string]error),
		},
		states: memory.NewStateStore(),
		runs:   memory.NewRunStore(),
		writer: &mockWriter{},
	}
	f.orch = NewSyncOrchestrator(f.connector, f.states, f.runs, f.writer, mockValidator{},
		domain.PartitionsFor(pages), syncStart)
	return f
}

func TestSyncOrchestrator_Run(t *testing.T) {
	f := newSyncFixture("1", "2")
	f.connector.records[key("page", "1")] = []domain.Record{{"id": "1"}}
	f.connector.records[key("page", "2")] = []domain.Record{{"id": "2"}}
	f.connector.records[key("posts", "1")] = []domain.Record{
		{"id": "1_1", "created_time": "2021-02-01T00:00:00+0000"},
		{"id": "1_2", "created_time": "2021-03-01T00:00:00+0000"},
	}

	run, err := f.orch.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Equal(t, 4, run.Records)
	assert.Equal(t, []string{"page", "posts"}, run.Streams)
	assert.NotEmpty(t, run.ID)
	assert.Len(t, f.connector.authorized, 2)

	assert.Equal(t, []string{
		"SCHEMA page", "RECORD page", "STATE", "RECORD page", "STATE",
		"SCHEMA posts", "RECORD posts", "RECORD posts", "STATE", "STATE",
	}, f.writer.messages)
	assert.True(t, f.writer.flushed)

	b, err := f.states.Get(context.Background(), "posts", "1")
	require.NoError(t, err)
	assert.Equal(t, "created_time", b.ReplicationKey)
	assert.True(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC).Equal(b.Value))

	b, err = f.states.Get(context.Background(), "posts", "2")
	require.NoError(t, err)
	assert.True(t, syncStart.Equal(b.Value), "empty partitions keep the start as bookmark")

	_, err = f.states.Get(context.Background(), "page", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "full table streams are not bookmarked")

	last := f.writer.states[len(f.writer.states)-1]
	bm, ok := last.Bookmark("posts", "1")
	require.True(t, ok)
	assert.True(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC).Equal(bm.Value))

	runs, err := f.runs.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunSucceeded, runs[0].Status)
	assert.Equal(t, 4, runs[0].Records)
}

func TestSyncOrchestrator_ResumesFromBookmark(t *testing.T) {
	f := newSyncFixture("1", "2")
	ctx := context.Background()
	later := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.states.Save(ctx, domain.Bookmark{Stream: "posts", PartitionID: "1", Value: later}))
	require.NoError(t, f.states.Save(ctx, domain.Bookmark{Stream: "posts", PartitionID: "2", Value: earlier}))
	require.NoError(t, f.states.Save(ctx, domain.Bookmark{Stream: "page", PartitionID: "1", Value: later}))

	_, err := f.orch.Run(ctx, nil)
	require.NoError(t, err)

	since := make(map[string]time.Time)
	for _, c := range f.connector.calls {
		since[key(c.stream, c.page)] = c.since
	}
	assert.True(t, later.Equal(since[key("posts", "1")]))
	assert.True(t, syncStart.Equal(since[key("posts", "2")]), "bookmarks before the start date are ignored")
	assert.True(t, syncStart.Equal(since[key("page", "1")]), "full table streams ignore bookmarks")
}

func TestSyncOrchestrator_SkipsPartition(t *testing.T) {
	f := newSyncFixture("1", "2")
	f.connector.errs[key("posts", "1")] = fmt.Errorf("page 1: %w: forbidden", domain.ErrPartitionSkipped)
	f.connector.records[key("posts", "2")] = []domain.Record{{"id": "2_1", "created_time": "2021-02-01T00:00:00+0000"}}

	run, err := f.orch.Run(context.Background(), []domain.Stream{postsStream})

	require.NoError(t, err)
	assert.Equal(t, 1, run.SkippedPartitions)
	assert.Equal(t, 1, run.Records)

	_, err = f.states.Get(context.Background(), "posts", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.states.Get(context.Background(), "posts", "2")
	assert.NoError(t, err)

	status, err := f.orch.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.SkippedPartitions)
	assert.Equal(t, 1, status.RecordsWritten)
}

func TestSyncOrchestrator_DropsPageWithRevokedToken(t *testing.T) {
	f := newSyncFixture("1", "2")
	f.connector.errs[key("page", "1")] = fmt.Errorf("page 1: %w: %w: invalid token",
		domain.ErrPartitionSkipped, domain.ErrAuthInvalid)
	f.connector.records[key("page", "2")] = []domain.Record{{"id": "2"}}
	f.connector.records[key("posts", "2")] = []domain.Record{{"id": "2_1", "created_time": "2021-02-01T00:00:00+0000"}}

	run, err := f.orch.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Equal(t, 1, run.SkippedPartitions)
	assert.Equal(t, 2, run.Records)

	var pages []string
	for _, c := range f.connector.calls {
		pages = append(pages, key(c.stream, c.page))
	}
	assert.Equal(t, []string{"page/1", "page/2", "posts/2"}, pages)
}

func TestSyncOrchestrator_ForbiddenSkipIsPerStream(t *testing.T) {
	f := newSyncFixture("1")
	f.connector.errs[key("page", "1")] = fmt.Errorf("page 1: %w: forbidden", domain.ErrPartitionSkipped)

	run, err := f.orch.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, run.SkippedPartitions)
	assert.Len(t, f.connector.calls, 2, "posts still runs for page 1")
}

func TestSyncOrchestrator_AbortsOnError(t *testing.T) {
	f := newSyncFixture("1", "2")
	boom := errors.New("graph error 500")
	f.connector.errs[key("posts", "1")] = boom

	run, err := f.orch.Run(context.Background(), []domain.Stream{postsStream})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Error, "graph error 500")
	require.Len(t, f.connector.calls, 1, "later partitions are not run")
	assert.True(t, f.writer.flushed)

	runs, _ := f.runs.ListRuns(context.Background(), 1)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunFailed, runs[0].Status)
}

func TestSyncOrchestrator_ValidateAndAuthorizeFailures(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		f := newSyncFixture("1")
		f.connector.validateErr = domain.ErrAuthInvalid

		_, err := f.orch.Run(context.Background(), nil)

		assert.ErrorIs(t, err, domain.ErrAuthInvalid)
		assert.Empty(t, f.connector.calls)
	})

	t.Run("authorize", func(t *testing.T) {
		f := newSyncFixture("1")
		f.connector.authErr = domain.ErrTokenExchange

		_, err := f.orch.Run(context.Background(), nil)

		assert.ErrorIs(t, err, domain.ErrTokenExchange)
		assert.Empty(t, f.writer.messages)
	})
}

func TestSyncOrchestrator_DropsInvalidRecords(t *testing.T) {
	f := newSyncFixture("1")
	f.connector.records[key("posts", "1")] = []domain.Record{
		{"id": "1_1", "created_time": "2021-02-01T00:00:00+0000"},
		{"id": "1_2", "bad": true},
	}

	run, err := f.orch.Run(context.Background(), []domain.Stream{postsStream})

	require.NoError(t, err)
	assert.Equal(t, 1, run.Records)
	require.Len(t, f.writer.records, 1)
	assert.Equal(t, "1_1", f.writer.records[0]["id"])

	status, _ := f.orch.Status(context.Background())
	assert.Equal(t, 1, status.ErrorCount)
}

func TestSyncOrchestrator_WriteError(t *testing.T) {
	f := newSyncFixture("1")
	f.connector.records[key("posts", "1")] = []domain.Record{{"id": "1_1"}, {"id": "1_2"}}
	f.writer.writeErr = errors.New("broken pipe")

	_, err := f.orch.Run(context.Background(), []domain.Stream{postsStream})

	assert.ErrorContains(t, err, "broken pipe")
}

func TestSyncOrchestrator_WithoutRunStore(t *testing.T) {
	f := newSyncFixture("1")
	orch := NewSyncOrchestrator(f.connector, f.states, nil, f.writer, nil, domain.PartitionsFor([]string{"1"}), syncStart)

	run, err := orch.Run(context.Background(), []domain.Stream{pageStream})

	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
}

func TestSyncOrchestrator_StatusIdle(t *testing.T) {
	f := newSyncFixture("1")

	status, err := f.orch.Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, driving.SyncStatus{}, *status)
}
