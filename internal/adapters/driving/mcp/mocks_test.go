package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driving"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/services"
)

var testStreams = []domain.Stream{
	{
		Name: "page", Kind: domain.KindPage, KeyProperties: []string{"id"},
		ReplicationMethod: domain.ReplicationFullTable,
		Schema:            json.RawMessage(`{"type":"object","properties":{"id":{"type":["string","null"]}}}`),
	},
	{
		Name: "posts", Kind: domain.KindPosts, KeyProperties: []string{"id"},
		ReplicationKey: "created_time", ReplicationMethod: domain.ReplicationIncremental,
		Schema: json.RawMessage(`{"type":"object","properties":{"id":{"type":["string","null"]},"created_time":{"type":["string","null"]}}}`),
	},
	{
		Name: "page_insight_fans", Kind: domain.KindPageInsights, KeyProperties: []string{"id"},
		ReplicationKey: "end_time", ReplicationMethod: domain.ReplicationIncremental,
		Metrics: []string{"page_fans"},
		Schema:  json.RawMessage(`{"type":"object"}`),
	},
}

// mockStateService fails every call with err.
type mockStateService struct {
	err error
}

func (m *mockStateService) State(context.Context) (*domain.State, error) { return nil, m.err }

func (m *mockStateService) Bookmarks(context.Context, string) ([]domain.Bookmark, error) {
	return nil, m.err
}

func (m *mockStateService) Import(context.Context, *domain.State) error { return m.err }

func (m *mockStateService) Reset(context.Context, string) error { return m.err }

func (m *mockStateService) Runs(context.Context, int) ([]domain.SyncRun, error) { return nil, m.err }

var _ driving.StateService = (*mockStateService)(nil)

// newTestPorts wires the real services over memory stores with one bookmark
// per incremental stream and one finished run.
func newTestPorts(t *testing.T) *Ports {
	t.Helper()
	ctx := context.Background()
	value := time.Date(2021, 3, 4, 8, 0, 0, 0, time.UTC)

	states := memory.NewStateStore()
	require.NoError(t, states.Save(ctx, domain.Bookmark{Stream: "posts", PartitionID: "1", ReplicationKey: "created_time", Value: value}))
	require.NoError(t, states.Save(ctx, domain.Bookmark{Stream: "page_insight_fans", PartitionID: "1", ReplicationKey: "end_time", Value: value}))

	runs := memory.NewRunStore()
	require.NoError(t, runs.StartRun(ctx, domain.SyncRun{ID: "run-1", StartedAt: value, Status: domain.RunRunning, Streams: []string{"posts"}}))
	require.NoError(t, runs.FinishRun(ctx, domain.SyncRun{
		ID: "run-1", StartedAt: value, FinishedAt: value.Add(time.Minute),
		Status: domain.RunSucceeded, Streams: []string{"posts"}, Records: 3,
	}))

	return &Ports{
		Catalog: services.NewCatalogService(testStreams),
		State:   services.NewStateService(states, runs),
	}
}
