package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/services"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestExtractStreamName(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid schema URI", "fbpages://streams/posts/schema", "posts"},
		{"invalid prefix", "file://streams/posts/schema", ""},
		{"missing schema suffix", "fbpages://streams/posts", ""},
		{"empty stream", "fbpages://streams//schema", ""},
		{"no stream segment", "fbpages://streams/schema", ""},
		{"nested path", "fbpages://streams/a/b/schema", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractStreamName(tt.uri))
		})
	}
}

func TestServer_handleCatalogResource(t *testing.T) {
	server, err := NewServer(newTestPorts(t))
	require.NoError(t, err)

	result, err := server.handleCatalogResource(context.Background(), readRequest("fbpages://catalog"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	catalog, err := domain.ParseCatalog([]byte(result.Contents[0].Text))
	require.NoError(t, err)
	assert.Len(t, catalog.Streams, 3)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
}

func TestServer_handleStateResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored bookmarks", func(t *testing.T) {
		server, err := NewServer(newTestPorts(t))
		require.NoError(t, err)

		result, err := server.handleStateResource(ctx, readRequest("fbpages://state"))

		require.NoError(t, err)
		state, err := domain.ParseState([]byte(result.Contents[0].Text))
		require.NoError(t, err)
		_, ok := state.Bookmark("posts", "1")
		assert.True(t, ok)
	})

	t.Run("no state service returns empty state", func(t *testing.T) {
		server, err := NewServer(&Ports{Catalog: services.NewCatalogService(testStreams)})
		require.NoError(t, err)

		result, err := server.handleStateResource(ctx, readRequest("fbpages://state"))

		require.NoError(t, err)
		assert.JSONEq(t, `{"bookmarks":{}}`, result.Contents[0].Text)
	})

	t.Run("state failure returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Catalog: services.NewCatalogService(testStreams),
			State:   &mockStateService{err: errors.New("db down")},
		})
		require.NoError(t, err)

		_, err = server.handleStateResource(ctx, readRequest("fbpages://state"))

		assert.Error(t, err)
	})
}

func TestServer_handleSchemaResource(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(newTestPorts(t))
	require.NoError(t, err)

	result, err := server.handleSchemaResource(ctx, readRequest("fbpages://streams/posts/schema"))
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &schema))
	assert.Contains(t, schema["properties"], "created_time")

	_, err = server.handleSchemaResource(ctx, readRequest("fbpages://streams/videos/schema"))
	assert.Error(t, err)

	_, err = server.handleSchemaResource(ctx, readRequest("fbpages://streams"))
	assert.Error(t, err)
}
