package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// ListStreamsInput is the input schema for the list_streams tool.
type ListStreamsInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"only streams of this kind, e.g. page_insights"`
}

// ListStreamsOutput is the output schema for the list_streams tool.
type ListStreamsOutput struct {
	Streams []StreamOutput `json:"streams"`
	Count   int            `json:"count"`
}

// StreamOutput describes one stream.
type StreamOutput struct {
	Name              string   `json:"name"`
	Kind              string   `json:"kind"`
	KeyProperties     []string `json:"key_properties"`
	ReplicationMethod string   `json:"replication_method"`
	ReplicationKey    string   `json:"replication_key,omitempty"`
	Metrics           []string `json:"metrics,omitempty"`
}

// GetBookmarksInput is the input schema for the get_bookmarks tool.
type GetBookmarksInput struct {
	Stream string `json:"stream,omitempty" jsonschema:"only bookmarks of this stream"`
}

// GetBookmarksOutput is the output schema for the get_bookmarks tool.
type GetBookmarksOutput struct {
	Bookmarks []BookmarkOutput `json:"bookmarks"`
	Count     int              `json:"count"`
}

// BookmarkOutput is one stored partition bookmark.
type BookmarkOutput struct {
	Stream         string `json:"stream"`
	PageID         string `json:"page_id"`
	ReplicationKey string `json:"replication_key,omitempty"`
	Value          string `json:"value"`
}

// ListRunsInput is the input schema for the list_runs tool.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 10)"`
}

// ListRunsOutput is the output schema for the list_runs tool.
type ListRunsOutput struct {
	Runs  []RunOutput `json:"runs"`
	Count int         `json:"count"`
}

// RunOutput summarises one sync run.
type RunOutput struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	StartedAt         string   `json:"started_at"`
	FinishedAt        string   `json:"finished_at,omitempty"`
	Streams           []string `json:"streams"`
	Records           int      `json:"records"`
	SkippedPartitions int      `json:"skipped_partitions"`
	Error             string   `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_streams",
		Description: "List the streams the tap can extract",
	}, s.handleListStreams)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_bookmarks",
		Description: "Show the stored replication bookmark of each stream partition",
	}, s.handleGetBookmarks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List recent sync runs, newest first",
	}, s.handleListRuns)
}

func (s *Server) handleListStreams(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListStreamsInput,
) (*mcp.CallToolResult, ListStreamsOutput, error) {
	output := ListStreamsOutput{Streams: []StreamOutput{}}
	for _, st := range s.ports.Catalog.Streams() {
		if input.Kind != "" && string(st.Kind) != input.Kind {
			continue
		}
		output.Streams = append(output.Streams, StreamOutput{
			Name:              st.Name,
			Kind:              string(st.Kind),
			KeyProperties:     st.KeyProperties,
			ReplicationMethod: string(st.ReplicationMethod),
			ReplicationKey:    st.ReplicationKey,
			Metrics:           st.Metrics,
		})
	}
	output.Count = len(output.Streams)
	return nil, output, nil
}

func (s *Server) handleGetBookmarks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetBookmarksInput,
) (*mcp.CallToolResult, GetBookmarksOutput, error) {
	output := GetBookmarksOutput{Bookmarks: []BookmarkOutput{}}
	if s.ports.State == nil {
		return nil, output, nil
	}
	if input.Stream != "" {
		if _, err := s.ports.Catalog.Stream(input.Stream); err != nil {
			return nil, GetBookmarksOutput{}, err
		}
	}

	bookmarks, err := s.ports.State.Bookmarks(ctx, input.Stream)
	if err != nil {
		return nil, GetBookmarksOutput{}, err
	}
	for _, b := range bookmarks {
		output.Bookmarks = append(output.Bookmarks, BookmarkOutput{
			Stream:         b.Stream,
			PageID:         b.PartitionID,
			ReplicationKey: b.ReplicationKey,
			Value:          formatTime(b.Value),
		})
	}
	output.Count = len(output.Bookmarks)
	return nil, output, nil
}

func (s *Server) handleListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	output := ListRunsOutput{Runs: []RunOutput{}}
	if s.ports.State == nil {
		return nil, output, nil
	}
	runs, err := s.ports.State.Runs(ctx, limit)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}
	for _, r := range runs {
		output.Runs = append(output.Runs, runOutput(r))
	}
	output.Count = len(output.Runs)
	return nil, output, nil
}

func runOutput(r domain.SyncRun) RunOutput {
	streams := r.Streams
	if streams == nil {
		streams = []string{}
	}
	out := RunOutput{
		ID:                r.ID,
		Status:            string(r.Status),
		StartedAt:         formatTime(r.StartedAt),
		Streams:           streams,
		Records:           r.Records,
		SkippedPartitions: r.SkippedPartitions,
		Error:             r.Error,
	}
	if !r.FinishedAt.IsZero() {
		out.FinishedAt = formatTime(r.FinishedAt)
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
