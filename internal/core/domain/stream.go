package domain

import "encoding/json"

// StreamKind selects the request template and response flattener for a stream.
type StreamKind string

const (
	KindPage              StreamKind = "page"
	KindPosts             StreamKind = "posts"
	KindPostAttachments   StreamKind = "post_attachments"
	KindPostTaggedProfile StreamKind = "post_tagged_profile"
	KindPageInsights      StreamKind = "page_insights"
	KindPostInsights      StreamKind = "post_insights"
)

// ReplicationMethod is how a stream is replicated between runs.
type ReplicationMethod string

const (
	// ReplicationFullTable re-extracts everything on every run.
	ReplicationFullTable ReplicationMethod = "FULL_TABLE"

	// ReplicationIncremental resumes from the stored bookmark.
	ReplicationIncremental ReplicationMethod = "INCREMENTAL"
)

// Stream describes one output stream of the tap.
type Stream struct {
	// Name is the tap_stream_id, e.g. "page_insight_engagement".
	Name string

	// Kind selects how requests are built and responses are reshaped.
	Kind StreamKind

	// Path is the edge appended to the page node, e.g. "/posts".
	Path string

	// KeyProperties are the primary key columns of emitted records.
	KeyProperties []string

	// ReplicationKey is the record field used as bookmark.
	// Empty for FULL_TABLE streams.
	ReplicationKey string

	// ReplicationMethod is FULL_TABLE or INCREMENTAL.
	ReplicationMethod ReplicationMethod

	// Metrics lists the insight metric names for insight streams.
	Metrics []string

	// Schema is the JSON schema of emitted records.
	Schema json.RawMessage
}

// IsIncremental reports whether the stream resumes from a bookmark.
func (s Stream) IsIncremental() bool {
	return s.ReplicationMethod == ReplicationIncremental && s.ReplicationKey != ""
}

// IsInsight reports whether the stream emits insight metric records.
func (s Stream) IsInsight() bool {
	return s.Kind == KindPageInsights || s.Kind == KindPostInsights
}

// Partition is one page's extraction context.
type Partition struct {
	PageID string
}

// Context returns the partition context as written to state.
func (p Partition) Context() map[string]any {
	return map[string]any{"page_id": p.PageID}
}

// PartitionsFor builds one partition per page id, preserving order and
// dropping duplicates.
func PartitionsFor(pageIDs []string) []Partition {
	seen := make(map[string]bool, len(pageIDs))
	parts := make([]Partition, 0, len(pageIDs))
	for _, id := range pageIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		parts = append(parts, Partition{PageID: id})
	}
	return parts
}
