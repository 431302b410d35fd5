package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Bookmark is the replication cursor of one partition of one stream.
type Bookmark struct {
	// Stream is the tap_stream_id.
	Stream string

	// PartitionID is the page id.
	PartitionID string

	// ReplicationKey is the record field the value was read from.
	ReplicationKey string

	// Value is the greatest replication key value emitted so far.
	Value time.Time

	// UpdatedAt is when the bookmark was last saved.
	UpdatedAt time.Time
}

// Advance moves the bookmark forward to t if t is later.
func (b *Bookmark) Advance(t time.Time) {
	if t.After(b.Value) {
		b.Value = t
	}
}

// State is the Singer state document:
//
//	{"bookmarks": {"posts": {"partitions": [
//	  {"context": {"page_id": "1"}, "replication_key": "created_time",
//	   "replication_key_value": "2021-03-04T08:00:00Z"}]}}}
type State struct {
	Bookmarks map[string]*StreamState `json:"bookmarks"`
}

// StreamState holds the per-partition bookmarks of one stream.
type StreamState struct {
	Partitions []PartitionState `json:"partitions"`
}

// PartitionState is one entry in StreamState.Partitions.
type PartitionState struct {
	Context             map[string]any `json:"context"`
	ReplicationKey      string         `json:"replication_key,omitempty"`
	ReplicationKeyValue string         `json:"replication_key_value,omitempty"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Bookmarks: make(map[string]*StreamState)}
}

// ParseState decodes a Singer state document.
// Empty input yields an empty state.
func ParseState(data []byte) (*State, error) {
	st := NewState()
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w: state: %w", ErrInvalidInput, err)
	}
	if st.Bookmarks == nil {
		st.Bookmarks = make(map[string]*StreamState)
	}
	return st, nil
}

// Bookmark returns the bookmark for a stream partition.
func (s *State) Bookmark(stream, pageID string) (Bookmark, bool) {
	ss, ok := s.Bookmarks[stream]
	if !ok || ss == nil {
		return Bookmark{}, false
	}
	for _, p := range ss.Partitions {
		if partitionPageID(p.Context) != pageID {
			continue
		}
		t, ok := ParseTime(p.ReplicationKeyValue)
		if !ok {
			return Bookmark{}, false
		}
		return Bookmark{
			Stream:         stream,
			PartitionID:    pageID,
			ReplicationKey: p.ReplicationKey,
			Value:          t,
		}, true
	}
	return Bookmark{}, false
}

// SetBookmark inserts or replaces the bookmark for b's stream partition.
func (s *State) SetBookmark(b Bookmark) {
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]*StreamState)
	}
	ss, ok := s.Bookmarks[b.Stream]
	if !ok || ss == nil {
		ss = &StreamState{}
		s.Bookmarks[b.Stream] = ss
	}
	entry := PartitionState{
		Context:             Partition{PageID: b.PartitionID}.Context(),
		ReplicationKey:      b.ReplicationKey,
		ReplicationKeyValue: b.Value.UTC().Format(time.RFC3339),
	}
	for i, p := range ss.Partitions {
		if partitionPageID(p.Context) == b.PartitionID {
			ss.Partitions[i] = entry
			return
		}
	}
	ss.Partitions = append(ss.Partitions, entry)
}

// All returns every bookmark in the state ordered by stream then partition.
func (s *State) All() []Bookmark {
	var out []Bookmark
	for stream, ss := range s.Bookmarks {
		if ss == nil {
			continue
		}
		for _, p := range ss.Partitions {
			if b, ok := s.Bookmark(stream, partitionPageID(p.Context)); ok {
				out = append(out, b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stream != out[j].Stream {
			return out[i].Stream < out[j].Stream
		}
		return out[i].PartitionID < out[j].PartitionID
	})
	return out
}

// StateFrom builds a state document from a list of bookmarks.
func StateFrom(bookmarks []Bookmark) *State {
	st := NewState()
	for _, b := range bookmarks {
		st.SetBookmark(b)
	}
	return st
}

func partitionPageID(ctx map[string]any) string {
	if ctx == nil {
		return ""
	}
	switch v := ctx["page_id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
