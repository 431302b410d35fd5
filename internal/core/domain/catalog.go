package domain

import (
	"encoding/json"
	"fmt"
)

// Catalog is the Singer catalog produced by discovery and accepted as input
// to select streams.
type Catalog struct {
	Streams []CatalogEntry `json:"streams"`
}

// CatalogEntry describes one stream in the catalog.
type CatalogEntry struct {
	TapStreamID       string          `json:"tap_stream_id"`
	Stream            string          `json:"stream"`
	Schema            json.RawMessage `json:"schema"`
	KeyProperties     []string        `json:"key_properties"`
	ReplicationKey    string          `json:"replication_key,omitempty"`
	ReplicationMethod string          `json:"replication_method,omitempty"`
	Metadata          []MetadataEntry `json:"metadata"`

	// Selected is the legacy stream-level selection flag.
	Selected *bool `json:"selected,omitempty"`
}

// MetadataEntry is one breadcrumb-addressed metadata block.
type MetadataEntry struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   map[string]any `json:"metadata"`
}

// ParseCatalog decodes a Singer catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: catalog: %w", ErrInvalidInput, err)
	}
	return &c, nil
}

// IsSelected reports whether the entry is selected for extraction.
// Stream-level metadata (empty breadcrumb) wins over the legacy flag.
func (e CatalogEntry) IsSelected() bool {
	for _, m := range e.Metadata {
		if len(m.Breadcrumb) != 0 {
			continue
		}
		if v, ok := m.Metadata["selected"].(bool); ok {
			return v
		}
		if v, ok := m.Metadata["selected-by-default"].(bool); ok && e.Selected == nil {
			return v
		}
	}
	return e.Selected != nil && *e.Selected
}

// SelectedStreams returns the tap_stream_ids of the selected entries.
func (c *Catalog) SelectedStreams() []string {
	var out []string
	for _, e := range c.Streams {
		if e.IsSelected() {
			out = append(out, e.TapStreamID)
		}
	}
	return out
}
