package services

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driving"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService builds the Singer catalog from the connector's streams and
// resolves stream selection.
type CatalogService struct {
	streams []domain.Stream
}

// NewCatalogService creates a catalog service over streams, kept in order.
func NewCatalogService(streams []domain.Stream) *CatalogService {
	return &CatalogService{streams: slices.Clone(streams)}
}

// Streams returns every stream.
func (s *CatalogService) Streams() []domain.Stream {
	return slices.Clone(s.streams)
}

// Stream returns one stream by name.
func (s *CatalogService) Stream(name string) (domain.Stream, error) {
	for _, st := range s.streams {
		if st.Name == name {
			return st, nil
		}
	}
	return domain.Stream{}, fmt.Errorf("%w: %s", domain.ErrStreamNotFound, name)
}

// Discover builds the Singer catalog. Every stream is selected by default;
// key properties and the replication key are automatically included.
func (s *CatalogService) Discover() *domain.Catalog {
	catalog := &domain.Catalog{Streams: make([]domain.CatalogEntry, 0, len(s.streams))}
	for _, st := range s.streams {
		catalog.Streams = append(catalog.Streams, catalogEntry(st))
	}
	return catalog
}

func catalogEntry(st domain.Stream) domain.CatalogEntry {
	streamMeta := map[string]any{
		"inclusion":                 "available",
		"selected-by-default":       true,
		"table-key-properties":      st.KeyProperties,
		"forced-replication-method": string(st.ReplicationMethod),
	}
	if st.ReplicationKey != "" {
		streamMeta["valid-replication-keys"] = []string{st.ReplicationKey}
	}

	metadata := []domain.MetadataEntry{{Breadcrumb: []string{}, Metadata: streamMeta}}
	for _, prop := range propertyNames(st.Schema) {
		inclusion := "available"
		if slices.Contains(st.KeyProperties, prop) || prop == st.ReplicationKey {
			inclusion = "automatic"
		}
		metadata = append(metadata, domain.MetadataEntry{
			Breadcrumb: []string{"properties", prop},
			Metadata:   map[string]any{"inclusion": inclusion},
		})
	}

	return domain.CatalogEntry{
		TapStreamID:       st.Name,
		Stream:            st.Name,
		Schema:            st.Schema,
		KeyProperties:     st.KeyProperties,
		ReplicationKey:    st.ReplicationKey,
		ReplicationMethod: string(st.ReplicationMethod),
		Metadata:          metadata,
	}
}

// propertyNames returns the sorted top-level property names of a schema.
func propertyNames(schema json.RawMessage) []string {
	var s struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(schema, &s); err != nil {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the streams selected in catalog, in catalog order of the
// tap. A nil catalog selects every stream.
func (s *CatalogService) Select(catalog *domain.Catalog) ([]domain.Stream, error) {
	if catalog == nil {
		return s.Streams(), nil
	}

	selected := make(map[string]bool)
	var unknown []string
	for _, id := range catalog.SelectedStreams() {
		if _, err := s.Stream(id); err != nil {
			unknown = append(unknown, id)
			continue
		}
		selected[id] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrStreamNotFound, strings.Join(unknown, ", "))
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no streams selected in catalog", domain.ErrInvalidInput)
	}

	out := make([]domain.Stream, 0, len(selected))
	for _, st := range s.streams {
		if selected[st.Name] {
			out = append(out, st)
		}
	}
	return out, nil
}

// SelectNames resolves stream names given on the command line.
func (s *CatalogService) SelectNames(names []string) ([]domain.Stream, error) {
	if len(names) == 0 {
		return s.Streams(), nil
	}
	out := make([]domain.Stream, 0, len(names))
	for _, name := range names {
		st, err := s.Stream(name)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
