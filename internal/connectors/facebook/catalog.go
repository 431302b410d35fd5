package facebook

import (
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// Entity stream names.
const (
	StreamPage              = "page"
	StreamPosts             = "posts"
	StreamPostAttachments   = "post_attachments"
	StreamPostTaggedProfile = "post_tagged_profile"
)

// Field lists of the fixed post edge requests.
const (
	attachmentsRequestFields = "id,created_time,attachments"
	taggedRequestFields      = "id,created_time,to"
)

// Streams returns every stream in catalog order: the entity streams, then
// page insights, then post insights.
func Streams() []domain.Stream {
	return slices.Clone(catalog())
}

var catalog = sync.OnceValue(buildStreams)

func buildStreams() []domain.Stream {
	streams := []domain.Stream{
		{
			Name:              StreamPage,
			Kind:              domain.KindPage,
			Path:              "",
			KeyProperties:     []string{"id"},
			ReplicationMethod: domain.ReplicationFullTable,
			Schema:            buildSchema(pageFields),
		},
		{
			Name:              StreamPosts,
			Kind:              domain.KindPosts,
			Path:              "/posts",
			KeyProperties:     []string{"id"},
			ReplicationKey:    "created_time",
			ReplicationMethod: domain.ReplicationIncremental,
			Schema:            buildSchema(postFields, parentFields[:1]),
		},
		{
			Name:              StreamPostAttachments,
			Kind:              domain.KindPostAttachments,
			Path:              "/posts",
			KeyProperties:     []string{"post_id", "url"},
			ReplicationKey:    "post_created_time",
			ReplicationMethod: domain.ReplicationIncremental,
			Schema:            buildSchema(attachmentFields, parentFields),
		},
		{
			Name:              StreamPostTaggedProfile,
			Kind:              domain.KindPostTaggedProfile,
			Path:              "/posts",
			KeyProperties:     []string{"id", "post_id"},
			ReplicationKey:    "post_created_time",
			ReplicationMethod: domain.ReplicationIncremental,
			Schema:            buildSchema(taggedProfileFields, parentFields),
		},
	}

	pageInsightSchema := buildSchema(insightFields, parentFields[:1])
	for _, g := range pageInsightGroups {
		streams = append(streams, domain.Stream{
			Name:              g.name,
			Kind:              domain.KindPageInsights,
			Path:              "/insights",
			KeyProperties:     []string{"id", "end_time", "context"},
			ReplicationKey:    "end_time",
			ReplicationMethod: domain.ReplicationIncremental,
			Metrics:           slices.Clone(g.metrics),
			Schema:            pageInsightSchema,
		})
	}

	postInsightSchema := buildSchema(insightFields, parentFields)
	for _, g := range postInsightGroups {
		streams = append(streams, domain.Stream{
			Name:              g.name,
			Kind:              domain.KindPostInsights,
			Path:              "/feed",
			KeyProperties:     []string{"id", "post_id", "context"},
			ReplicationKey:    "post_created_time",
			ReplicationMethod: domain.ReplicationIncremental,
			Metrics:           slices.Clone(g.metrics),
			Schema:            postInsightSchema,
		})
	}
	return streams
}

// FindStream returns the stream with the given name.
func FindStream(name string) (domain.Stream, bool) {
	for _, s := range catalog() {
		if s.Name == name {
			return s, true
		}
	}
	return domain.Stream{}, false
}

// BaseParams returns the stream-specific query parameters sent with the
// first request of every window.
func BaseParams(stream domain.Stream, cfg *Config) url.Values {
	params := url.Values{}
	switch stream.Kind {
	case domain.KindPage:
		params.Set("fields", strings.Join(requestFields(cfg.Columns, fieldNames(pageFields), nil), ","))
	case domain.KindPosts:
		required := []string{"id", "created_time"}
		params.Set("fields", strings.Join(requestFields(cfg.Columns, fieldNames(postFields), required), ","))
	case domain.KindPostAttachments:
		params.Set("fields", attachmentsRequestFields)
	case domain.KindPostTaggedProfile:
		params.Set("fields", taggedRequestFields)
	case domain.KindPageInsights:
		params.Set("metric", strings.Join(stream.Metrics, ","))
		if cfg.InsightsPeriod != "" {
			params.Set("period", cfg.InsightsPeriod)
		}
	case domain.KindPostInsights:
		params.Set("fields", "id,created_time,insights.metric("+strings.Join(stream.Metrics, ",")+")")
	}
	return params
}

// requestFields returns the configured columns, or the defaults, with the
// required fields prepended when missing.
func requestFields(columns, defaults, required []string) []string {
	if len(columns) == 0 {
		return defaults
	}
	out := make([]string, 0, len(columns)+len(required))
	for _, r := range required {
		if !slices.Contains(columns, r) {
			out = append(out, r)
		}
	}
	return append(out, columns...)
}
