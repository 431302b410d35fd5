package facebook

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// postRow is a row of /posts or /feed with the edges the post streams expand.
type postRow struct {
	ID          string `json:"id"`
	CreatedTime string `json:"created_time"`
	Attachments *struct {
		Data []domain.Record `json:"data"`
	} `json:"attachments,omitempty"`
	To *struct {
		Data []domain.Record `json:"data"`
	} `json:"to,omitempty"`
	Insights *struct {
		Data []insightRow `json:"data"`
	} `json:"insights,omitempty"`
}

// insightRow is one metric of an insights response.
type insightRow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Period      string          `json:"period"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Values      []domain.Record `json:"values"`
}

// Flatten reshapes one row of a response into the records of a stream.
// Every record derived from a page carries page_id; records derived from a
// post also carry post_id and post_created_time.
func Flatten(kind domain.StreamKind, pageID string, raw json.RawMessage) ([]domain.Record, error) {
	switch kind {
	case domain.KindPage:
		var rec domain.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		return []domain.Record{rec}, nil

	case domain.KindPosts:
		var rec domain.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode post: %w", err)
		}
		rec["page_id"] = pageID
		return []domain.Record{rec}, nil

	case domain.KindPostAttachments:
		row, err := decodePost(raw)
		if err != nil {
			return nil, err
		}
		return flattenAttachments(row, pageID), nil

	case domain.KindPostTaggedProfile:
		row, err := decodePost(raw)
		if err != nil {
			return nil, err
		}
		return flattenTagged(row, pageID), nil

	case domain.KindPageInsights:
		var row insightRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode insight: %w", err)
		}
		base := domain.Record{
			"name":    row.Name,
			"period":  row.Period,
			"title":   row.Title,
			"id":      row.ID,
			"page_id": pageID,
		}
		if row.Description != "" {
			base["description"] = row.Description
		}
		return flattenValues(row.Values, base, true), nil

	case domain.KindPostInsights:
		row, err := decodePost(raw)
		if err != nil {
			return nil, err
		}
		return flattenPostInsights(row, pageID), nil
	}
	return nil, fmt.Errorf("%w: unknown stream kind %q", domain.ErrInvalidInput, kind)
}

func decodePost(raw json.RawMessage) (*postRow, error) {
	var row postRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	return &row, nil
}

func parentInfo(row *postRow, pageID string) domain.Record {
	return domain.Record{
		"page_id":           pageID,
		"post_id":           row.ID,
		"post_created_time": row.CreatedTime,
	}
}

// flattenAttachments emits each sub-attachment, then its parent attachment
// without the nested list.
func flattenAttachments(row *postRow, pageID string) []domain.Record {
	if row.Attachments == nil {
		return nil
	}
	parent := parentInfo(row, pageID)

	var out []domain.Record
	for _, att := range row.Attachments.Data {
		if subs, ok := att["subattachments"].(map[string]any); ok {
			if data, ok := subs["data"].([]any); ok {
				for _, d := range data {
					sub, ok := d.(map[string]any)
					if !ok {
						continue
					}
					rec := domain.Record(sub)
					maps.Copy(rec, parent)
					out = append(out, rec)
				}
			}
		}
		delete(att, "subattachments")
		maps.Copy(att, parent)
		out = append(out, att)
	}
	return out
}

// flattenTagged emits each profile tagged in a post.
func flattenTagged(row *postRow, pageID string) []domain.Record {
	if row.To == nil {
		return nil
	}
	parent := parentInfo(row, pageID)

	out := make([]domain.Record, 0, len(row.To.Data))
	for _, profile := range row.To.Data {
		maps.Copy(profile, parent)
		out = append(out, profile)
	}
	return out
}

// flattenPostInsights emits the metric values of every insight of a post.
func flattenPostInsights(row *postRow, pageID string) []domain.Record {
	if row.Insights == nil {
		return nil
	}

	var out []domain.Record
	for _, ins := range row.Insights.Data {
		base := parentInfo(row, pageID)
		base["name"] = ins.Name
		base["period"] = ins.Period
		base["title"] = ins.Title
		base["description"] = ins.Description
		base["id"] = ins.ID
		out = append(out, flattenValues(ins.Values, base, false)...)
	}
	return out
}

// flattenValues emits one record per value. A value that is an object is a
// breakdown: it yields one record per key with the key as context. Page
// insight breakdowns keep the end_time of their value.
func flattenValues(values []domain.Record, base domain.Record, keepEndTime bool) []domain.Record {
	var out []domain.Record
	for _, v := range values {
		breakdown, ok := v["value"].(map[string]any)
		if !ok {
			rec := v.Clone()
			maps.Copy(rec, base)
			out = append(out, rec)
			continue
		}

		for _, key := range slices.Sorted(maps.Keys(breakdown)) {
			rec := domain.Record{
				"context": key,
				"value":   breakdown[key],
			}
			if keepEndTime {
				if endTime, ok := v["end_time"]; ok {
					rec["end_time"] = endTime
				}
			}
			maps.Copy(rec, base)
			out = append(out, rec)
		}
	}
	return out
}
