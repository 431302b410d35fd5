package facebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

func TestFlatten_Page(t *testing.T) {
	records, err := Flatten(domain.KindPage, "1", json.RawMessage(`{"id":"1","name":"Acme","fan_count":10}`))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0]["name"])
	assert.NotContains(t, records[0], "page_id")
}

func TestFlatten_Posts(t *testing.T) {
	records, err := Flatten(domain.KindPosts, "1", json.RawMessage(`{"id":"1_2","created_time":"2021-03-04T08:00:00+0000","message":"hi"}`))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0]["page_id"])
	assert.Equal(t, "hi", records[0]["message"])
}

func TestFlatten_Attachments(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "1_2",
		"created_time": "2021-03-04T08:00:00+0000",
		"attachments": {"data": [
			{"type": "album", "url": "https://fb/album",
			 "subattachments": {"data": [
				{"type": "photo", "url": "https://fb/p1"},
				{"type": "photo", "url": "https://fb/p2"}
			 ]}},
			{"type": "share", "url": "https://fb/share"}
		]}
	}`)

	records, err := Flatten(domain.KindPostAttachments, "1", raw)

	require.NoError(t, err)
	require.Len(t, records, 4)

	var urls []string
	for _, r := range records {
		urls = append(urls, r["url"].(string))
		assert.Equal(t, "1", r["page_id"])
		assert.Equal(t, "1_2", r["post_id"])
		assert.Equal(t, "2021-03-04T08:00:00+0000", r["post_created_time"])
		assert.NotContains(t, r, "subattachments")
	}
	assert.Equal(t, []string{"https://fb/p1", "https://fb/p2", "https://fb/album", "https://fb/share"}, urls)
}

func TestFlatten_AttachmentsMissing(t *testing.T) {
	records, err := Flatten(domain.KindPostAttachments, "1", json.RawMessage(`{"id":"1_2","created_time":"2021-03-04T08:00:00+0000"}`))

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFlatten_TaggedProfiles(t *testing.T) {
	raw := json.RawMessage(`{"id":"1_2","created_time":"2021-03-04T08:00:00+0000",
		"to":{"data":[{"id":"u1","name":"Ann"},{"id":"u2","name":"Bo"}]}}`)

	records, err := Flatten(domain.KindPostTaggedProfile, "1", raw)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "u1", records[0]["id"])
	assert.Equal(t, "1_2", records[0]["post_id"])
	assert.Equal(t, "u2", records[1]["id"])
}

func TestFlatten_PageInsights(t *testing.T) {
	t.Run("scalar values", func(t *testing.T) {
		raw := json.RawMessage(`{"id":"1/insights/page_fans/day","name":"page_fans","period":"day",
			"title":"Lifetime Total Likes","description":"Total likes",
			"values":[{"value":10,"end_time":"2021-03-04T08:00:00+0000"},{"value":12,"end_time":"2021-03-05T08:00:00+0000"}]}`)

		records, err := Flatten(domain.KindPageInsights, "1", raw)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, float64(10), records[0]["value"])
		assert.Equal(t, "2021-03-04T08:00:00+0000", records[0]["end_time"])
		assert.Equal(t, "page_fans", records[0]["name"])
		assert.Equal(t, "1", records[0]["page_id"])
		assert.Equal(t, "Total likes", records[0]["description"])
		assert.NotContains(t, records[0], "context")
	})

	t.Run("breakdown values yield one record per key", func(t *testing.T) {
		raw := json.RawMessage(`{"id":"1/insights/page_fans_country/day","name":"page_fans_country","period":"day","title":"Fans",
			"values":[{"value":{"US":5,"FR":3},"end_time":"2021-03-04T08:00:00+0000"}]}`)

		records, err := Flatten(domain.KindPageInsights, "1", raw)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "FR", records[0]["context"])
		assert.Equal(t, float64(3), records[0]["value"])
		assert.Equal(t, "US", records[1]["context"])
		assert.Equal(t, "2021-03-04T08:00:00+0000", records[1]["end_time"])
		assert.NotContains(t, records[0], "description")
	})
}

func TestFlatten_PostInsights(t *testing.T) {
	raw := json.RawMessage(`{"id":"1_2","created_time":"2021-03-04T08:00:00+0000",
		"insights":{"data":[
			{"id":"1_2/insights/post_clicks/lifetime","name":"post_clicks","period":"lifetime","title":"Clicks","description":"d",
			 "values":[{"value":7}]},
			{"id":"1_2/insights/post_reactions_by_type_total/lifetime","name":"post_reactions_by_type_total","period":"lifetime","title":"Reactions","description":"d",
			 "values":[{"value":{"like":4,"love":1},"end_time":"2021-03-06T08:00:00+0000"}]}
		]}}`)

	records, err := Flatten(domain.KindPostInsights, "1", raw)

	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, float64(7), records[0]["value"])
	assert.Equal(t, "1_2", records[0]["post_id"])
	assert.Equal(t, "2021-03-04T08:00:00+0000", records[0]["post_created_time"])

	assert.Equal(t, "like", records[1]["context"])
	assert.Equal(t, "love", records[2]["context"])
	assert.NotContains(t, records[1], "end_time")
	for _, r := range records {
		assert.Equal(t, "1", r["page_id"])
	}
}

func TestFlatten_Errors(t *testing.T) {
	_, err := Flatten(domain.KindPosts, "1", json.RawMessage(`[`))
	assert.Error(t, err)

	_, err = Flatten(domain.StreamKind("bogus"), "1", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
