package graphtwin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *Store {
	return NewStore(Seed{
		UserToken: "user",
		UserID:    "u1",
		UserName:  "Tester",
		Pages: []Page{
			{
				ID:          "1",
				Name:        "Acme",
				AccessToken: "page-1",
				Fields:      map[string]any{"fan_count": 3},
				Posts: []Post{
					{ID: "1_1", CreatedTime: "2021-01-10T00:00:00+0000", Message: "a"},
					{ID: "1_2", CreatedTime: "2021-01-20T00:00:00+0000", Message: "b", Insights: []Insight{
						{Name: "post_clicks", Period: "lifetime", Values: []InsightValue{{Value: 1}}},
						{Name: "post_impressions", Period: "lifetime", Values: []InsightValue{{Value: 9}}},
					}},
					{ID: "1_3", CreatedTime: "2021-02-20T00:00:00+0000", Message: "c"},
				},
				Insights: []Insight{
					{Name: "page_fans", Period: "day", Values: []InsightValue{
						{Value: 1, EndTime: "2021-01-02T08:00:00+0000"},
						{Value: 2, EndTime: "2021-01-03T08:00:00+0000"},
					}},
				},
			},
			{ID: "2", Name: "Locked", AccessToken: "page-2", Forbidden: true},
			{ID: "3", Name: "Hidden", AccessToken: "page-3", Hidden: true},
		},
	})
}

func get(t *testing.T, twin *Twin, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	twin.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func errorCode(t *testing.T, body map[string]any) float64 {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected graph error envelope")
	return e["code"].(float64)
}

func TestTwin_Auth(t *testing.T) {
	twin := New(testStore(), nil)

	rec, body := get(t, twin, "/v10.0/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, float64(190), errorCode(t, body))

	rec, _ = get(t, twin, "/v10.0/me", "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = get(t, twin, "/v10.0/me?access_token=user", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tester", body["name"])
}

func TestTwin_Accounts(t *testing.T) {
	twin := New(testStore(), nil)

	rec, body := get(t, twin, "/v10.0/me/accounts?limit=1", "user")

	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "page-1", data[0].(map[string]any)["access_token"])

	next := body["paging"].(map[string]any)["next"].(string)
	u, err := url.Parse(next)
	require.NoError(t, err)
	assert.Equal(t, "user", u.Query().Get("access_token"))
	assert.Equal(t, "1", u.Query().Get("after"))

	_, body = get(t, twin, u.RequestURI(), "")
	data = body["data"].([]any)
	require.Len(t, data, 1, "hidden pages are not listed")
	assert.Equal(t, "2", data[0].(map[string]any)["id"])
	assert.Nil(t, body["paging"])
}

func TestTwin_Node(t *testing.T) {
	twin := New(testStore(), nil)

	rec, body := get(t, twin, "/v10.0/1?fields=access_token,name,fan_count", "user")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page-1", body["access_token"])
	assert.Equal(t, float64(3), body["fan_count"])

	rec, body = get(t, twin, "/v10.0/2", "user")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, float64(200), errorCode(t, body))

	rec, body = get(t, twin, "/v10.0/404", "user")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(100), errorCode(t, body))
}

func TestTwin_Posts(t *testing.T) {
	twin := New(testStore(), nil)
	since := itoa(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).Unix())
	until := itoa(time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC).Unix())

	rec, body := get(t, twin, "/v10.0/1/posts?fields=id,created_time,message&since="+since+"&until="+until+"&limit=1", "page-1")

	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "1_2", data[0].(map[string]any)["id"], "newest first")
	assert.Equal(t, "b", data[0].(map[string]any)["message"])
	assert.Contains(t, body["paging"].(map[string]any)["next"], "access_token=page-1")
}

func TestTwin_FeedInsights(t *testing.T) {
	twin := New(testStore(), nil)

	_, body := get(t, twin, "/v10.0/1/feed?fields=id,created_time,insights.metric(post_clicks)", "page-1")

	data := body["data"].([]any)
	require.Len(t, data, 3)
	post := data[1].(map[string]any)
	insights := post["insights"].(map[string]any)["data"].([]any)
	require.Len(t, insights, 1)
	assert.Equal(t, "post_clicks", insights[0].(map[string]any)["name"])
	assert.Equal(t, "1_2/insights/post_clicks/lifetime", insights[0].(map[string]any)["id"])
}

func TestTwin_PageInsights(t *testing.T) {
	twin := New(testStore(), nil)
	since := itoa(time.Date(2021, 1, 2, 8, 0, 0, 0, time.UTC).Unix())
	until := itoa(time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC).Unix())

	rec, body := get(t, twin, "/v10.0/1/insights?metric=page_fans&since="+since+"&until="+until, "page-1")

	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	values := data[0].(map[string]any)["values"].([]any)
	require.Len(t, values, 1, "end_time equal to since is excluded")
	assert.Equal(t, float64(2), values[0].(map[string]any)["value"])

	rec, _ = get(t, twin, "/v10.0/1/insights", "page-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTwin_Faults(t *testing.T) {
	store := testStore()
	twin := New(store, nil)
	since := itoa(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).Unix())
	until := itoa(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC).Unix())
	path := "/v10.0/1/posts?since=" + since + "&until=" + until

	store.SetFaults(Faults{MaxWindow: 30 * 24 * time.Hour})
	rec, body := get(t, twin, path, "page-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"].(map[string]any)["message"], "reduce the amount of data")

	store.SetFaults(Faults{MaxLimit: 10})
	rec, _ = get(t, twin, path+"&limit=50", "page-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	rec, _ = get(t, twin, path+"&limit=5", "page-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	store.SetFaults(Faults{ServerErrorPaths: []string{"/insights"}})
	rec, body = get(t, twin, "/v10.0/1/insights?metric=page_fans", "page-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, float64(2), errorCode(t, body))
}

func TestTwin_Admin(t *testing.T) {
	store := testStore()
	twin := New(store, nil)

	get(t, twin, "/v10.0/me", "user")
	require.Len(t, store.Requests(), 1)
	assert.Equal(t, "user", store.Requests()[0].Token)

	req := httptest.NewRequest(http.MethodPost, "/_twin/faults", strings.NewReader(`{"always_too_much_data":true}`))
	rec := httptest.NewRecorder()
	twin.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.Faults().AlwaysTooMuchData)

	rec, body := get(t, twin, "/_twin/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["requests"], 1)

	req = httptest.NewRequest(http.MethodPost, "/_twin/reset", nil)
	twin.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, store.Requests())
	assert.False(t, store.Faults().AlwaysTooMuchData)
}

func TestLoadSeed(t *testing.T) {
	yamlSeed := []byte("user_token: u\npages:\n  - id: \"1\"\n    access_token: p\n    posts:\n      - id: 1_1\n        created_time: \"2021-01-01T00:00:00+0000\"\n")

	seed, err := LoadSeed("seed.yaml", yamlSeed)
	require.NoError(t, err)
	assert.Equal(t, "u", seed.UserToken)
	require.Len(t, seed.Pages, 1)
	assert.Len(t, seed.Pages[0].Posts, 1)

	seed, err = LoadSeed("seed.json", []byte(`{"user_token":"u","pages":[{"id":"1"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "1", seed.Pages[0].ID)

	_, err = LoadSeed("seed.json", []byte(`{`))
	assert.Error(t, err)
}

func TestSplitFields(t *testing.T) {
	got := splitFields("id, created_time,insights.metric(a,b),to")

	assert.Equal(t, []string{"id", "created_time", "insights.metric(a,b)", "to"}, got)
	assert.Empty(t, splitFields(""))
}
