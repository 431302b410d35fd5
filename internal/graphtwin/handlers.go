package graphtwin

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	graphTimeLayout  = "2006-01-02T15:04:05-0700"
	defaultLimit     = 25
	tooMuchDataError = "Please reduce the amount of data you're asking for, then retry your request"
)

// metricFieldRe matches the insights.metric(...) field expansion.
var metricFieldRe = regexp.MustCompile(`insights\.metric\(([^)]*)\)`)

type handler struct {
	store *Store
}

func (h *handler) routes(r chi.Router) {
	r.Route("/{version}", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Get("/me", h.me)
		r.Get("/me/accounts", h.accounts)
		r.Get("/{id}", h.node)
		r.Get("/{id}/posts", h.posts)
		r.Get("/{id}/feed", h.posts)
		r.Get("/{id}/insights", h.insights)
	})
}

// authenticate rejects requests without a known token.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		if token == "" {
			graphError(w, http.StatusUnauthorized, 190, "OAuthException", "An access token is required to request this resource.")
			return
		}
		if !h.store.KnownToken(token) {
			graphError(w, http.StatusUnauthorized, 190, "OAuthException", "Invalid OAuth access token - Cannot parse access token")
			return
		}
		faults := h.store.Faults()
		if slices.Contains(faults.RevokedTokens, token) {
			graphError(w, http.StatusUnauthorized, 190, "OAuthException", "Error validating access token: The session has been invalidated because the user changed their password.")
			return
		}
		for _, p := range faults.ServerErrorPaths {
			if strings.Contains(r.URL.Path, p) {
				graphError(w, http.StatusInternalServerError, 2, "OAuthException", "An unexpected error has occurred. Please retry your request later.")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// me handles GET /{version}/me.
func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	userToken, id, name := h.store.User()
	if requestToken(r) != userToken {
		graphError(w, http.StatusBadRequest, 2500, "OAuthException", "An active access token must be used to query information about the current user.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "name": name})
}

// accounts handles GET /{version}/me/accounts with offset paging.
func (h *handler) accounts(w http.ResponseWriter, r *http.Request) {
	userToken, _, _ := h.store.User()
	if requestToken(r) != userToken {
		graphError(w, http.StatusBadRequest, 2500, "OAuthException", "An active access token must be used to query information about the current user.")
		return
	}

	var rows []map[string]any
	for _, p := range h.store.Pages() {
		if p.Hidden {
			continue
		}
		rows = append(rows, map[string]any{"id": p.ID, "name": p.Name, "access_token": p.AccessToken})
	}
	writeJSON(w, http.StatusOK, paginate(r, rows, len(rows)))
}

// node handles GET /{version}/{id}.
func (h *handler) node(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	all := map[string]any{"id": page.ID, "name": page.Name, "access_token": page.AccessToken}
	for k, v := range page.Fields {
		all[k] = v
	}

	out := map[string]any{"id": page.ID}
	fields := splitFields(r.URL.Query().Get("fields"))
	if len(fields) == 0 {
		fields = []string{"id", "name"}
	}
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// posts handles GET /{version}/{id}/posts and /feed.
func (h *handler) posts(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	since, until, ok := h.window(w, r)
	if !ok {
		return
	}

	fields := splitFields(r.URL.Query().Get("fields"))
	var metrics []string
	if m := metricFieldRe.FindStringSubmatch(r.URL.Query().Get("fields")); m != nil {
		metrics = splitFields(m[1])
	}

	posts := make([]Post, 0, len(page.Posts))
	for _, p := range page.Posts {
		created, err := time.Parse(graphTimeLayout, p.CreatedTime)
		if err != nil {
			continue
		}
		if !since.IsZero() && created.Before(since) {
			continue
		}
		if !until.IsZero() && !created.Before(until) {
			continue
		}
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedTime > posts[j].CreatedTime
	})

	rows := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, renderPost(p, fields, metrics))
	}
	writeJSON(w, http.StatusOK, paginate(r, rows, defaultLimit))
}

// insights handles GET /{version}/{id}/insights. Values are returned when
// their end_time falls within (since, until].
func (h *handler) insights(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	since, until, ok := h.window(w, r)
	if !ok {
		return
	}

	wanted := splitFields(r.URL.Query().Get("metric"))
	if len(wanted) == 0 {
		graphError(w, http.StatusBadRequest, 100, "OAuthException", "(#100) The value must be a valid insights metric")
		return
	}
	period := r.URL.Query().Get("period")

	var data []map[string]any
	for _, ins := range page.Insights {
		if !contains(wanted, ins.Name) || (period != "" && ins.Period != period) {
			continue
		}
		var values []map[string]any
		for _, v := range ins.Values {
			end, err := time.Parse(graphTimeLayout, v.EndTime)
			if err != nil {
				continue
			}
			if (!since.IsZero() && !end.After(since)) || (!until.IsZero() && end.After(until)) {
				continue
			}
			values = append(values, map[string]any{"value": v.Value, "end_time": v.EndTime})
		}
		data = append(data, renderInsight(page.ID, ins, values))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// page resolves the {id} node and applies page-level faults.
func (h *handler) page(w http.ResponseWriter, r *http.Request) (Page, bool) {
	id := chi.URLParam(r, "id")
	page, ok := h.store.Page(id)
	if !ok {
		graphError(w, http.StatusNotFound, 100, "GraphMethodException",
			fmt.Sprintf("Unsupported get request. Object with ID '%s' does not exist", id))
		return Page{}, false
	}
	if page.Forbidden {
		graphError(w, http.StatusForbidden, 200, "OAuthException",
			"(#200) The user must be an administrator of the page to access this resource")
		return Page{}, false
	}
	return page, true
}

// window parses since/until and applies the too-much-data faults.
func (h *handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	since, err := parseUnix(q.Get("since"))
	if err != nil {
		graphError(w, http.StatusBadRequest, 100, "OAuthException", "(#100) since must be a unix timestamp")
		return time.Time{}, time.Time{}, false
	}
	until, err := parseUnix(q.Get("until"))
	if err != nil {
		graphError(w, http.StatusBadRequest, 100, "OAuthException", "(#100) until must be a unix timestamp")
		return time.Time{}, time.Time{}, false
	}

	f := h.store.Faults()
	tooMuch := f.AlwaysTooMuchData
	if f.MaxWindow > 0 && !since.IsZero() && !until.IsZero() && until.Sub(since) > f.MaxWindow {
		tooMuch = true
	}
	if f.MaxLimit > 0 {
		if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > f.MaxLimit {
			tooMuch = true
		}
	}
	if tooMuch {
		graphError(w, http.StatusInternalServerError, 1, "OAuthException", tooMuchDataError)
		return time.Time{}, time.Time{}, false
	}
	return since, until, true
}

// renderPost builds the response row of a post for the requested fields.
func renderPost(p Post, fields, metrics []string) map[string]any {
	row := map[string]any{"id": p.ID}
	for _, f := range fields {
		switch {
		case f == "id":
		case f == "created_time":
			row["created_time"] = p.CreatedTime
		case f == "message":
			if p.Message != "" {
				row["message"] = p.Message
			}
		case f == "attachments":
			if len(p.Attachments) > 0 {
				row["attachments"] = map[string]any{"data": cloneRows(p.Attachments)}
			}
		case f == "to":
			if len(p.To) > 0 {
				row["to"] = map[string]any{"data": cloneRows(p.To)}
			}
		case strings.HasPrefix(f, "insights"):
			var data []map[string]any
			for _, ins := range p.Insights {
				if len(metrics) > 0 && !contains(metrics, ins.Name) {
					continue
				}
				values := make([]map[string]any, 0, len(ins.Values))
				for _, v := range ins.Values {
					val := map[string]any{"value": v.Value}
					if v.EndTime != "" {
						val["end_time"] = v.EndTime
					}
					values = append(values, val)
				}
				data = append(data, renderInsight(p.ID, ins, values))
			}
			row["insights"] = map[string]any{"data": data}
		default:
			if v, ok := p.Fields[f]; ok {
				row[f] = v
			}
		}
	}
	return row
}

func renderInsight(objectID string, ins Insight, values []map[string]any) map[string]any {
	return map[string]any{
		"name":        ins.Name,
		"period":      ins.Period,
		"title":       ins.Title,
		"description": ins.Description,
		"id":          objectID + "/insights/" + ins.Name + "/" + ins.Period,
		"values":      values,
	}
}

// paginate slices rows by the after/limit parameters and adds paging links.
// The next link is absolute and carries the access token, as the Graph API
// does.
func paginate(r *http.Request, rows []map[string]any, defaultPageSize int) map[string]any {
	q := r.URL.Query()
	limit := defaultPageSize
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = l
	}
	offset := 0
	if a, err := strconv.Atoi(q.Get("after")); err == nil && a > 0 {
		offset = a
	}
	if offset > len(rows) {
		offset = len(rows)
	}
	end := min(offset+limit, len(rows))

	data := rows[offset:end]
	if data == nil {
		data = []map[string]any{}
	}
	out := map[string]any{"data": data}
	if end < len(rows) {
		next := url.Values{}
		for k, v := range q {
			next[k] = v
		}
		next.Set("after", strconv.Itoa(end))
		next.Set("limit", strconv.Itoa(limit))
		if next.Get("access_token") == "" {
			next.Set("access_token", requestToken(r))
		}
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		out["paging"] = map[string]any{
			"cursors": map[string]any{"before": strconv.Itoa(offset), "after": strconv.Itoa(end)},
			"next":    fmt.Sprintf("%s://%s%s?%s", scheme, r.Host, r.URL.Path, next.Encode()),
		}
	}
	return out
}

// splitFields splits a comma separated field list, keeping parenthesised
// expansions together.
func splitFields(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				if f := strings.TrimSpace(s[start:i]); f != "" {
					out = append(out, f)
				}
				start = i + 1
			}
		}
	}
	if f := strings.TrimSpace(s[start:]); f != "" {
		out = append(out, f)
	}
	return out
}

func parseUnix(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(n, 0).UTC(), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		c := make(map[string]any, len(r))
		for k, v := range r {
			c[k] = v
		}
		out = append(out, c)
	}
	return out
}
