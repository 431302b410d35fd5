package facebook

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// listResponse is the envelope of Graph edge responses.
type listResponse struct {
	Data   []json.RawMessage `json:"data"`
	Paging *paging           `json:"paging,omitempty"`
}

// paging holds the cursors and links of a paginated response.
type paging struct {
	Cursors *struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors,omitempty"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// NextLink returns the paging.next URL of a response, or "".
func (r *listResponse) NextLink() string {
	if r.Paging == nil {
		return ""
	}
	return r.Paging.Next
}

// ContinuationParams turns a paging.next URL into the query parameters of
// the next request. The access token embedded by the API is dropped; requests
// authenticate through the Authorization header.
func ContinuationParams(next string) (url.Values, error) {
	u, err := url.Parse(next)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContinuation, err)
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContinuation, err)
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("%w: no query in %q", ErrInvalidContinuation, redactURL(next))
	}
	q.Del("access_token")
	return q, nil
}
