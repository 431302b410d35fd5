package facebook

import (
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// MinWindow is the narrowest span a window is halved to.
const MinWindow = time.Hour

// Window is the [Since, Until) range of one request, advanced across calls
// until it reaches End.
type Window struct {
	Since time.Time
	Until time.Time
	End   time.Time

	// Span is the width of the next window. It only ever shrinks.
	Span time.Duration
}

// NewWindow creates the first window from start, at most span wide and
// never past end. Spans wider than MaxWindow are capped.
func NewWindow(start, end time.Time, span time.Duration) *Window {
	if span <= 0 || span > MaxWindow {
		span = MaxWindow
	}
	w := &Window{Since: start.UTC(), End: end.UTC(), Span: span}
	w.Until = w.clamp(w.Since.Add(span))
	return w
}

func (w *Window) clamp(t time.Time) time.Time {
	if t.After(w.End) {
		return w.End
	}
	return t
}

// Done reports whether the window has reached End.
func (w *Window) Done() bool {
	return !w.Since.Before(w.End)
}

// Next moves to the window starting at the current Until.
func (w *Window) Next() {
	w.Since = w.Until
	w.Until = w.clamp(w.Since.Add(w.Span))
}

// Halve narrows the current window to half its width and keeps the smaller
// span for the windows that follow. Returns false when the window is
// already at MinWindow.
func (w *Window) Halve() bool {
	half := w.Until.Sub(w.Since) / 2
	if half < MinWindow {
		return false
	}
	w.Span = half
	w.Until = w.Since.Add(half)
	return true
}

// Params returns the since/until query parameters in unix seconds.
func (w *Window) Params() url.Values {
	return url.Values{
		"since": {strconv.FormatInt(w.Since.Unix(), 10)},
		"until": {strconv.FormatInt(w.Until.Unix(), 10)},
	}
}

// Controller produces the request parameters of one stream partition,
// advancing through paging links and windows, and narrowing requests when
// the API reports too much data.
type Controller struct {
	stream       domain.Stream
	base         url.Values
	window       *Window
	continuation url.Values
	limit        int
	maxAttempts  int
	failures     int
	done         bool
}

// NewController creates a controller. A nil window issues a single request.
func NewController(stream domain.Stream, base url.Values, window *Window, maxAttempts int) *Controller {
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxRetries
	}
	c := &Controller{
		stream:      stream,
		base:        base,
		window:      window,
		limit:       domain.DefaultPageSize,
		maxAttempts: maxAttempts,
	}
	c.done = window != nil && window.Done()
	return c
}

// Done reports whether every request has been issued.
func (c *Controller) Done() bool {
	return c.done
}

// Window returns the current window, or nil for single-request streams.
func (c *Controller) Window() *Window {
	return c.window
}

// Continuing reports whether the next request follows a paging link.
func (c *Controller) Continuing() bool {
	return c.continuation != nil
}

// Params returns the query parameters of the next request.
func (c *Controller) Params() url.Values {
	if c.continuation != nil {
		return cloneValues(c.continuation)
	}

	params := cloneValues(c.base)
	if c.window != nil {
		for k, v := range c.window.Params() {
			params[k] = v
		}
		params.Set("limit", strconv.Itoa(c.limit))
	}
	return params
}

// Advance records a successful response. With a paging link, the next
// request continues the current window; otherwise the window moves on.
func (c *Controller) Advance(next string) error {
	c.failures = 0

	if next != "" && followsPaging(c.stream.Kind) && c.window != nil {
		params, err := ContinuationParams(next)
		if err != nil {
			return err
		}
		if params.Has("limit") {
			params.Set("limit", strconv.Itoa(c.limit))
		}
		c.continuation = params
		return nil
	}

	c.continuation = nil
	if c.window == nil {
		c.done = true
		return nil
	}
	c.window.Next()
	c.done = c.window.Done()
	return nil
}

// Shrink narrows the next request after a too-much-data error: the window
// is halved, or the page size for a continuation request. Returns false
// once the attempt budget is spent or the request cannot get any smaller.
func (c *Controller) Shrink() bool {
	c.failures++
	if c.failures >= c.maxAttempts {
		return false
	}

	switch {
	case c.continuation != nil:
		if c.limit <= 1 {
			return false
		}
		c.limit /= 2
		c.continuation.Set("limit", strconv.Itoa(c.limit))
		return true
	case c.window != nil:
		return c.window.Halve()
	}
	return false
}

// Attempts returns how many times the current request has been tried.
func (c *Controller) Attempts() int {
	return c.failures + 1
}

// followsPaging reports whether a stream kind reads every page of a window.
// Page insights return one page per window.
func followsPaging(kind domain.StreamKind) bool {
	switch kind {
	case domain.KindPosts, domain.KindPostAttachments, domain.KindPostTaggedProfile, domain.KindPostInsights:
		return true
	}
	return false
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
