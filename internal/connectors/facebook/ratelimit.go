package facebook

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerSecond is the proactive throttle rate.
	DefaultRequestsPerSecond = 5.0

	// UsageThreshold is the usage percentage at which requests pause.
	UsageThreshold = 95

	// DefaultThrottleBackoff is how long to pause when throttled without a
	// regain-access estimate.
	DefaultThrottleBackoff = time.Minute

	// HeaderAppUsage reports app-level usage percentages.
	HeaderAppUsage = "X-App-Usage"

	// HeaderPageUsage reports page-level usage percentages.
	HeaderPageUsage = "X-Page-Usage"

	// HeaderBusinessUsage reports business use case usage per object id.
	HeaderBusinessUsage = "X-Business-Use-Case-Usage"
)

// usage is the payload of the X-App-Usage and X-Page-Usage headers.
type usage struct {
	CallCount    int `json:"call_count"`
	TotalCPUTime int `json:"total_cputime"`
	TotalTime    int `json:"total_time"`
}

func (u usage) peak() int {
	return max(u.CallCount, u.TotalCPUTime, u.TotalTime)
}

// businessUsage is one entry of the X-Business-Use-Case-Usage header.
type businessUsage struct {
	usage
	Type                         string `json:"type"`
	EstimatedTimeToRegainAccess int    `json:"estimated_time_to_regain_access"`
}

// RateLimiter implements dual-strategy rate limiting for the Graph API.
type RateLimiter struct {
	mu         sync.Mutex
	bucket     *rate.Limiter // Proactive throttling
	pauseUntil time.Time     // Reactive, from usage headers and throttle errors
	usagePct   int           // Highest usage percentage seen in the last response
	backoff    time.Duration
}

// NewRateLimiter creates a new rate limiter with proactive throttling.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	return &RateLimiter{
		bucket:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		backoff: DefaultThrottleBackoff,
	}
}

// Wait blocks until it's safe to make a request.
// It uses both proactive throttling and reactive usage checking.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	pauseUntil := r.pauseUntil
	r.mu.Unlock()

	if wait := time.Until(pauseUntil); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}

// UpdateFromResponse updates usage state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	highest := 0
	regain := 0
	for _, h := range []string{HeaderAppUsage, HeaderPageUsage} {
		if v := resp.Header.Get(h); v != "" {
			var u usage
			if err := json.Unmarshal([]byte(v), &u); err == nil {
				highest = max(highest, u.peak())
			}
		}
	}
	if v := resp.Header.Get(HeaderBusinessUsage); v != "" {
		var byID map[string][]businessUsage
		if err := json.Unmarshal([]byte(v), &byID); err == nil {
			for _, entries := range byID {
				for _, e := range entries {
					highest = max(highest, e.peak())
					regain = max(regain, e.EstimatedTimeToRegainAccess)
				}
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.usagePct = highest
	if highest >= UsageThreshold {
		r.pauseLocked(regain)
	}
}

// RecordThrottle pauses requests after a throttling error and returns the
// error describing when requests resume.
func (r *RateLimiter) RecordThrottle(code int) *RateLimitError {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauseLocked(0)
	return &RateLimitError{Code: code, ResetAt: r.pauseUntil}
}

// pauseLocked extends the pause by the regain estimate in minutes, or the
// default backoff. Caller must hold r.mu.
func (r *RateLimiter) pauseLocked(regainMinutes int) {
	d := r.backoff
	if regainMinutes > 0 {
		d = time.Duration(regainMinutes) * time.Minute
	}
	if until := time.Now().Add(d); until.After(r.pauseUntil) {
		r.pauseUntil = until
	}
}

// SetBackoff overrides the default throttle backoff.
func (r *RateLimiter) SetBackoff(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backoff = d
}

// Usage returns the highest usage percentage reported by the last response.
func (r *RateLimiter) Usage() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usagePct
}

// PausedUntil returns when reactive throttling ends.
func (r *RateLimiter) PausedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pauseUntil
}
