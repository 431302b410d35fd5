package facebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Facebook-specific errors.
var (
	// ErrInvalidContinuation indicates a paging.next URL could not be parsed.
	ErrInvalidContinuation = errors.New("facebook: invalid continuation url")

	// ErrNoPageToken indicates Sync was called for a page without a resolved token.
	ErrNoPageToken = errors.New("facebook: no token for page")
)

// Graph API error codes.
const (
	codeTooManyCalls    = 4
	codePermission      = 10
	codeUserRequest     = 17
	codePageRequest     = 32
	codeInvalidToken    = 190
	codeCallLimit       = 613
	codeAppThrottled    = 80001
	codePermissionFirst = 200
	codePermissionLast  = 299
)

// tooMuchDataMessage is the fragment of the Graph message returned when a
// request spans too much data.
const tooMuchDataMessage = "reduce the amount of data"

// RateLimitError represents a throttled request with the time it may be retried.
type RateLimitError struct {
	Code    int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("facebook: rate limit exceeded (code %d), retry at %s", e.Code, e.ResetAt.Format(time.RFC3339))
}

// APIError represents a Graph API error response.
type APIError struct {
	StatusCode int
	Code       int
	Subcode    int
	Type       string
	Message    string
	TraceID    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("facebook: API error %d (code %d): %s (URL: %s)", e.StatusCode, e.Code, e.Message, e.URL)
	}
	return fmt.Sprintf("facebook: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// graphErrorBody is the error envelope returned by the Graph API.
type graphErrorBody struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// parseAPIError builds an APIError from a non-2xx response body.
func parseAPIError(statusCode int, body []byte, url string) *APIError {
	apiErr := &APIError{StatusCode: statusCode, URL: url}

	var env graphErrorBody
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Subcode = env.Error.ErrorSubcode
		apiErr.Type = env.Error.Type
		apiErr.Message = env.Error.Message
		apiErr.TraceID = env.Error.FBTraceID
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

// IsRateLimited checks if the error indicates throttling.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// isThrottleCode reports whether a Graph error code means throttling.
func isThrottleCode(code int) bool {
	switch code {
	case codeTooManyCalls, codeUserRequest, codePageRequest, codeCallLimit, codeAppThrottled:
		return true
	}
	return false
}

// IsTooMuchData checks if the error asks for a smaller request.
func IsTooMuchData(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), tooMuchDataMessage)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.Code == codeInvalidToken
	}
	return false
}

// IsForbidden checks if the error indicates missing permissions.
func IsForbidden(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusForbidden || apiErr.Code == codePermission {
			return true
		}
		return apiErr.Code >= codePermissionFirst && apiErr.Code <= codePermissionLast
	}
	return false
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
