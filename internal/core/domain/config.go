package domain

import (
	"fmt"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultAPIVersion        = "v10.0"
	DefaultBaseURL           = "https://graph.facebook.com"
	DefaultWindowDays        = 90
	DefaultMaxRetries        = 5
	DefaultRequestsPerSecond = 5.0
	DefaultPageSize          = 100
)

// Token modes.
const (
	// TokenModePage exchanges the user token once per page id.
	TokenModePage = "page"

	// TokenModeAccounts lists /me/accounts and picks the configured pages.
	TokenModeAccounts = "accounts"
)

// State backends.
const (
	StateBackendMemory   = "memory"
	StateBackendSQLite   = "sqlite"
	StateBackendPostgres = "postgres"
)

// TapConfig is the tap configuration file.
type TapConfig struct {
	// AccessToken is the long-lived user access token. Required.
	AccessToken string `json:"access_token" toml:"access_token" yaml:"access_token"`

	// PageIDs are the pages to extract. Required.
	PageIDs []string `json:"page_ids" toml:"page_ids" yaml:"page_ids"`

	// StartDate is the earliest timestamp to extract. Required.
	StartDate string `json:"start_date" toml:"start_date" yaml:"start_date"`

	// EndDate caps extraction windows. Default: now.
	EndDate string `json:"end_date,omitempty" toml:"end_date,omitempty" yaml:"end_date,omitempty"`

	// Columns overrides the field list requested for page and posts.
	Columns []string `json:"columns,omitempty" toml:"columns,omitempty" yaml:"columns,omitempty"`

	// APIVersion is the Graph API version path segment.
	APIVersion string `json:"api_version,omitempty" toml:"api_version,omitempty" yaml:"api_version,omitempty"`

	// BaseURL is the Graph API host.
	BaseURL string `json:"base_url,omitempty" toml:"base_url,omitempty" yaml:"base_url,omitempty"`

	// WindowDays is the maximum since/until span. Capped at 90.
	WindowDays int `json:"window_days,omitempty" toml:"window_days,omitempty" yaml:"window_days,omitempty"`

	// MaxRetries is the attempt budget for too-much-data errors.
	MaxRetries int `json:"max_retries,omitempty" toml:"max_retries,omitempty" yaml:"max_retries,omitempty"`

	// TokenMode is "page" or "accounts".
	TokenMode string `json:"token_mode,omitempty" toml:"token_mode,omitempty" yaml:"token_mode,omitempty"`

	// RequestsPerSecond throttles outgoing requests.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" toml:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`

	// InsightsPeriod is passed as period= on page insight requests when set.
	InsightsPeriod string `json:"insights_period,omitempty" toml:"insights_period,omitempty" yaml:"insights_period,omitempty"`

	// StateBackend is memory, sqlite or postgres.
	StateBackend string `json:"state_backend,omitempty" toml:"state_backend,omitempty" yaml:"state_backend,omitempty"`

	// StateDir is the sqlite data directory.
	StateDir string `json:"state_dir,omitempty" toml:"state_dir,omitempty" yaml:"state_dir,omitempty"`

	// StateDSN is the postgres connection string.
	StateDSN string `json:"state_dsn,omitempty" toml:"state_dsn,omitempty" yaml:"state_dsn,omitempty"`

	start time.Time
	end   time.Time
}

// ApplyDefaults fills unset optional fields.
func (c *TapConfig) ApplyDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.WindowDays <= 0 || c.WindowDays > DefaultWindowDays {
		c.WindowDays = DefaultWindowDays
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.TokenMode == "" {
		c.TokenMode = TokenModePage
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.StateBackend == "" {
		c.StateBackend = StateBackendMemory
	}
}

// Validate checks required fields and parses dates.
func (c *TapConfig) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("%w: access_token is required", ErrInvalidConfig)
	}
	if len(c.PageIDs) == 0 {
		return fmt.Errorf("%w: page_ids is required", ErrInvalidConfig)
	}
	if c.StartDate == "" {
		return fmt.Errorf("%w: start_date is required", ErrInvalidConfig)
	}
	start, ok := ParseTime(c.StartDate)
	if !ok {
		return fmt.Errorf("%w: start_date %q is not a timestamp", ErrInvalidConfig, c.StartDate)
	}
	c.start = start

	c.end = time.Time{}
	if c.EndDate != "" {
		end, ok := ParseTime(c.EndDate)
		if !ok {
			return fmt.Errorf("%w: end_date %q is not a timestamp", ErrInvalidConfig, c.EndDate)
		}
		if !end.After(start) {
			return fmt.Errorf("%w: end_date must be after start_date", ErrInvalidConfig)
		}
		c.end = end
	}

	switch c.TokenMode {
	case "", TokenModePage, TokenModeAccounts:
	default:
		return fmt.Errorf("%w: token_mode must be %q or %q", ErrInvalidConfig, TokenModePage, TokenModeAccounts)
	}

	switch c.StateBackend {
	case "", StateBackendMemory, StateBackendSQLite:
	case StateBackendPostgres:
		if c.StateDSN == "" {
			return fmt.Errorf("%w: state_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown state_backend %q", ErrInvalidConfig, c.StateBackend)
	}
	return nil
}

// Start returns the parsed start date. Valid after Validate.
func (c *TapConfig) Start() time.Time {
	return c.start
}

// End returns the parsed end date, or the zero time when unset.
func (c *TapConfig) End() time.Time {
	return c.end
}

// WindowSpan returns the maximum since/until span.
func (c *TapConfig) WindowSpan() time.Duration {
	days := c.WindowDays
	if days <= 0 || days > DefaultWindowDays {
		days = DefaultWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}
