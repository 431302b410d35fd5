package facebook

import (
	"time"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// MaxWindow is the widest since/until span the Graph API accepts.
const MaxWindow = 90 * 24 * time.Hour

// Config holds the parsed configuration for the connector.
type Config struct {
	// BaseURL is the Graph API host, without version.
	BaseURL string

	// APIVersion is the version path segment, e.g. "v10.0".
	APIVersion string

	// PageIDs are the configured partitions.
	PageIDs []string

	// Start is the earliest timestamp to extract.
	Start time.Time

	// End caps extraction windows. Zero means now.
	End time.Time

	// WindowSpan is the initial since/until span.
	WindowSpan time.Duration

	// MaxRetries is the attempt budget per request on too-much-data errors.
	MaxRetries int

	// TokenMode selects how page tokens are resolved.
	TokenMode string

	// Columns overrides the fields requested for the page and posts streams.
	Columns []string

	// RequestsPerSecond is the proactive throttle rate.
	RequestsPerSecond float64

	// InsightsPeriod is sent as period= on page insight requests when set.
	InsightsPeriod string
}

// ParseConfig builds a connector Config from a validated tap configuration.
func ParseConfig(cfg *domain.TapConfig) (*Config, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	span := cfg.WindowSpan()
	if span > MaxWindow {
		span = MaxWindow
	}

	return &Config{
		BaseURL:           cfg.BaseURL,
		APIVersion:        cfg.APIVersion,
		PageIDs:           cfg.PageIDs,
		Start:             cfg.Start(),
		End:               cfg.End(),
		WindowSpan:        span,
		MaxRetries:        cfg.MaxRetries,
		TokenMode:         cfg.TokenMode,
		Columns:           cfg.Columns,
		RequestsPerSecond: cfg.RequestsPerSecond,
		InsightsPeriod:    cfg.InsightsPeriod,
	}, nil
}

// end returns the configured upper bound, or now.
func (c *Config) end(now time.Time) time.Time {
	if c.End.IsZero() || c.End.After(now) {
		return now
	}
	return c.End
}
