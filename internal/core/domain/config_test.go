package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() TapConfig {
	return TapConfig{
		AccessToken: "user-token",
		PageIDs:     []string{"111"},
		StartDate:   "2021-01-01T00:00:00Z",
	}
}

func TestTapConfig_ApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.BaseURL = "http://localhost:8080/"
	cfg.WindowDays = 365
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, DefaultWindowDays, cfg.WindowDays)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, TokenModePage, cfg.TokenMode)
	assert.Equal(t, StateBackendMemory, cfg.StateBackend)
	assert.InDelta(t, DefaultRequestsPerSecond, cfg.RequestsPerSecond, 0.001)
}

func TestTapConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *TapConfig)
		wantErr string
	}{
		{"valid", func(c *TapConfig) {}, ""},
		{"missing token", func(c *TapConfig) { c.AccessToken = "" }, "access_token"},
		{"missing pages", func(c *TapConfig) { c.PageIDs = nil }, "page_ids"},
		{"missing start", func(c *TapConfig) { c.StartDate = "" }, "start_date is required"},
		{"bad start", func(c *TapConfig) { c.StartDate = "soon" }, "not a timestamp"},
		{"end before start", func(c *TapConfig) { c.EndDate = "2020-01-01" }, "end_date must be after"},
		{"bad token mode", func(c *TapConfig) { c.TokenMode = "oauth" }, "token_mode"},
		{"postgres without dsn", func(c *TapConfig) { c.StateBackend = StateBackendPostgres }, "state_dsn"},
		{"unknown backend", func(c *TapConfig) { c.StateBackend = "redis" }, "unknown state_backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTapConfig_ParsedDates(t *testing.T) {
	cfg := validConfig()
	cfg.EndDate = "2021-06-01"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Start())
	assert.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), cfg.End())
}

func TestTapConfig_WindowSpan(t *testing.T) {
	cfg := TapConfig{WindowDays: 30}
	assert.Equal(t, 30*24*time.Hour, cfg.WindowSpan())

	cfg.WindowDays = 0
	assert.Equal(t, 90*24*time.Hour, cfg.WindowSpan())
}
