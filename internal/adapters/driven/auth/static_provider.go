// Package auth provides token providers for the Graph API connector.
package auth

import (
	"context"
	"strings"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
)

// Ensure StaticTokenProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*StaticTokenProvider)(nil)

// StaticTokenProvider serves the long-lived user access token from the
// tap configuration. The token does not refresh; page tokens are derived
// from it by the connector.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a token provider for token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: strings.TrimSpace(token)}
}

// NewTokenProvider creates the token provider for a tap configuration.
func NewTokenProvider(cfg *domain.TapConfig) *StaticTokenProvider {
	if cfg == nil {
		return NewStaticTokenProvider("")
	}
	return NewStaticTokenProvider(cfg.AccessToken)
}

// GetToken returns the token, or domain.ErrAuthRequired when it is empty.
func (p *StaticTokenProvider) GetToken(_ context.Context) (string, error) {
	if p.token == "" {
		return "", domain.ErrAuthRequired
	}
	return p.token, nil
}

// IsAuthenticated returns true if a token is configured.
func (p *StaticTokenProvider) IsAuthenticated() bool {
	return p.token != ""
}
