package driven

import "context"

// TokenProvider provides the user access token for authenticated API calls.
// Page-scoped tokens are derived from it by the connector.
type TokenProvider interface {
	// GetToken returns the access token.
	// Returns domain.ErrAuthRequired when none is configured.
	GetToken(ctx context.Context) (string, error)

	// IsAuthenticated returns true if a token is available.
	IsAuthenticated() bool
}
