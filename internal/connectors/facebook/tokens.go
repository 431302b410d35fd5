package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
	"github.com/custodia-labs/tap-facebook-pages/internal/logger"
)

// TokenSourceAdapter adapts the TokenProvider port to oauth2.TokenSource.
type TokenSourceAdapter struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &TokenSourceAdapter{
		provider: provider,
		ctx:      ctx,
	}
}

// Token implements oauth2.TokenSource interface.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.GetToken(t.ctx)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, domain.ErrAuthRequired
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}

// pageAccount is a page node or /me/accounts entry with its token.
type pageAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// ResolvePageTokens exchanges the user token for a page-scoped token, one
// request per page id.
func ResolvePageTokens(ctx context.Context, client *Client, user oauth2.TokenSource, pageIDs []string) (map[string]string, error) {
	tokens := make(map[string]string, len(pageIDs))
	params := url.Values{"fields": {"access_token,name"}}

	for _, id := range pageIDs {
		var page pageAccount
		if err := client.Get(ctx, user, id, params, &page); err != nil {
			return nil, exchangeError(id, err)
		}
		if page.AccessToken == "" {
			return nil, fmt.Errorf("%w: page %s: response has no access_token", domain.ErrTokenExchange, id)
		}
		tokens[id] = page.AccessToken
		logger.Debug("Resolved token for page %s (%s)", id, page.Name)
	}
	return tokens, nil
}

// ResolveAccountTokens lists the pages of the token owner through
// /me/accounts and picks the tokens of the configured pages. Every
// configured page must be listed.
func ResolveAccountTokens(ctx context.Context, client *Client, user oauth2.TokenSource, pageIDs []string) (map[string]string, error) {
	wanted := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		wanted[id] = true
	}

	tokens := make(map[string]string, len(pageIDs))
	params := url.Values{
		"fields": {"id,name,access_token"},
		"limit":  {"100"},
	}
	for {
		var resp listResponse
		if err := client.Get(ctx, user, "me/accounts", params, &resp); err != nil {
			return nil, exchangeError("me/accounts", err)
		}
		for _, raw := range resp.Data {
			var acct pageAccount
			if err := json.Unmarshal(raw, &acct); err != nil {
				return nil, fmt.Errorf("%w: decode account: %w", domain.ErrTokenExchange, err)
			}
			if wanted[acct.ID] && acct.AccessToken != "" {
				tokens[acct.ID] = acct.AccessToken
				logger.Debug("Resolved token for page %s (%s)", acct.ID, acct.Name)
			}
		}

		next := resp.NextLink()
		if next == "" || len(tokens) == len(wanted) {
			break
		}
		p, err := ContinuationParams(next)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTokenExchange, err)
		}
		params = p
	}

	var missing []string
	for id := range wanted {
		if _, ok := tokens[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: pages not accessible with this token: %s",
			domain.ErrTokenExchange, strings.Join(missing, ", "))
	}
	return tokens, nil
}

// exchangeError reports a failed token request with the Graph message.
func exchangeError(target string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: failed exchanging token: %s", domain.ErrTokenExchange, target, apiErr.Message)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrTokenExchange, target, err)
}
