package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
	"github.com/custodia-labs/tap-facebook-pages/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector extracts page, post and insight records from the Graph API.
type Connector struct {
	config        *Config
	client        *Client
	tokenProvider driven.TokenProvider
	now           func() time.Time

	mu         sync.Mutex
	pageTokens map[string]oauth2.TokenSource
	closed     bool
}

// New creates a new Facebook Pages connector.
func New(cfg *Config, tokenProvider driven.TokenProvider) *Connector {
	return NewWithClient(cfg, tokenProvider, NewClient(cfg))
}

// NewWithClient creates a connector that sends requests through client.
func NewWithClient(cfg *Config, tokenProvider driven.TokenProvider, client *Client) *Connector {
	return &Connector{
		config:        cfg,
		client:        client,
		tokenProvider: tokenProvider,
		now:           time.Now,
		pageTokens:    make(map[string]oauth2.TokenSource),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "facebook-pages"
}

// Streams returns every stream the connector can extract.
func (c *Connector) Streams() []domain.Stream {
	return Streams()
}

// Validate checks the user token is accepted by requesting /me.
func (c *Connector) Validate(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if c.tokenProvider == nil || !c.tokenProvider.IsAuthenticated() {
		return domain.ErrAuthRequired
	}

	var me pageAccount
	params := url.Values{"fields": {"id,name"}}
	if err := c.client.Get(ctx, c.userTokenSource(ctx), "me", params, &me); err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}

	logger.Debug("Authenticated as %s (%s)", me.Name, me.ID)
	return nil
}

// Authorize resolves the page token of every partition. Tokens are stored
// once and only read afterwards.
func (c *Connector) Authorize(ctx context.Context, partitions []domain.Partition) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}

	ids := make([]string, 0, len(partitions))
	for _, p := range partitions {
		ids = append(ids, p.PageID)
	}

	var (
		tokens map[string]string
		err    error
	)
	user := c.userTokenSource(ctx)
	if c.config.TokenMode == domain.TokenModeAccounts {
		tokens, err = ResolveAccountTokens(ctx, c.client, user, ids)
	} else {
		tokens, err = ResolvePageTokens(ctx, c.client, user, ids)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, tok := range tokens {
		c.pageTokens[id] = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"})
	}
	logger.Info("Resolved %d page tokens", len(tokens))
	return nil
}

// Sync extracts one stream for one page, starting at since.
func (c *Connector) Sync(
	ctx context.Context, stream domain.Stream, partition domain.Partition, since time.Time,
) (<-chan domain.Record, <-chan error) {
	recordsChan := make(chan domain.Record)
	errsChan := make(chan error, 1)

	go func() {
		defer close(recordsChan)
		defer close(errsChan)

		if c.isClosed() {
			errsChan <- domain.ErrConnectorClosed
			return
		}

		ts, ok := c.pageTokenSource(partition.PageID)
		if !ok {
			errsChan <- fmt.Errorf("%w %s", ErrNoPageToken, partition.PageID)
			return
		}

		bookmark := domain.Bookmark{
			Stream:         stream.Name,
			PartitionID:    partition.PageID,
			ReplicationKey: stream.ReplicationKey,
			Value:          since,
		}

		count, err := c.extract(ctx, stream, partition, ts, &bookmark, recordsChan)
		if err != nil {
			if IsUnauthorized(err) {
				errsChan <- fmt.Errorf("page %s: %w: %w: %w", partition.PageID, domain.ErrPartitionSkipped, domain.ErrAuthInvalid, err)
				return
			}
			if IsForbidden(err) {
				errsChan <- fmt.Errorf("page %s: %w: %w", partition.PageID, domain.ErrPartitionSkipped, err)
				return
			}
			errsChan <- fmt.Errorf("%s page %s: %w", stream.Name, partition.PageID, err)
			return
		}

		errsChan <- &driven.SyncComplete{
			Bookmark: bookmark,
			Records:  count,
		}
	}()

	return recordsChan, errsChan
}

// extract walks every request of a stream partition and sends the flattened
// records. The bookmark advances to the greatest replication value seen.
func (c *Connector) extract(
	ctx context.Context,
	stream domain.Stream,
	partition domain.Partition,
	ts oauth2.TokenSource,
	bookmark *domain.Bookmark,
	out chan<- domain.Record,
) (int, error) {
	var window *Window
	if stream.Kind != domain.KindPage {
		window = NewWindow(bookmark.Value, c.config.end(c.now()), c.config.WindowSpan)
	}
	ctrl := NewController(stream, BaseParams(stream, c.config), window, c.config.MaxRetries)
	path := partition.PageID + stream.Path

	count := 0
	for !ctrl.Done() {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		rows, next, err := c.fetch(ctx, ts, stream, path, ctrl)
		if err != nil {
			return count, err
		}

		for _, raw := range rows {
			records, err := Flatten(stream.Kind, partition.PageID, raw)
			if err != nil {
				return count, err
			}
			for _, rec := range records {
				if stream.IsIncremental() {
					if t, ok := rec.Time(stream.ReplicationKey); ok {
						bookmark.Advance(t)
					}
				}
				select {
				case <-ctx.Done():
					return count, ctx.Err()
				case out <- rec:
					count++
				}
			}
		}

		if err := ctrl.Advance(next); err != nil {
			return count, err
		}
	}
	return count, nil
}

// fetch performs the controller's next request. Too-much-data errors narrow
// the request and retry immediately until the attempt budget is spent.
func (c *Connector) fetch(
	ctx context.Context, ts oauth2.TokenSource, stream domain.Stream, path string, ctrl *Controller,
) ([]json.RawMessage, string, error) {
	for {
		var (
			rows []json.RawMessage
			next string
			err  error
		)
		params := ctrl.Params()

		if stream.Kind == domain.KindPage {
			var raw json.RawMessage
			err = c.client.Get(ctx, ts, path, params, &raw)
			rows = []json.RawMessage{raw}
		} else {
			var resp listResponse
			err = c.client.Get(ctx, ts, path, params, &resp)
			rows, next = resp.Data, resp.NextLink()
		}
		if err == nil {
			return rows, next, nil
		}
		if !IsTooMuchData(err) {
			return nil, "", err
		}

		attempt := ctrl.Attempts()
		if !ctrl.Shrink() {
			return nil, "", fmt.Errorf("%w after %d attempts: %w", domain.ErrTooMuchData, attempt, err)
		}
		if w := ctrl.Window(); w != nil && !ctrl.Continuing() {
			logger.Warn("Too much data for %s on %s, retrying with window %s to %s",
				stream.Name, path, w.Since.Format(time.RFC3339), w.Until.Format(time.RFC3339))
		} else {
			logger.Warn("Too much data for %s on %s, retrying with a smaller page", stream.Name, path)
		}
	}
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Connector) pageTokenSource(pageID string) (oauth2.TokenSource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, ok := c.pageTokens[pageID]
	return ts, ok
}

func (c *Connector) userTokenSource(ctx context.Context) oauth2.TokenSource {
	if c.tokenProvider == nil {
		return nil
	}
	return oauth2.ReuseTokenSource(nil, NewTokenSource(ctx, c.tokenProvider))
}
