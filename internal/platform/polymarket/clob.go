package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var _ domain.QuoteSource = (*ClobClient)(nil)

// ClobClient reads spread and midpoint prices from the Polymarket CLOB
// (Central Limit Order Book) API.
type ClobClient struct {
	baseURL     string
	httpClient  *http.Client
	concurrency int
	logger      *slog.Logger
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com". timeout
// bounds each single price request; concurrency bounds parallel token lookups
// in Quotes.
func NewClobClient(baseURL string, timeout time.Duration, concurrency int, logger *slog.Logger) *ClobClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "clob")),
	}
}

// GetSpread returns the bid-ask spread for a token, or nil when the book does
// not report one.
func (c *ClobClient) GetSpread(ctx context.Context, tokenID string) (*float64, error) {
	body, err := doGet(ctx, c.httpClient, c.baseURL+"/spread?token_id="+url.QueryEscape(tokenID))
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get spread %s: %w", tokenID, err)
	}
	var resp spreadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode spread: %w", err)
	}
	return resp.Spread.Ptr(), nil
}

// GetMidpoint returns the midpoint price for a token, or nil when the book
// does not report one.
func (c *ClobClient) GetMidpoint(ctx context.Context, tokenID string) (*float64, error) {
	body, err := doGet(ctx, c.httpClient, c.baseURL+"/midpoint?token_id="+url.QueryEscape(tokenID))
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get midpoint %s: %w", tokenID, err)
	}
	var resp midpointResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode midpoint: %w", err)
	}
	return resp.Mid.Ptr(), nil
}

// Quote fetches spread and midpoint independently. Either failing leaves the
// corresponding field absent.
func (c *ClobClient) Quote(ctx context.Context, tokenID string) domain.PriceQuote {
	var q domain.PriceQuote

	spread, err := c.GetSpread(ctx, tokenID)
	if err != nil {
		c.logger.DebugContext(ctx, "spread unavailable",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
	}
	q.Spread = spread

	mid, err := c.GetMidpoint(ctx, tokenID)
	if err != nil {
		c.logger.DebugContext(ctx, "midpoint unavailable",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
	}
	q.Price = mid

	return q
}

// Quotes prices every token concurrently. The result has an entry for each
// requested id, possibly with absent fields.
func (c *ClobClient) Quotes(ctx context.Context, tokenIDs []string) map[string]domain.PriceQuote {
	out := make(map[string]domain.PriceQuote, len(tokenIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, id := range tokenIDs {
		id := id
		g.Go(func() error {
			q := c.Quote(gctx, id)
			mu.Lock()
			out[id] = q
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}
