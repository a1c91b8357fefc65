// Package polymarket implements the read-only Gamma (event discovery) and CLOB
// (pricing) REST clients.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var _ domain.EventSource = (*GammaClient)(nil)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides event discovery and metadata.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
	maxOffset  int
	logger     *slog.Logger
}

// GammaOptions tunes pagination and timeouts. Zero values take defaults.
type GammaOptions struct {
	Timeout   time.Duration // per request, default 10s
	PageSize  int           // default 100
	MaxOffset int           // default 2000
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string, opts GammaOptions, logger *slog.Logger) *GammaClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.MaxOffset <= 0 {
		opts.MaxOffset = 2000
	}
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		pageSize:  opts.PageSize,
		maxOffset: opts.MaxOffset,
		logger:    logger.With(slog.String("component", "gamma")),
	}
}

// GetEvents returns one page of open events. Individual events that fail to
// decode are skipped rather than failing the page.
func (g *GammaClient) GetEvents(ctx context.Context, limit, offset int) ([]domain.MarketEvent, error) {
	params := url.Values{}
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, &domain.UpstreamError{Source: "gamma", Op: "get events", Err: err}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.UpstreamError{Source: "gamma", Op: "decode events", Err: err}
	}

	events := make([]domain.MarketEvent, 0, len(raw))
	for _, r := range raw {
		var apiEvent APIEvent
		if err := json.Unmarshal(r, &apiEvent); err != nil {
			g.logger.DebugContext(ctx, "skipping malformed event", slog.String("error", err.Error()))
			continue
		}
		events = append(events, apiEvent.ToDomainEvent())
	}
	return events, nil
}

// ListOpenEvents pages through open events until an empty page, a failed
// request, or the configured maximum offset. Whatever was collected before a
// failure is returned.
func (g *GammaClient) ListOpenEvents(ctx context.Context) []domain.MarketEvent {
	var all []domain.MarketEvent
	for offset := 0; offset < g.maxOffset; offset += g.pageSize {
		page, err := g.GetEvents(ctx, g.pageSize, offset)
		if err != nil {
			g.logger.WarnContext(ctx, "event pagination stopped early",
				slog.Int("offset", offset),
				slog.Int("collected", len(all)),
				slog.String("error", err.Error()),
			)
			break
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
	}
	return all
}

// ListSports returns the Gamma sports listing (league codes and tag ids).
func (g *GammaClient) ListSports(ctx context.Context) ([]SportTag, error) {
	body, err := g.doGet(ctx, "/sports")
	if err != nil {
		return nil, &domain.UpstreamError{Source: "gamma", Op: "list sports", Err: err}
	}
	var tags []SportTag
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, &domain.UpstreamError{Source: "gamma", Op: "decode sports", Err: err}
	}
	return tags, nil
}

// Ping checks that the Gamma API answers a minimal events query.
func (g *GammaClient) Ping(ctx context.Context) error {
	_, err := g.GetEvents(ctx, 1, 0)
	return err
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	return doGet(ctx, g.httpClient, g.baseURL+path)
}

func doGet(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("read response: body exceeds %d bytes", maxResponseBytes)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	if len(bodyStr) > 256 {
		bodyStr = bodyStr[:256]
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
