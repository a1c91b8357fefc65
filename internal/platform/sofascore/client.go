// Package sofascore implements the live-score provider on top of the public
// SofaScore web API: live football fixtures, fuzzy team matching, match clock
// and momentum statistics.
package sofascore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

// DefaultBaseURL is the public SofaScore API root.
const DefaultBaseURL = "https://www.sofascore.com/api/v1"

const liveFootballPath = "/sport/football/events/live"

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// Client is the low-level REST client. Every call carries its own timeout and
// passes through the optional distributed rate limiter.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	limiter    domain.RateLimiter
	rateLimit  int
	rateWindow time.Duration
}

// NewClient creates a Client. A nil limiter or non-positive rateLimit
// disables rate limiting.
func NewClient(baseURL, userAgent string, limiter domain.RateLimiter, rateLimit int, rateWindow time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{},
		limiter:    limiter,
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
	}
}

// LiveEvents lists all live football fixtures. A response without an
// "events" field is an error: the endpoint answered but not as expected.
func (c *Client) LiveEvents(ctx context.Context, timeout time.Duration) ([]domain.LiveFixture, error) {
	var resp liveEventsResponse
	if err := c.get(ctx, liveFootballPath, timeout, &resp); err != nil {
		return nil, err
	}
	if resp.Events == nil {
		return nil, errors.New("response missing events field")
	}

	fixtures := make([]domain.LiveFixture, 0, len(*resp.Events))
	for i := range *resp.Events {
		fixtures = append(fixtures, (*resp.Events)[i].toDomain())
	}
	return fixtures, nil
}

// Graph returns the momentum graph of a fixture in chronological order.
func (c *Client) Graph(ctx context.Context, fixtureID int64, timeout time.Duration) ([]domain.GraphPoint, error) {
	var resp graphResponse
	if err := c.get(ctx, eventPath(fixtureID, "graph"), timeout, &resp); err != nil {
		return nil, err
	}
	points := make([]domain.GraphPoint, 0, len(resp.GraphPoints))
	for _, p := range resp.GraphPoints {
		points = append(points, domain.GraphPoint{Minute: p.Minute.Value, Value: p.Value.Value})
	}
	return points, nil
}

// matchStats is the subset of box-score statistics used for momentum.
type matchStats struct {
	PossessionHome, PossessionAway             *int
	AttacksHome, AttacksAway                   *int
	DangerousAttacksHome, DangerousAttacksAway *int
}

// Statistics returns whole-match ("ALL" period) statistics. A pair is only
// set when both sides report a value.
func (c *Client) Statistics(ctx context.Context, fixtureID int64, timeout time.Duration) (matchStats, error) {
	var resp statisticsResponse
	if err := c.get(ctx, eventPath(fixtureID, "statistics"), timeout, &resp); err != nil {
		return matchStats{}, err
	}

	var st matchStats
	for _, period := range resp.Statistics {
		if period.Period != "ALL" {
			continue
		}
		for _, group := range period.Groups {
			for _, item := range group.StatisticsItems {
				home, away := item.HomeValue.intPtr(), item.AwayValue.intPtr()
				if home == nil || away == nil {
					continue
				}
				switch item.Key {
				case "ballPossession":
					st.PossessionHome, st.PossessionAway = home, away
				case "attacks":
					st.AttacksHome, st.AttacksAway = home, away
				case "dangerousAttacks":
					st.DangerousAttacksHome, st.DangerousAttacksAway = home, away
				}
			}
		}
	}
	return st, nil
}

// Comments returns up to limit commentary entries, newest first as served.
func (c *Client) Comments(ctx context.Context, fixtureID int64, limit int, timeout time.Duration) ([]domain.Comment, error) {
	var resp commentsResponse
	if err := c.get(ctx, eventPath(fixtureID, "comments"), timeout, &resp); err != nil {
		return nil, err
	}

	n := min(max(limit, 0), len(resp.Comments))
	out := make([]domain.Comment, 0, n)
	for _, cm := range resp.Comments[:n] {
		comment := domain.Comment{
			Text:      cm.Text,
			EventType: cm.Type,
			IsHome:    cm.IsHome,
			Time:      int(cm.Time.Value),
		}
		if comment.EventType == "" {
			comment.EventType = "unknown"
		}
		if cm.Player != nil {
			comment.Player = cm.Player.ShortName
			if comment.Player == "" {
				comment.Player = cm.Player.Name
			}
		}
		out = append(out, comment)
	}
	return out, nil
}

func eventPath(fixtureID int64, resource string) string {
	return "/event/" + strconv.FormatInt(fixtureID, 10) + "/" + resource
}

// get performs a GET with browser-like headers and decodes the JSON body into
// out. SofaScore rejects requests that do not look like they come from its
// own web app.
func (c *Client) get(ctx context.Context, path string, timeout time.Duration, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.limiter != nil && c.rateLimit > 0 {
		if err := c.limiter.Wait(ctx, "sofascore", c.rateLimit, c.rateWindow); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", "https://www.sofascore.com")
	req.Header.Set("Referer", "https://www.sofascore.com/")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return fmt.Errorf("read response: %s exceeds %d bytes", path, maxResponseBytes)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
