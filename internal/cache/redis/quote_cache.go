package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/redis/go-redis/v9"
)

// QuoteCache implements domain.QuoteSource as a read-through cache in front
// of the CLOB client, so replicas and back-to-back cycles share recent quotes.
//
// Each token's quote is a hash at "quote:{tokenID}" with optional fields
// "price" and "spread" and a mandatory "ts" (unix millis). A missing field is
// an absent value, not a zero.
type QuoteCache struct {
	rdb      *redis.Client
	upstream domain.QuoteSource
	ttl      time.Duration
	logger   *slog.Logger
}

// NewQuoteCache wraps upstream with a Redis cache of the given ttl.
func NewQuoteCache(c *Client, upstream domain.QuoteSource, ttl time.Duration, logger *slog.Logger) *QuoteCache {
	return &QuoteCache{
		rdb:      c.Underlying(),
		upstream: upstream,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "quote_cache")),
	}
}

func quoteKey(tokenID string) string {
	return "quote:" + tokenID
}

// Quotes returns cached quotes and fetches the rest from upstream. A Redis
// failure degrades to a plain upstream fetch.
func (qc *QuoteCache) Quotes(ctx context.Context, tokenIDs []string) map[string]domain.PriceQuote {
	if len(tokenIDs) == 0 {
		return map[string]domain.PriceQuote{}
	}

	cached, err := qc.getQuotes(ctx, tokenIDs)
	if err != nil {
		qc.logger.WarnContext(ctx, "quote cache read failed",
			slog.String("error", err.Error()),
		)
		return qc.upstream.Quotes(ctx, tokenIDs)
	}

	var missing []string
	for _, id := range tokenIDs {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return cached
	}

	fresh := qc.upstream.Quotes(ctx, missing)
	if err := qc.setQuotes(ctx, fresh); err != nil {
		qc.logger.WarnContext(ctx, "quote cache write failed",
			slog.Int("count", len(fresh)),
			slog.String("error", err.Error()),
		)
	}
	for id, q := range fresh {
		cached[id] = q
	}
	return cached
}

// getQuotes reads every token in one pipeline. Tokens without an entry are
// omitted from the result.
func (qc *QuoteCache) getQuotes(ctx context.Context, tokenIDs []string) (map[string]domain.PriceQuote, error) {
	pipe := qc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(tokenIDs))
	for _, id := range tokenIDs {
		cmds[id] = pipe.HGetAll(ctx, quoteKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get quotes pipeline: %w", err)
	}

	result := make(map[string]domain.PriceQuote, len(tokenIDs))
	for id, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || vals["ts"] == "" {
			continue
		}
		result[id] = domain.PriceQuote{
			Price:  parseOptionalFloat(vals["price"]),
			Spread: parseOptionalFloat(vals["spread"]),
		}
	}
	return result, nil
}

// setQuotes stores non-empty quotes. Empty quotes are left uncached so the
// next cycle asks upstream again.
func (qc *QuoteCache) setQuotes(ctx context.Context, quotes map[string]domain.PriceQuote) error {
	pipe := qc.rdb.TxPipeline()
	n := 0
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	for id, q := range quotes {
		if q.Empty() {
			continue
		}
		fields := map[string]interface{}{"ts": ts}
		if q.Price != nil {
			fields["price"] = strconv.FormatFloat(*q.Price, 'f', -1, 64)
		}
		if q.Spread != nil {
			fields["spread"] = strconv.FormatFloat(*q.Spread, 'f', -1, 64)
		}
		key := quoteKey(id)
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, qc.ttl)
		n++
	}
	if n == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quotes: %w", err)
	}
	return nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Compile-time interface check.
var _ domain.QuoteSource = (*QuoteCache)(nil)
