package domain

import "context"

// EventSource lists open market events. Implementations never fail: an
// upstream problem truncates the list.
type EventSource interface {
	ListOpenEvents(ctx context.Context) []MarketEvent
}

// QuoteSource prices settlement tokens. Missing values are absent fields in
// the returned quotes, not errors.
type QuoteSource interface {
	Quotes(ctx context.Context, tokenIDs []string) map[string]PriceQuote
}

// LiveScoreProvider resolves team pairs to live fixtures.
type LiveScoreProvider interface {
	Health(ctx context.Context) error
	// Match returns nil with a nil error when no live fixture matches.
	Match(ctx context.Context, home, away string) (*LiveGame, error)
}
