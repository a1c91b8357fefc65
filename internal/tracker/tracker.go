// Package tracker correlates open market events with live fixtures and
// assembles the per-sport snapshot served to clients.
package tracker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/alanyoungcy/polylive/internal/market"
	"github.com/alanyoungcy/polylive/internal/platform/sofascore"
	"github.com/alanyoungcy/polylive/internal/sport"
)

// DefaultEventURL is the canonical Polymarket detail page prefix.
const DefaultEventURL = "https://polymarket.com/event/"

// Tracker runs one correlation pass per call. It keeps no state between
// calls; caching belongs to the sources it is given.
type Tracker struct {
	events   domain.EventSource
	quotes   domain.QuoteSource
	live     domain.LiveScoreProvider
	sports   []sport.Sport
	eventURL string
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Tracker for the given sports. An empty eventURL uses
// DefaultEventURL.
func New(
	events domain.EventSource,
	quotes domain.QuoteSource,
	live domain.LiveScoreProvider,
	sports []sport.Sport,
	eventURL string,
	logger *slog.Logger,
) *Tracker {
	if eventURL == "" {
		eventURL = DefaultEventURL
	}
	if !strings.HasSuffix(eventURL, "/") {
		eventURL += "/"
	}
	return &Tracker{
		events:   events,
		quotes:   quotes,
		live:     live,
		sports:   sports,
		eventURL: eventURL,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "tracker")),
	}
}

// Sports returns the display names of the tracked sports in order.
func (t *Tracker) Sports() []string {
	names := make([]string, len(t.sports))
	for i, s := range t.sports {
		names[i] = s.Name()
	}
	return names
}

// CollectAllLiveGames fetches open events once and correlates them for every
// tracked sport. It never fails: an event whose liveness cannot be determined
// is skipped and the rest of the cycle continues.
func (t *Tracker) CollectAllLiveGames(ctx context.Context) domain.Snapshot {
	start := t.now()
	events := t.events.ListOpenEvents(ctx)

	snap := domain.Snapshot{
		Timestamp: start.UTC(),
		Sports:    make(map[string]domain.SportSnapshot, len(t.sports)),
	}
	for _, s := range t.sports {
		ss := t.collectSport(ctx, s, events, start)
		snap.Sports[s.Name()] = ss
		snap.TotalGames += ss.TotalLive
	}

	t.logger.InfoContext(ctx, "collected live games",
		slog.Int("events", len(events)),
		slog.Int("total_games", snap.TotalGames),
		slog.Duration("elapsed", t.now().Sub(start)),
	)
	return snap
}

func (t *Tracker) collectSport(ctx context.Context, s sport.Sport, events []domain.MarketEvent, now time.Time) domain.SportSnapshot {
	ss := domain.SportSnapshot{Games: []domain.CorrelatedGame{}}

	for i := range events {
		ev := &events[i]
		if !s.BelongsTo(*ev) || !sport.PotentiallyLive(*ev, now) {
			continue
		}
		ss.TotalFound++

		game, ok := t.correlate(ctx, s, ev)
		if !ok {
			continue
		}
		ss.Games = append(ss.Games, game)
	}
	ss.TotalLive = len(ss.Games)

	t.logger.DebugContext(ctx, "sport processed",
		slog.String("sport", s.Name()),
		slog.Int("found", ss.TotalFound),
		slog.Int("live", ss.TotalLive),
	)
	return ss
}

// correlate runs the per-event pipeline. Every early return is a normal
// filtering outcome.
func (t *Tracker) correlate(ctx context.Context, s sport.Sport, ev *domain.MarketEvent) (domain.CorrelatedGame, bool) {
	home, away, ok := s.ExtractTeams(ev.Title)
	if !ok {
		return domain.CorrelatedGame{}, false
	}

	live, err := t.live.Match(ctx, home, away)
	if err != nil {
		t.logger.WarnContext(ctx, "live lookup failed, skipping event",
			slog.String("event_id", ev.ID),
			slog.String("title", ev.Title),
			slog.String("error", err.Error()),
		)
		return domain.CorrelatedGame{}, false
	}
	if live == nil {
		return domain.CorrelatedGame{}, false
	}
	if sofascore.IsTerminalStatus(live.Status) {
		t.logger.DebugContext(ctx, "fixture finished",
			slog.String("event_id", ev.ID),
			slog.String("status", live.Status),
		)
		return domain.CorrelatedGame{}, false
	}
	if len(ev.Markets) == 0 {
		return domain.CorrelatedGame{}, false
	}

	quotes := t.quotes.Quotes(ctx, market.TokenIDs(ev.Markets))
	ml, ok := market.ExtractMoneyline(ev.Markets, quotes, s.HasDraw())
	if !ok {
		t.logger.DebugContext(ctx, "no moneyline",
			slog.String("event_id", ev.ID),
			slog.Int("markets", len(ev.Markets)),
		)
		return domain.CorrelatedGame{}, false
	}

	game := domain.CorrelatedGame{
		EventID:   ev.ID,
		Slug:      ev.Slug,
		Title:     ev.Title,
		URL:       t.eventURL + firstNonEmpty(ev.Slug, ev.ID),
		HomeTeam:  home,
		AwayTeam:  away,
		Sport:     s.Name(),
		Live:      *live,
		Moneyline: ml,
	}
	if ev.StartTime != nil {
		game.StartTime = ev.StartTime.UTC().Format(time.RFC3339)
	}
	return game, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
