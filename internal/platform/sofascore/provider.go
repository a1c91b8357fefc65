package sofascore

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/polylive/internal/cache/memory"
	"github.com/alanyoungcy/polylive/internal/domain"
)

var _ domain.LiveScoreProvider = (*Provider)(nil)

const fixturesKey = "football:live"

// Options configures a Provider. Zero durations take the defaults noted.
type Options struct {
	BaseURL       string
	UserAgent     string
	FixturesTTL   time.Duration // 30s
	MatchTTL      time.Duration // 30s
	LiveTimeout   time.Duration // 5s
	HealthTimeout time.Duration // 10s
	DetailTimeout time.Duration // 3s
	CommentLimit  int

	Limiter    domain.RateLimiter
	RateLimit  int
	RateWindow time.Duration
}

// Provider answers "is this pairing live right now" against the SofaScore
// live list. The fixture list and per-pair match results are cached, and each
// cache key has at most one upstream call in flight.
type Provider struct {
	client        *Client
	fixtures      *memory.TTLCache[[]domain.LiveFixture]
	matches       *memory.TTLCache[*domain.LiveGame]
	liveTimeout   time.Duration
	healthTimeout time.Duration
	detailTimeout time.Duration
	commentLimit  int
	now           func() time.Time
	logger        *slog.Logger
}

// NewProvider creates a Provider.
func NewProvider(opts Options, logger *slog.Logger) *Provider {
	return &Provider{
		client:        NewClient(opts.BaseURL, opts.UserAgent, opts.Limiter, opts.RateLimit, opts.RateWindow),
		fixtures:      memory.NewTTLCache[[]domain.LiveFixture](orDefault(opts.FixturesTTL, 30*time.Second)),
		matches:       memory.NewTTLCache[*domain.LiveGame](orDefault(opts.MatchTTL, 30*time.Second)),
		liveTimeout:   orDefault(opts.LiveTimeout, 5*time.Second),
		healthTimeout: orDefault(opts.HealthTimeout, 10*time.Second),
		detailTimeout: orDefault(opts.DetailTimeout, 3*time.Second),
		commentLimit:  opts.CommentLimit,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "sofascore")),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Health probes the live endpoint uncached.
func (p *Provider) Health(ctx context.Context) error {
	if _, err := p.client.LiveEvents(ctx, p.healthTimeout); err != nil {
		return &domain.UpstreamError{Source: "sofascore", Op: "health", Err: err}
	}
	return nil
}

// LiveFixtures returns the cached live football list, refreshing it lazily
// once expired. A failed refresh is an *domain.UpstreamError and is not
// cached.
func (p *Provider) LiveFixtures(ctx context.Context) ([]domain.LiveFixture, error) {
	return p.fixtures.GetOrLoad(ctx, fixturesKey, func(ctx context.Context) ([]domain.LiveFixture, error) {
		fixtures, err := p.client.LiveEvents(ctx, p.liveTimeout)
		if err != nil {
			return nil, &domain.UpstreamError{Source: "sofascore", Op: "list live fixtures", Err: err}
		}
		p.logger.DebugContext(ctx, "fetched live fixtures", slog.Int("count", len(fixtures)))
		return fixtures, nil
	})
}

// Match finds the live fixture for a home/away pair and enriches it with
// clock and momentum. No match is (nil, nil) and is cached like a hit; an
// upstream failure is returned and not cached.
func (p *Provider) Match(ctx context.Context, home, away string) (*domain.LiveGame, error) {
	key := NormalizeTeamName(home) + "|" + NormalizeTeamName(away)

	return p.matches.GetOrLoad(ctx, key, func(ctx context.Context) (*domain.LiveGame, error) {
		fixtures, err := p.LiveFixtures(ctx)
		if err != nil {
			return nil, err
		}

		f := FindFixture(fixtures, home, away)
		if f == nil {
			p.logger.DebugContext(ctx, "no live fixture matched",
				slog.String("home", home),
				slog.String("away", away),
				slog.Int("candidates", len(fixtures)),
			)
			return nil, nil
		}

		p.logger.DebugContext(ctx, "live fixture matched",
			slog.String("home", home),
			slog.String("away", away),
			slog.String("fixture_home", f.HomeTeam),
			slog.String("fixture_away", f.AwayTeam),
			slog.Int64("fixture_id", f.ID),
		)

		return &domain.LiveGame{
			HomeTeam:      f.HomeTeam,
			AwayTeam:      f.AwayTeam,
			HomeScore:     f.HomeScore,
			AwayScore:     f.AwayScore,
			FixtureID:     f.ID,
			CurrentMinute: ElapsedMinute(f.PeriodStart, f.Status, p.now()),
			Status:        f.Status,
			Momentum:      p.Momentum(ctx, f.ID),
		}, nil
	})
}

// FindFixture returns the first fixture whose home and away names both match,
// side for side. Fixtures without an id are skipped. When two live fixtures
// match the same pair the earlier one in provider order wins.
func FindFixture(fixtures []domain.LiveFixture, home, away string) *domain.LiveFixture {
	for i := range fixtures {
		f := &fixtures[i]
		if f.ID == 0 {
			continue
		}
		if TeamsMatch(home, f.HomeTeam) && TeamsMatch(away, f.AwayTeam) {
			return f
		}
	}
	return nil
}

// Prune drops expired per-pair entries. The poller calls it once per cycle so
// pairs that stop appearing do not accumulate.
func (p *Provider) Prune() {
	p.matches.Prune()
}
