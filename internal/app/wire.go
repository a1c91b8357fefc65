package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polylive/internal/cache/memory"
	"github.com/alanyoungcy/polylive/internal/cache/redis"
	"github.com/alanyoungcy/polylive/internal/config"
	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/alanyoungcy/polylive/internal/notify"
	"github.com/alanyoungcy/polylive/internal/platform/polymarket"
	"github.com/alanyoungcy/polylive/internal/platform/sofascore"
	"github.com/alanyoungcy/polylive/internal/poller"
	"github.com/alanyoungcy/polylive/internal/sport"
	"github.com/alanyoungcy/polylive/internal/tracker"
)

// Dependencies bundles everything the run modes need. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Upstreams
	Gamma  *polymarket.GammaClient
	Quotes domain.QuoteSource
	Live   *sofascore.Provider

	Sports  []sport.Sport
	Tracker *tracker.Tracker
	Poller  *poller.Poller

	// Shared state. RateLimiter and LockManager are nil without Redis.
	SnapshotCache domain.SnapshotCache
	RateLimiter   domain.RateLimiter
	LockManager   domain.LockManager
	SignalBus     domain.SignalBus

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	sports, err := sport.FromNames(cfg.Tracker.Sports)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	deps.Sports = sports

	// --- Redis (optional): shared snapshot, locks, rate limits, pub/sub ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SnapshotCache = redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		logger.InfoContext(ctx, "wire: redis enabled", slog.String("addr", redisClient.Addr()))
	} else {
		deps.SnapshotCache = memory.NewSnapshotCache()
		deps.SignalBus = memory.NewBus(16)
		logger.InfoContext(ctx, "wire: redis disabled, using in-process caches")
	}

	// --- Polymarket ---
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost, polymarket.GammaOptions{
		Timeout:   cfg.Polymarket.RequestTimeout.Duration,
		PageSize:  cfg.Polymarket.PageSize,
		MaxOffset: cfg.Polymarket.MaxOffset,
	}, logger)
	clob := polymarket.NewClobClient(
		cfg.Polymarket.ClobHost,
		cfg.Polymarket.QuoteTimeout.Duration,
		cfg.Polymarket.QuoteConcurrency,
		logger,
	)
	deps.Quotes = clob
	if redisClient != nil && cfg.Redis.QuoteTTL.Duration > 0 {
		deps.Quotes = redis.NewQuoteCache(redisClient, clob, cfg.Redis.QuoteTTL.Duration, logger)
	}

	// --- SofaScore ---
	deps.Live = sofascore.NewProvider(sofascore.Options{
		BaseURL:       cfg.SofaScore.BaseURL,
		UserAgent:     cfg.SofaScore.UserAgent,
		FixturesTTL:   cfg.SofaScore.FixturesTTL.Duration,
		MatchTTL:      cfg.SofaScore.MatchTTL.Duration,
		LiveTimeout:   cfg.SofaScore.LiveTimeout.Duration,
		HealthTimeout: cfg.SofaScore.HealthTimeout.Duration,
		DetailTimeout: cfg.SofaScore.DetailTimeout.Duration,
		CommentLimit:  cfg.SofaScore.CommentLimit,
		Limiter:       deps.RateLimiter,
		RateLimit:     cfg.SofaScore.RateLimit,
		RateWindow:    cfg.SofaScore.RateWindow.Duration,
	}, logger)

	if err := deps.Live.Health(ctx); err != nil {
		if cfg.SofaScore.StrictStartup {
			cleanup()
			return nil, nil, fmt.Errorf("wire: sofascore health: %w", err)
		}
		logger.WarnContext(ctx, "wire: sofascore health check failed, continuing",
			slog.String("error", err.Error()),
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		tg, err := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			logger.WarnContext(ctx, "wire: telegram notifications disabled",
				slog.String("error", err.Error()),
			)
		} else {
			senders = append(senders, tg)
		}
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Correlation and scheduling ---
	deps.Tracker = tracker.New(deps.Gamma, deps.Quotes, deps.Live, sports, cfg.Polymarket.EventURL, logger)

	opts := poller.Options{
		Interval: cfg.Poller.Interval.Duration,
		Locks:    deps.LockManager,
		LockTTL:  cfg.Poller.LockTTL.Duration,
		Bus:      deps.SignalBus,
		Pruner:   deps.Live,
	}
	if deps.Notifier.Enabled() {
		opts.Notifier = deps.Notifier
	}
	deps.Poller = poller.New(deps.Tracker, deps.SnapshotCache, opts, logger)

	return deps, cleanup, nil
}
