package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polylive/internal/poller"
	"github.com/alanyoungcy/polylive/internal/server"
	"github.com/alanyoungcy/polylive/internal/server/handler"
	"github.com/alanyoungcy/polylive/internal/server/ws"
)

// ServeMode runs the poller and, when enabled, the HTTP and WebSocket API
// until ctx is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Any("sports", deps.Tracker.Sports()),
		slog.Duration("interval", a.cfg.Poller.Interval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Poller.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// OnceMode runs a single correlation cycle, stores and publishes it like any
// other cycle, and writes the snapshot as indented JSON.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode")

	snap, err := deps.Poller.Poll(ctx)
	if err != nil {
		return fmt.Errorf("once mode: %w", err)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("once mode: write snapshot: %w", err)
	}
	return nil
}

// startHTTPServer registers the API server and WebSocket hub on g. Both stop
// when ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		Channels:  map[string]string{poller.Channel: "snapshot"},
		Cache:     deps.SnapshotCache,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health: handler.NewHealthHandler([]handler.Probe{
			{Name: "sofascore", Check: deps.Live.Health},
			{Name: "polymarket", Check: deps.Gamma.Ping},
		}, a.cfg.SofaScore.HealthTimeout.Duration, a.logger),
		Live:   handler.NewLiveHandler(deps.Poller, deps.Poller, a.logger),
		Status: handler.NewStatusHandler(a.cfg.Mode, deps.Tracker.Sports(), deps.Poller),
		Sports: handler.NewSportsHandler(deps.Sports, deps.Gamma, 0, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)))
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
