package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/alanyoungcy/polylive/internal/server/handler"
	"github.com/alanyoungcy/polylive/internal/server/middleware"
	"github.com/alanyoungcy/polylive/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	// RateLimit is the per-client request budget per RateWindow. Zero, or a
	// nil limiter, disables rate limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Live   *handler.LiveHandler
	Status *handler.StatusHandler
	Sports *handler.SportsHandler
}

// Server is the HTTP + WebSocket API for live games.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (CORS, logging, rate limit, auth) and attaches the
// WebSocket hub when one is given.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewHandler(cfg, handlers, wsHub, limiter, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// route is one registered endpoint.
type route struct {
	method  string
	path    string
	handler http.HandlerFunc
}

// NewHandler builds the routed, middleware-wrapped handler. It is separate
// from NewServer so tests can mount it on httptest.
func NewHandler(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) http.Handler {
	routes := []route{
		{http.MethodGet, "/api/health", handlers.Health.HealthCheck},
		{http.MethodGet, "/api/live-games", handlers.Live.ListLiveGames},
		{http.MethodPost, "/api/live-games/refresh", handlers.Live.Refresh},
		{http.MethodGet, "/api/status", handlers.Status.GetStatus},
		{http.MethodGet, "/api/sports", handlers.Sports.ListSports},
	}
	if wsHub != nil {
		routes = append(routes, route{http.MethodGet, "/ws", wsHub.HandleWS})
	}

	mux := http.NewServeMux()
	methods := make([]string, 0, len(routes))
	for _, rt := range routes {
		mux.HandleFunc(rt.method+" "+rt.path, rt.handler)
		methods = append(methods, rt.method)
	}

	// Build the middleware chain, innermost first. Health stays public.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health")(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins, methods)(h)
	return h
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
