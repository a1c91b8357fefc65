package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Probe checks one upstream dependency.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves the dependency health endpoint.
type HealthHandler struct {
	probes  []Probe
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler that runs probes in order, each
// bounded by timeout (10s when zero).
func NewHealthHandler(probes []Probe, timeout time.Duration, logger *slog.Logger) *HealthHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HealthHandler{probes: probes, timeout: timeout, logger: logHandler(logger, "health")}
}

// HealthCheck reports "connected" for every probe, or 503 with the first
// failure.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "healthy"}
	for _, p := range h.probes {
		if err := h.run(r.Context(), p); err != nil {
			h.logger.WarnContext(r.Context(), "health probe failed",
				slog.String("probe", p.Name),
				slog.String("error", err.Error()),
			)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		body[p.Name] = "connected"
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *HealthHandler) run(ctx context.Context, p Probe) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return p.Check(ctx)
}
