package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

// SnapshotSource returns the most recent correlation snapshot.
type SnapshotSource interface {
	Latest(ctx context.Context) (domain.Snapshot, error)
}

// Refresher queues an out-of-schedule poll. Trigger reports false when a
// request is already pending.
type Refresher interface {
	Trigger() bool
}

// LiveHandler serves the live games endpoints.
type LiveHandler struct {
	source    SnapshotSource
	refresher Refresher
	logger    *slog.Logger
}

// NewLiveHandler creates a LiveHandler. refresher may be nil, in which case
// refresh requests are rejected.
func NewLiveHandler(source SnapshotSource, refresher Refresher, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		source:    source,
		refresher: refresher,
		logger:    logHandler(logger, "live"),
	}
}

// ListLiveGames responds with the latest snapshot of correlated live games.
// GET /api/live-games
func (h *LiveHandler) ListLiveGames(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Latest(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "latest snapshot failed", slog.String("error", err.Error()))
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrLockHeld) {
			// Another replica is polling and nothing is cached yet.
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "Failed to fetch live games", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Refresh enqueues one poll cycle without waiting for it.
// POST /api/live-games/refresh
func (h *LiveHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "poller not running", "")
		return
	}
	queued := h.refresher.Trigger()
	h.logger.InfoContext(r.Context(), "refresh requested", slog.Bool("queued", queued))

	msg := "refresh enqueued"
	if !queued {
		msg = "refresh already pending"
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      msg,
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
