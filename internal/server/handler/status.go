package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/polylive/internal/poller"
)

// PollerStatus exposes the poller's counters.
type PollerStatus interface {
	Status() poller.Status
}

// StatusHandler serves the backend status for dashboards.
type StatusHandler struct {
	Mode      string
	Sports    []string
	StartedAt time.Time
	poller    PollerStatus
}

// NewStatusHandler creates a StatusHandler. p may be nil when no poller runs
// in this process.
func NewStatusHandler(mode string, sports []string, p PollerStatus) *StatusHandler {
	return &StatusHandler{Mode: mode, Sports: sports, StartedAt: time.Now().UTC(), poller: p}
}

// GetStatus responds with the mode, tracked sports and poll state.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"mode":           h.Mode,
		"sports":         h.Sports,
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
	}
	if h.poller != nil {
		st := h.poller.Status()
		body["poll_interval"] = st.Interval.String()
		body["poller"] = st
		if !st.LastPoll.IsZero() {
			body["last_snapshot"] = st.LastPoll.Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, body)
}
