package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/polylive/internal/cache/memory"
	"github.com/alanyoungcy/polylive/internal/platform/polymarket"
	"github.com/alanyoungcy/polylive/internal/sport"
)

// SportLister returns the Gamma /sports listing.
type SportLister interface {
	ListSports(ctx context.Context) ([]polymarket.SportTag, error)
}

type sportView struct {
	Name        string                `json:"name"`
	HasDraw     bool                  `json:"has_draw"`
	LeagueCodes []string              `json:"league_codes"`
	Leagues     []polymarket.SportTag `json:"leagues"`
}

// SportsHandler lists the tracked sports with the Gamma leagues that map to
// them. The listing changes rarely and is cached for ttl.
type SportsHandler struct {
	sports []sport.Sport
	lister SportLister
	tags   *memory.TTLCache[[]polymarket.SportTag]
	logger *slog.Logger
}

// NewSportsHandler creates a SportsHandler. ttl defaults to 10 minutes.
func NewSportsHandler(sports []sport.Sport, lister SportLister, ttl time.Duration, logger *slog.Logger) *SportsHandler {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SportsHandler{
		sports: sports,
		lister: lister,
		tags:   memory.NewTTLCache[[]polymarket.SportTag](ttl),
		logger: logHandler(logger, "sports"),
	}
}

// ListSports responds with one entry per tracked sport.
// GET /api/sports
func (h *SportsHandler) ListSports(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.GetOrLoad(r.Context(), "sports", h.lister.ListSports)
	if err != nil {
		h.logger.WarnContext(r.Context(), "sports listing failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "Failed to fetch sports", err.Error())
		return
	}

	out := make([]sportView, 0, len(h.sports))
	for _, s := range h.sports {
		codes := s.LeagueCodes()
		v := sportView{
			Name:        s.Name(),
			HasDraw:     s.HasDraw(),
			LeagueCodes: codes,
			Leagues:     []polymarket.SportTag{},
		}
		for _, t := range tags {
			for _, c := range codes {
				if strings.EqualFold(t.Sport, c) {
					v.Leagues = append(v.Leagues, t)
					break
				}
			}
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sports": out})
}
