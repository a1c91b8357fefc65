// Package market turns an event's Yes/No sub-markets into a moneyline board.
package market

import (
	"regexp"
	"strings"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var isoDate = regexp.MustCompile(`\s*\d{4}-\d{2}-\d{2}\s*`)

// ExtractMoneyline builds the moneyline for a game from its sub-markets.
//
// Only Yes/No sub-markets with at least one token count; the first token is
// the Yes side and carries the displayed price. With hasDraw the result has
// exactly three outcomes ordered [team1, draw, team2], otherwise exactly two.
// Any other shape yields ok=false; partial boards are never returned.
func ExtractMoneyline(markets []domain.SubMarket, quotes map[string]domain.PriceQuote, hasDraw bool) (domain.Moneyline, bool) {
	var (
		teams []domain.MoneylineOutcome
		draw  *domain.MoneylineOutcome
	)

	for _, m := range markets {
		if len(m.Outcomes) != 2 || len(m.TokenIDs) == 0 {
			continue
		}
		yes := m.TokenIDs[0]
		q := strings.ToLower(m.Question)

		switch {
		case hasDraw && strings.Contains(q, "draw"):
			draw = &domain.MoneylineOutcome{Name: "Draw", TokenID: yes, PriceQuote: quotes[yes]}
		case strings.Contains(q, "win"):
			teams = append(teams, domain.MoneylineOutcome{
				Name:       TeamName(m.Question),
				TokenID:    yes,
				PriceQuote: quotes[yes],
			})
		}
	}

	if len(teams) != 2 {
		return domain.Moneyline{}, false
	}
	if hasDraw {
		if draw == nil {
			return domain.Moneyline{}, false
		}
		return domain.Moneyline{
			HasDraw:  true,
			Outcomes: []domain.MoneylineOutcome{teams[0], *draw, teams[1]},
		}, true
	}
	return domain.Moneyline{Outcomes: teams}, true
}

// TeamName derives a display name from a question such as
// "Will Arsenal win on 2026-03-01?".
func TeamName(question string) string {
	name := strings.ReplaceAll(question, "Will ", "")
	name = strings.ReplaceAll(name, " win on", "")
	name = strings.ReplaceAll(name, "?", "")
	name = strings.TrimSpace(name)
	return strings.TrimSpace(isoDate.ReplaceAllString(name, ""))
}

// TokenIDs returns every settlement token referenced by markets, in order and
// without duplicates.
func TokenIDs(markets []domain.SubMarket) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range markets {
		for _, id := range m.TokenIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
