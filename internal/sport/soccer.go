package sport

import (
	"strings"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var _ Sport = Soccer{}

// Soccer classifies association football events. It is draw-eligible.
type Soccer struct{ titleSplitter }

var soccerLeagueCodes = []string{
	"epl", "ucl", "lal", "bun", "fl1", "sea", "mls", "ere",
	"arg", "mex", "lib", "sud", "tur", "rus", "efl", "con",
	"cof", "uef", "caf", "efa",
}

// Titles that carry a draw outcome but are not football matches.
var soccerStructuralExclusions = []string{
	"dota", "counter-strike", "valorant", "league of legends", "lol:",
	"ufc", "margin of victory", "larger margin", "more markets",
}

var soccerTerms = []string{
	"united", "city fc", "athletic", "sporting", "real ", "club ",
	"wanderers", "glory", "mariners", "victory", "rovers",
	"esgrima", "sarsfield", "gimnasia", "vélez", "velez",
	"river plate", "boca juniors", "flamengo", "palmeiras", "santos",
	"corinthians", "fluminense", "atletico", "atlético", "independiente",
}

// College and US franchise nicknames that collide with soccer terms.
var soccerExclusions = append(append([]string{}, soccerStructuralExclusions...),
	"gamecocks", "raiders", "wildcats", "tigers", "ospreys",
	"cardinals", "warriors", "lancers", "trailblazers", "jaguars",
	"leathernecks", "sharks", "tulane", "tulsa",
)

func (Soccer) Name() string { return "Soccer" }

func (Soccer) LeagueCodes() []string { return soccerLeagueCodes }

func (Soccer) HasDraw() bool { return true }

// BelongsTo first looks for a three-way market with a draw outcome, which is
// the strongest signal available. Titles are keyword-scored otherwise.
func (Soccer) BelongsTo(ev domain.MarketEvent) bool {
	title := strings.ToLower(ev.Title)

	if hasThreeWayDrawMarket(ev.Markets) && !containsAny(title, soccerStructuralExclusions) {
		return true
	}

	hasFC := strings.Contains(title, "fc") || strings.Contains(title, "f.c.")
	if !hasFC && !containsAny(title, soccerTerms) {
		return false
	}
	return !containsAny(title, soccerExclusions)
}

func hasThreeWayDrawMarket(markets []domain.SubMarket) bool {
	for _, m := range markets {
		if len(m.Outcomes) != 3 {
			continue
		}
		for _, o := range m.Outcomes {
			o = strings.ToLower(o)
			if strings.Contains(o, "draw") || strings.Contains(o, "tie") {
				return true
			}
		}
	}
	return false
}
