package sport

import (
	"strings"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var _ Sport = Hockey{}

// Hockey classifies NHL games. Regulation ties go to overtime, so there is no
// draw outcome.
type Hockey struct{ titleSplitter }

var nhlTerms = []string{
	"bruins", "maple leafs", "canadiens", "senators", "sabres",
	"rangers", "islanders", "devils", "flyers", "penguins",
	"capitals", "hurricanes", "blue jackets", "panthers", "lightning",
	"blackhawks", "avalanche", "stars", "wild", "predators",
	"blues", "jets", "flames", "oilers", "canucks",
	"golden knights", "kings", "ducks", "sharks", "coyotes",
	"kraken", "nhl",
}

// Several NHL nicknames are also football club names (Rangers, Wanderers).
var hockeySoccerMarkers = []string{"fc", "united", "city fc"}

func (Hockey) Name() string { return "NHL" }

func (Hockey) LeagueCodes() []string { return []string{"nhl"} }

func (Hockey) HasDraw() bool { return false }

func (Hockey) BelongsTo(ev domain.MarketEvent) bool {
	title := strings.ToLower(ev.Title)
	return containsAny(title, nhlTerms) && !containsAny(title, hockeySoccerMarkers)
}
