// Package sport classifies market events by sport and pulls team names out of
// free-text event titles.
package sport

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

// Sport is one supported sport. Adding a sport means adding a new
// implementation and registering it in ByName; the tracker never branches on
// the concrete type.
type Sport interface {
	// Name is the display name and the key used in snapshots.
	Name() string
	// LeagueCodes lists the Gamma /sports codes that belong to this sport.
	LeagueCodes() []string
	// BelongsTo reports whether an event looks like a game of this sport.
	BelongsTo(ev domain.MarketEvent) bool
	// ExtractTeams splits a title into home and away team names.
	ExtractTeams(title string) (home, away string, ok bool)
	// HasDraw reports whether a match can end level.
	HasDraw() bool
}

// ByName resolves a configured sport name.
func ByName(name string) (Sport, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "soccer", "football":
		return Soccer{}, nil
	case "hockey", "nhl":
		return Hockey{}, nil
	default:
		return nil, fmt.Errorf("sport: unknown sport %q", name)
	}
}

// FromNames resolves every name, skipping duplicates that map to the same sport.
func FromNames(names []string) ([]Sport, error) {
	seen := make(map[string]bool, len(names))
	out := make([]Sport, 0, len(names))
	for _, n := range names {
		s, err := ByName(n)
		if err != nil {
			return nil, err
		}
		if seen[s.Name()] {
			continue
		}
		seen[s.Name()] = true
		out = append(out, s)
	}
	return out, nil
}

// Separators are tried in order; the first one present wins.
var titleSeparators = []string{" vs. ", " vs ", " v "}

// Market-type annotations Polymarket appends to game titles.
var titleSuffixes = []string{" - More Markets", " - Match Winner", " - Moneyline"}

// ExtractTeams splits a "Home vs. Away" title. Matching is case-insensitive
// and trailing market annotations are removed first.
func ExtractTeams(title string) (home, away string, ok bool) {
	clean := strings.TrimSpace(title)
	for _, suffix := range titleSuffixes {
		if i := indexFold(clean, suffix); i >= 0 {
			clean = strings.TrimSpace(clean[:i] + clean[i+len(suffix):])
		}
	}

	for _, sep := range titleSeparators {
		i := indexFold(clean, sep)
		if i < 0 {
			continue
		}
		home = strings.TrimSpace(clean[:i])
		away = strings.TrimSpace(clean[i+len(sep):])
		if home == "" || away == "" {
			return "", "", false
		}
		return home, away, true
	}
	return "", "", false
}

// PotentiallyLive is the cheap pre-filter applied before asking the score
// provider: the event is open and its start time has passed.
func PotentiallyLive(ev domain.MarketEvent, now time.Time) bool {
	if ev.Closed || ev.StartTime == nil {
		return false
	}
	return !ev.StartTime.After(now)
}

// indexFold is strings.Index with ASCII case folding. sub must be ASCII.
func indexFold(s, sub string) int {
	n := len(sub)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], sub) {
			return i
		}
	}
	return -1
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// titleSplitter gives sports the shared title parsing.
type titleSplitter struct{}

func (titleSplitter) ExtractTeams(title string) (string, string, bool) {
	return ExtractTeams(title)
}
