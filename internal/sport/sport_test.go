package sport

import (
	"testing"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

func TestExtractTeams(t *testing.T) {
	tests := []struct {
		title  string
		home   string
		away   string
		wantOK bool
	}{
		{"Real Madrid vs. Barcelona - More Markets", "Real Madrid", "Barcelona", true},
		{"Arsenal vs Chelsea", "Arsenal", "Chelsea", true},
		{"Celtic v Rangers - Match Winner", "Celtic", "Rangers", true},
		{"Boston Bruins VS. Toronto Maple Leafs", "Boston Bruins", "Toronto Maple Leafs", true},
		{"Lakers vs. Celtics - Moneyline", "Lakers", "Celtics", true},
		{"Will Arsenal win the league?", "", "", false},
		{"Team A vs. ", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		home, away, ok := ExtractTeams(tt.title)
		if ok != tt.wantOK || home != tt.home || away != tt.away {
			t.Errorf("ExtractTeams(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.title, home, away, ok, tt.home, tt.away, tt.wantOK)
		}
	}
}

func TestSoccerBelongsTo(t *testing.T) {
	threeWay := []domain.SubMarket{{Question: "Result", Outcomes: []string{"Home", "Draw", "Away"}}}

	tests := []struct {
		name string
		ev   domain.MarketEvent
		want bool
	}{
		{"three way draw market", domain.MarketEvent{Title: "Napoli vs. Lazio", Markets: threeWay}, true},
		{"three way esports excluded", domain.MarketEvent{Title: "Dota 2: Team Spirit vs OG", Markets: threeWay}, false},
		{"fc keyword", domain.MarketEvent{Title: "Liverpool FC vs. Everton"}, true},
		{"soccer term", domain.MarketEvent{Title: "Boca Juniors vs River Plate"}, true},
		{"college excluded", domain.MarketEvent{Title: "Sporting Tigers vs Wildcats"}, false},
		{"no signal", domain.MarketEvent{Title: "Lakers vs. Celtics"}, false},
		{"margin market excluded", domain.MarketEvent{Title: "Manchester United margin of victory"}, false},
	}

	var s Soccer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.BelongsTo(tt.ev); got != tt.want {
				t.Errorf("BelongsTo(%q) = %v, want %v", tt.ev.Title, got, tt.want)
			}
		})
	}
}

func TestHockeyBelongsTo(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Boston Bruins vs. Toronto Maple Leafs", true},
		{"New York Rangers vs. New Jersey Devils", true},
		{"Rangers FC vs. Celtic", false},
		{"Manchester United vs. Arsenal", false},
		{"Arsenal vs. Chelsea", false},
	}

	var h Hockey
	for _, tt := range tests {
		if got := h.BelongsTo(domain.MarketEvent{Title: tt.title}); got != tt.want {
			t.Errorf("BelongsTo(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
	if h.HasDraw() {
		t.Error("hockey must not be draw-eligible")
	}
}

func TestPotentiallyLive(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	past := now.Add(-30 * time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		ev   domain.MarketEvent
		want bool
	}{
		{"started", domain.MarketEvent{StartTime: &past}, true},
		{"starts now", domain.MarketEvent{StartTime: &now}, true},
		{"not started", domain.MarketEvent{StartTime: &future}, false},
		{"closed", domain.MarketEvent{StartTime: &past, Closed: true}, false},
		{"no start time", domain.MarketEvent{}, false},
	}
	for _, tt := range tests {
		if got := PotentiallyLive(tt.ev, now); got != tt.want {
			t.Errorf("%s: PotentiallyLive = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFromNames(t *testing.T) {
	sports, err := FromNames([]string{"soccer", "nhl", "hockey"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sports) != 2 {
		t.Fatalf("got %d sports, want 2 (hockey deduplicated)", len(sports))
	}
	if sports[0].Name() != "Soccer" || sports[1].Name() != "NHL" {
		t.Errorf("names = %s, %s", sports[0].Name(), sports[1].Name())
	}
	if _, err := FromNames([]string{"cricket"}); err == nil {
		t.Error("expected error for unknown sport")
	}
}
