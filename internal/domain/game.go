package domain

import "time"

// CorrelatedGame joins one market event with its matched live fixture and
// moneyline. It is built once per poll cycle and never mutated afterwards.
type CorrelatedGame struct {
	EventID   string    `json:"event_id"`
	Slug      string    `json:"event_slug"`
	Title     string    `json:"title"`
	URL       string    `json:"polymarket_url"`
	StartTime string    `json:"start_time"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Sport     string    `json:"sport"`
	Live      LiveGame  `json:"live_data"`
	Moneyline Moneyline `json:"moneyline"`
}

// SportSnapshot is the per-sport section of a Snapshot. TotalFound counts
// events that passed the cheap liveness pre-filter; TotalLive counts games
// actually produced.
type SportSnapshot struct {
	TotalFound int              `json:"total_found"`
	TotalLive  int              `json:"total_live"`
	Games      []CorrelatedGame `json:"games"`
}

// Snapshot is the full result of one poll cycle.
type Snapshot struct {
	Timestamp  time.Time                `json:"timestamp"`
	Sports     map[string]SportSnapshot `json:"sports"`
	TotalGames int                      `json:"total_games"`
}

// EventIDs returns the set of market event ids present in the snapshot.
func (s Snapshot) EventIDs() map[string]bool {
	ids := make(map[string]bool, s.TotalGames)
	for _, sp := range s.Sports {
		for _, g := range sp.Games {
			ids[g.EventID] = true
		}
	}
	return ids
}
