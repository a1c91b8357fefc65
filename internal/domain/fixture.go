package domain

import "time"

// Momentum directions.
const (
	MomentumHome    = "home"
	MomentumAway    = "away"
	MomentumNeutral = "neutral"
)

// LiveFixture is a match currently listed by the live-score provider.
// Status is the provider's free-text phase label ("1st half", "Halftime").
type LiveFixture struct {
	ID          int64
	HomeTeam    string
	AwayTeam    string
	HomeScore   int
	AwayScore   int
	Status      string
	PeriodStart *time.Time
}

// GraphPoint is one sample of the provider's momentum graph. Positive values
// favour the home side.
type GraphPoint struct {
	Minute float64 `json:"minute"`
	Value  float64 `json:"value"`
}

// Comment is one line of live commentary.
type Comment struct {
	Text      string `json:"text"`
	EventType string `json:"event_type"`
	IsHome    bool   `json:"is_home"`
	Time      int    `json:"time"`
	Player    string `json:"player_name,omitempty"`
}

// MomentumSnapshot holds best-effort in-play statistics for one fixture.
// Every field is optional; a snapshot with nothing populated is never
// returned by the provider.
type MomentumSnapshot struct {
	FixtureID            int64        `json:"event_id"`
	PossessionHome       *int         `json:"possession_home"`
	PossessionAway       *int         `json:"possession_away"`
	AttacksHome          *int         `json:"attacks_home"`
	AttacksAway          *int         `json:"attacks_away"`
	DangerousAttacksHome *int         `json:"dangerous_attacks_home"`
	DangerousAttacksAway *int         `json:"dangerous_attacks_away"`
	Direction            *string      `json:"momentum_direction"`
	Value                *int         `json:"momentum_value"`
	Graph                []GraphPoint `json:"momentum_graph"`
	Comments             []Comment    `json:"recent_comments"`
}

// HasData reports whether any statistic, the graph scalar or commentary is
// present.
func (m *MomentumSnapshot) HasData() bool {
	if m == nil {
		return false
	}
	return m.PossessionHome != nil ||
		m.AttacksHome != nil ||
		m.DangerousAttacksHome != nil ||
		m.Value != nil ||
		len(m.Comments) > 0
}

// LiveGame is the live state attached to a correlated game: the matched
// fixture as seen at match time, plus derived clock and momentum.
type LiveGame struct {
	HomeTeam      string            `json:"home_team"`
	AwayTeam      string            `json:"away_team"`
	HomeScore     int               `json:"home_score"`
	AwayScore     int               `json:"away_score"`
	FixtureID     int64             `json:"event_id"`
	CurrentMinute *int              `json:"current_minute"`
	Status        string            `json:"status"`
	Momentum      *MomentumSnapshot `json:"momentum"`
}
