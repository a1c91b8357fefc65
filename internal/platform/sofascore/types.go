package sofascore

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

// number accepts a JSON number or numeric string; anything else is invalid.
type number struct {
	Value float64
	Valid bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	*n = number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = number{Value: f, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*n = number{Value: f, Valid: true}
		}
	}
	return nil
}

func (n number) intPtr() *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Value)
	return &v
}

type liveEventsResponse struct {
	Events *[]apiEvent `json:"events"`
}

type apiTeam struct {
	Name string `json:"name"`
}

type apiScore struct {
	Current number `json:"current"`
}

type apiEvent struct {
	ID        int64    `json:"id"`
	HomeTeam  apiTeam  `json:"homeTeam"`
	AwayTeam  apiTeam  `json:"awayTeam"`
	HomeScore apiScore `json:"homeScore"`
	AwayScore apiScore `json:"awayScore"`
	Status    struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"status"`
	Time struct {
		CurrentPeriodStartTimestamp int64 `json:"currentPeriodStartTimestamp"`
	} `json:"time"`
}

func (e *apiEvent) toDomain() domain.LiveFixture {
	f := domain.LiveFixture{
		ID:        e.ID,
		HomeTeam:  e.HomeTeam.Name,
		AwayTeam:  e.AwayTeam.Name,
		HomeScore: int(e.HomeScore.Current.Value),
		AwayScore: int(e.AwayScore.Current.Value),
		Status:    e.Status.Description,
	}
	if f.Status == "" {
		f.Status = "Live"
	}
	if ts := e.Time.CurrentPeriodStartTimestamp; ts > 0 {
		t := time.Unix(ts, 0).UTC()
		f.PeriodStart = &t
	}
	return f
}

type graphResponse struct {
	GraphPoints []struct {
		Minute number `json:"minute"`
		Value  number `json:"value"`
	} `json:"graphPoints"`
}

type statisticsResponse struct {
	Statistics []struct {
		Period string `json:"period"`
		Groups []struct {
			StatisticsItems []struct {
				Key       string `json:"key"`
				HomeValue number `json:"homeValue"`
				AwayValue number `json:"awayValue"`
			} `json:"statisticsItems"`
		} `json:"groups"`
	} `json:"statistics"`
}

type commentsResponse struct {
	Comments []struct {
		Text   string `json:"text"`
		Type   string `json:"type"`
		IsHome bool   `json:"isHome"`
		Time   number `json:"time"`
		Player *struct {
			Name      string `json:"name"`
			ShortName string `json:"shortName"`
		} `json:"player"`
	} `json:"comments"`
}
