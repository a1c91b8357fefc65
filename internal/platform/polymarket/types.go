package polymarket

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether flags are sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = false
		return nil
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat accepts a JSON number or a numeric string. A missing, null or
// unparseable value leaves Valid false.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = flexFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat{Value: n, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		*f = flexFloat{Value: v, Valid: true}
	}
	return nil
}

// Ptr returns the value as an optional float.
func (f flexFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// flexStrings decodes list fields that Gamma sends either as a real JSON array
// or as a JSON-encoded array inside a string ("[\"Yes\",\"No\"]"). A string
// that is not an array becomes a one-element list. Object elements contribute
// their "name" field.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	*f = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var inner flexStrings
			if err := inner.decodeArray([]byte(s)); err == nil {
				*f = inner
				return nil
			}
		}
		*f = flexStrings{s}
		return nil
	}

	_ = f.decodeArray(data)
	return nil
}

func (f *flexStrings) decodeArray(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(flexStrings, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(r, &obj); err == nil && obj.Name != "" {
			out = append(out, obj.Name)
			continue
		}
		out = append(out, string(bytes.Trim(r, `"`)))
	}
	*f = out
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets.
type APIEvent struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Closed    flexBool    `json:"closed"`
	StartTime string      `json:"startTime"`
	EventDate string      `json:"eventDate"`
	Markets   []APIMarket `json:"markets"`
}

// APIMarket represents a sub-market nested in a Gamma event.
type APIMarket struct {
	Question     string      `json:"question"`
	Outcomes     flexStrings `json:"outcomes"`
	ClobTokenIDs flexStrings `json:"clobTokenIds"`
}

// ToDomainEvent converts an APIEvent to a domain.MarketEvent. startTime wins
// over eventDate; a value that fails to parse leaves StartTime nil.
func (e *APIEvent) ToDomainEvent() domain.MarketEvent {
	ev := domain.MarketEvent{
		ID:     e.ID,
		Slug:   e.Slug,
		Title:  e.Title,
		Closed: bool(e.Closed),
	}

	raw := e.StartTime
	if raw == "" {
		raw = e.EventDate
	}
	if t, ok := parseTimestamp(raw); ok {
		ev.StartTime = &t
	}

	ev.Markets = make([]domain.SubMarket, 0, len(e.Markets))
	for _, m := range e.Markets {
		ev.Markets = append(ev.Markets, domain.SubMarket{
			Question: m.Question,
			Outcomes: []string(m.Outcomes),
			TokenIDs: []string(m.ClobTokenIDs),
		})
	}
	return ev
}

// Layouts seen in Gamma startTime/eventDate fields. Values without a zone are
// taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SportTag is an entry of the Gamma /sports listing.
type SportTag struct {
	Sport  string `json:"sport"`
	Tags   string `json:"tags"`
	Series string `json:"series"`
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

type spreadResponse struct {
	Spread flexFloat `json:"spread"`
}

type midpointResponse struct {
	Mid flexFloat `json:"mid"`
}
