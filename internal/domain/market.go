package domain

import "time"

// MarketEvent is an open prediction-market listing as reported by the
// Gamma API. It is immutable once fetched for a poll cycle.
type MarketEvent struct {
	ID        string
	Slug      string
	Title     string
	StartTime *time.Time // nil when neither startTime nor eventDate parsed
	Closed    bool
	Markets   []SubMarket
}

// SubMarket is one binary or multi-outcome question inside an event.
type SubMarket struct {
	Question string
	Outcomes []string // e.g. ["Yes","No"] or ["Home","Draw","Away"]
	TokenIDs []string // settlement token ids, first is the "yes" side
}

// PriceQuote is the current price and spread of one settlement token.
// A nil field means the upstream did not report it.
type PriceQuote struct {
	Price  *float64 `json:"price"`
	Spread *float64 `json:"spread"`
}

// Empty reports whether neither value is present.
func (q PriceQuote) Empty() bool {
	return q.Price == nil && q.Spread == nil
}

// MoneylineOutcome is one side of a moneyline board.
type MoneylineOutcome struct {
	Name    string `json:"name"`
	TokenID string `json:"token_id"`
	PriceQuote
}

// Moneyline is the win/draw/win board for a single game. Outcomes are ordered
// [home, draw, away] when HasDraw is set, otherwise [home, away].
type Moneyline struct {
	HasDraw  bool               `json:"has_draw"`
	Outcomes []MoneylineOutcome `json:"outcomes"`
}
