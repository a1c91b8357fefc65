package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestFlexStrings(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`["Yes","No"]`, []string{"Yes", "No"}},
		{`"[\"Yes\",\"No\"]"`, []string{"Yes", "No"}},
		{`"123456"`, []string{"123456"}},
		{`""`, nil},
		{`null`, nil},
		{`[{"name":"Home"},{"name":"Draw"},{"name":"Away"}]`, []string{"Home", "Draw", "Away"}},
		{`[1, 2]`, []string{"1", "2"}},
	}
	for _, tt := range tests {
		var f flexStrings
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if fmt.Sprint([]string(f)) != fmt.Sprint(tt.want) || len(f) != len(tt.want) {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, f, tt.want)
		}
	}
}

func TestToDomainEvent(t *testing.T) {
	body := `{
		"id": "42",
		"slug": "real-madrid-vs-barcelona",
		"title": "Real Madrid vs. Barcelona",
		"closed": "false",
		"eventDate": "2026-03-01",
		"startTime": "2026-03-01T20:00:00Z",
		"markets": [
			{"question": "Will Real Madrid win on 2026-03-01?", "outcomes": "[\"Yes\",\"No\"]", "clobTokenIds": "[\"111\",\"222\"]"}
		]
	}`
	var e APIEvent
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatal(err)
	}
	ev := e.ToDomainEvent()

	if ev.ID != "42" || ev.Closed {
		t.Errorf("unexpected event %+v", ev)
	}
	want := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	if ev.StartTime == nil || !ev.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", ev.StartTime, want)
	}
	if len(ev.Markets) != 1 || len(ev.Markets[0].TokenIDs) != 2 || ev.Markets[0].TokenIDs[0] != "111" {
		t.Errorf("markets = %+v", ev.Markets)
	}
}

func TestToDomainEventFallsBackToEventDate(t *testing.T) {
	e := APIEvent{EventDate: "2026-03-01"}
	ev := e.ToDomainEvent()
	if ev.StartTime == nil || ev.StartTime.Day() != 1 {
		t.Fatalf("StartTime = %v", ev.StartTime)
	}

	e = APIEvent{StartTime: "not a date"}
	if ev := e.ToDomainEvent(); ev.StartTime != nil {
		t.Errorf("unparseable start time should be nil, got %v", ev.StartTime)
	}
}

func TestListOpenEventsPaginates(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get("closed") != "false" {
			t.Errorf("closed param = %q", r.URL.Query().Get("closed"))
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset >= 4 {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprintf(w, `[{"id":"%d","title":"A vs B"},{"id":"%d","title":"C vs D"}]`, offset, offset+1)
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, GammaOptions{PageSize: 2, MaxOffset: 100}, testLogger)
	events := g.ListOpenEvents(context.Background())

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if n := requests.Load(); n != 3 {
		t.Errorf("made %d requests, want 3 (two pages + empty page)", n)
	}
}

func TestListOpenEventsStopsAtMaxOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"x","title":"A vs B"}]`)
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, GammaOptions{PageSize: 1, MaxOffset: 3}, testLogger)
	if got := len(g.ListOpenEvents(context.Background())); got != 3 {
		t.Errorf("got %d events, want 3", got)
	}
}

func TestListOpenEventsKeepsPartialResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, `[{"id":"1","title":"A vs B"}, "garbage", {"id":"2","title":"C vs D"}]`)
			return
		}
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, GammaOptions{PageSize: 3}, testLogger)
	events := g.ListOpenEvents(context.Background())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (malformed entry skipped, then stop on error)", len(events))
	}
}

func TestGetEventsWrapsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, GammaOptions{}, testLogger)
	_, err := g.GetEvents(context.Background(), 10, 0)
	if !errors.Is(err, domain.ErrUpstream) || !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want upstream rate-limited error", err)
	}
}

func TestGetEventsRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat(" ", maxResponseBytes+1))
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, GammaOptions{}, testLogger)
	_, err := g.GetEvents(context.Background(), 10, 0)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v, want size limit error", err)
	}
}

func TestClobQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token_id")
		switch {
		case r.URL.Path == "/spread" && token == "a":
			fmt.Fprint(w, `{"spread":"0.02"}`)
		case r.URL.Path == "/midpoint" && token == "a":
			fmt.Fprint(w, `{"mid":0.55}`)
		case r.URL.Path == "/spread" && token == "b":
			fmt.Fprint(w, `{}`)
		case r.URL.Path == "/midpoint" && token == "b":
			fmt.Fprint(w, `{"mid":"0.31"}`)
		default:
			http.Error(w, "no orderbook", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClobClient(srv.URL, time.Second, 4, testLogger)
	quotes := c.Quotes(context.Background(), []string{"a", "b", "c"})

	if len(quotes) != 3 {
		t.Fatalf("got %d quotes, want 3", len(quotes))
	}
	a := quotes["a"]
	if a.Price == nil || *a.Price != 0.55 || a.Spread == nil || *a.Spread != 0.02 {
		t.Errorf("quote a = %+v", a)
	}
	b := quotes["b"]
	if b.Price == nil || *b.Price != 0.31 || b.Spread != nil {
		t.Errorf("quote b = %+v, want price only", b)
	}
	if !quotes["c"].Empty() {
		t.Errorf("quote c = %+v, want empty", quotes["c"])
	}
}
