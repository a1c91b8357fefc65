package sofascore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const liveBody = `{"events":[
  {"id":0,"homeTeam":{"name":"Ghost FC"},"awayTeam":{"name":"Nobody"}},
  {"id":11,"homeTeam":{"name":"Real Madrid"},"awayTeam":{"name":"FC Barcelona"},
   "homeScore":{"current":2},"awayScore":{"current":1},
   "status":{"description":"2nd half","type":"inprogress"},
   "time":{"currentPeriodStartTimestamp":1772395200}},
  {"id":12,"homeTeam":{"name":"Arsenal"},"awayTeam":{"name":"Chelsea"},
   "status":{"description":"Finished"}}
]}`

type fakeSofa struct {
	live   atomic.Int32
	detail atomic.Int32

	mu       sync.Mutex
	liveBody string
	status   int
}

func (f *fakeSofa) set(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.liveBody = status, body
}

func (f *fakeSofa) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sport/football/events/live", func(w http.ResponseWriter, r *http.Request) {
		f.live.Add(1)
		f.mu.Lock()
		status, body := f.status, f.liveBody
		f.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		io.WriteString(w, body)
	})
	mux.HandleFunc("/event/11/graph", func(w http.ResponseWriter, r *http.Request) {
		f.detail.Add(1)
		io.WriteString(w, `{"graphPoints":[{"minute":1,"value":10},{"minute":2,"value":20},{"minute":3,"value":30},{"minute":4,"value":40},{"minute":5,"value":50},{"minute":6,"value":60}]}`)
	})
	mux.HandleFunc("/event/11/statistics", func(w http.ResponseWriter, r *http.Request) {
		f.detail.Add(1)
		io.WriteString(w, `{"statistics":[{"period":"ALL","groups":[{"statisticsItems":[
			{"key":"ballPossession","homeValue":"60%","awayValue":"40%"},
			{"key":"attacks","homeValue":20,"awayValue":10}]}]}]}`)
	})
	mux.HandleFunc("/event/11/comments", func(w http.ResponseWriter, r *http.Request) {
		f.detail.Add(1)
		io.WriteString(w, `{"comments":[
			{"text":"Goal!","type":"goal","isHome":true,"time":52,"player":{"name":"Vinicius Junior","shortName":"Vinicius"}},
			{"text":"Corner","time":50},
			{"text":"Kick-off","type":"start","time":1}]}`)
	})
	return mux
}

func newTestProvider(t *testing.T, fake *fakeSofa, commentLimit int) *Provider {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	p := NewProvider(Options{BaseURL: srv.URL, CommentLimit: commentLimit}, testLogger)
	p.now = func() time.Time { return time.Unix(1772395200, 0).Add(12 * time.Minute) }
	return p
}

func TestProviderMatch(t *testing.T) {
	fake := &fakeSofa{liveBody: liveBody}
	p := newTestProvider(t, fake, 2)
	ctx := context.Background()

	game, err := p.Match(ctx, "Real Madrid CF", "Barcelona")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if game == nil {
		t.Fatal("expected a live game")
	}
	if game.FixtureID != 11 || game.HomeScore != 2 || game.AwayScore != 1 {
		t.Errorf("unexpected game: %+v", game)
	}
	if game.CurrentMinute == nil || *game.CurrentMinute != 57 {
		t.Errorf("current minute = %v, want 57", game.CurrentMinute)
	}

	m := game.Momentum
	if m == nil {
		t.Fatal("expected momentum")
	}
	if m.Value == nil || *m.Value != 46 || *m.Direction != domain.MomentumHome {
		t.Errorf("graph momentum = %v/%v", m.Value, m.Direction)
	}
	if m.PossessionHome == nil || *m.PossessionHome != 60 || *m.AttacksAway != 10 {
		t.Errorf("stats not parsed: %+v", m)
	}
	if m.DangerousAttacksHome != nil {
		t.Error("dangerous attacks should be absent")
	}
	if len(m.Comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(m.Comments))
	}
	if m.Comments[0].Player != "Vinicius" {
		t.Errorf("player = %q, want short name", m.Comments[0].Player)
	}
	if m.Comments[1].EventType != "unknown" {
		t.Errorf("missing type should default to unknown, got %q", m.Comments[1].EventType)
	}
}

func TestProviderMatchCaching(t *testing.T) {
	fake := &fakeSofa{liveBody: liveBody}
	p := newTestProvider(t, fake, 0)
	ctx := context.Background()

	for _i := 0; _i < 3; _i++ {
		if _, err := p.Match(ctx, "Real Madrid", "Barcelona"); err != nil {
			t.Fatalf("Match: %v", err)
		}
	}
	if got := fake.live.Load(); got != 1 {
		t.Errorf("live list fetched %d times, want 1", got)
	}
	// Graph and statistics only; comments are disabled.
	if got := fake.detail.Load(); got != 2 {
		t.Errorf("detail endpoints hit %d times, want 2", got)
	}

	// A miss is cached too and reuses the fixture list.
	for _i := 0; _i < 2; _i++ {
		game, err := p.Match(ctx, "Liverpool", "Everton")
		if err != nil || game != nil {
			t.Fatalf("expected cached miss, got %+v, %v", game, err)
		}
	}
	if got := fake.live.Load(); got != 1 {
		t.Errorf("live list fetched %d times after misses, want 1", got)
	}
}

func TestProviderSkipsFixtureWithoutID(t *testing.T) {
	p := newTestProvider(t, &fakeSofa{liveBody: liveBody}, 0)
	game, err := p.Match(context.Background(), "Ghost FC", "Nobody")
	if err != nil || game != nil {
		t.Errorf("fixture without id matched: %+v, %v", game, err)
	}
}

func TestProviderUpstreamFailure(t *testing.T) {
	fake := &fakeSofa{status: http.StatusInternalServerError}
	p := newTestProvider(t, fake, 0)
	ctx := context.Background()

	_, err := p.Match(ctx, "Real Madrid", "Barcelona")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.Source != "sofascore" {
		t.Errorf("unexpected error type: %#v", err)
	}

	// Failures are not cached.
	fake.set(0, liveBody)
	game, err := p.Match(ctx, "Real Madrid", "Barcelona")
	if err != nil || game == nil {
		t.Fatalf("retry after failure: %+v, %v", game, err)
	}
	if got := fake.live.Load(); got != 2 {
		t.Errorf("live list fetched %d times, want 2", got)
	}
}

func TestProviderHealth(t *testing.T) {
	ctx := context.Background()

	ok := newTestProvider(t, &fakeSofa{liveBody: `{"events":[]}`}, 0)
	if err := ok.Health(ctx); err != nil {
		t.Errorf("healthy provider: %v", err)
	}

	missing := newTestProvider(t, &fakeSofa{liveBody: `{"data":[]}`}, 0)
	if err := missing.Health(ctx); err == nil {
		t.Error("missing events field should fail health")
	}

	forbidden := newTestProvider(t, &fakeSofa{status: http.StatusForbidden}, 0)
	if err := forbidden.Health(ctx); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("403 should map to ErrUnauthorized, got %v", err)
	}
}

func TestFindFixture(t *testing.T) {
	fixtures := []domain.LiveFixture{
		{ID: 1, HomeTeam: "Barcelona", AwayTeam: "Real Madrid"},
		{ID: 2, HomeTeam: "Real Madrid", AwayTeam: "Barcelona"},
		{ID: 3, HomeTeam: "Real Madrid Castilla", AwayTeam: "Barcelona B"},
	}
	f := FindFixture(fixtures, "Real Madrid", "Barcelona")
	if f == nil || f.ID != 2 {
		t.Fatalf("expected side-for-side match id 2, got %+v", f)
	}
	if FindFixture(nil, "Real Madrid", "Barcelona") != nil {
		t.Error("empty list should not match")
	}
}

func TestClientRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"events":[],"pad":"`+strings.Repeat("x", maxResponseBytes)+`"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-agent", nil, 0, 0)
	_, err := c.LiveEvents(context.Background(), 5*time.Second)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v, want size limit error", err)
	}
}
