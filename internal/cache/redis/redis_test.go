package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
)

// These tests need a disposable Redis: set POLYLIVE_TEST_REDIS_ADDR. Database
// 15 is flushed before each test.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("POLYLIVE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("POLYLIVE_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	c, err := New(ctx, ClientConfig{Addr: addr, DB: 15, PoolSize: 4})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if err := c.Underlying().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return c
}

func TestSnapshotCache(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	sc := NewSnapshotCache(c, time.Minute)

	if _, err := sc.GetSnapshot(ctx); !errors.Is(err, domain.ErrNoSnapshot) {
		t.Fatalf("empty cache: got %v, want ErrNoSnapshot", err)
	}

	minute := 57
	snap := domain.Snapshot{
		Timestamp: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
		Sports: map[string]domain.SportSnapshot{
			"Soccer": {TotalFound: 2, TotalLive: 1, Games: []domain.CorrelatedGame{{
				EventID: "101",
				Live:    domain.LiveGame{FixtureID: 11, CurrentMinute: &minute, Status: "2nd half"},
			}}},
		},
		TotalGames: 1,
	}
	if err := sc.SetSnapshot(ctx, snap); err != nil {
		t.Fatalf("SetSnapshot: %v", err)
	}

	got, err := sc.GetSnapshot(ctx)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !got.Timestamp.Equal(snap.Timestamp) || got.TotalGames != 1 {
		t.Errorf("snapshot = %+v", got)
	}
	g := got.Sports["Soccer"].Games[0]
	if g.Live.CurrentMinute == nil || *g.Live.CurrentMinute != 57 {
		t.Errorf("live data lost: %+v", g.Live)
	}

	ttl := c.Underlying().TTL(ctx, snapshotKey).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("snapshot ttl = %v", ttl)
	}
}

func TestLockManager(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	lm := NewLockManager(c)

	unlock, err := lm.Acquire(ctx, "poll", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := lm.Acquire(ctx, "poll", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
		t.Fatalf("second Acquire: got %v, want ErrLockHeld", err)
	}

	unlock()
	unlock()

	again, err := lm.Acquire(ctx, "poll", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after unlock: %v", err)
	}
	again()
}

func TestRateLimiter(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	rl := NewRateLimiter(c)

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "test", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("request %d: allowed=%v err=%v", i, ok, err)
		}
	}
	ok, err := rl.Allow(ctx, "test", 3, time.Minute)
	if err != nil || ok {
		t.Fatalf("fourth request: allowed=%v err=%v", ok, err)
	}

	wctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if err := rl.Wait(wctx, "test", 3, time.Minute); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait on exhausted window: %v", err)
	}

	if err := rl.Wait(ctx, "short", 1, 50*time.Millisecond); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	start := time.Now()
	if err := rl.Wait(ctx, "short", 1, 50*time.Millisecond); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("second Wait should have waited for the window to slide")
	}
}

type countingQuotes struct {
	mu    sync.Mutex
	asked [][]string
}

func (q *countingQuotes) Quotes(_ context.Context, ids []string) map[string]domain.PriceQuote {
	q.mu.Lock()
	q.asked = append(q.asked, ids)
	q.mu.Unlock()

	out := make(map[string]domain.PriceQuote, len(ids))
	for _, id := range ids {
		if id == "dead" {
			out[id] = domain.PriceQuote{}
			continue
		}
		p := 0.42
		out[id] = domain.PriceQuote{Price: &p}
	}
	return out
}

func TestQuoteCache(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	upstream := &countingQuotes{}
	qc := NewQuoteCache(c, upstream, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	first := qc.Quotes(ctx, []string{"a", "b", "dead"})
	if len(first) != 3 || first["a"].Price == nil || *first["a"].Price != 0.42 {
		t.Fatalf("first = %+v", first)
	}
	if first["a"].Spread != nil {
		t.Error("absent spread should stay absent")
	}

	second := qc.Quotes(ctx, []string{"a", "b", "dead"})
	if len(second) != 3 || second["b"].Price == nil {
		t.Fatalf("second = %+v", second)
	}
	if len(upstream.asked) != 2 || len(upstream.asked[1]) != 1 || upstream.asked[1][0] != "dead" {
		t.Errorf("upstream calls = %v, want only the empty quote refetched", upstream.asked)
	}
}

func TestOfferLatestReplacesUnread(t *testing.T) {
	out := make(chan []byte, 1)
	offerLatest(out, []byte("first"))
	offerLatest(out, []byte("second"))

	if got := string(<-out); got != "second" {
		t.Errorf("got %q, want the newest payload", got)
	}
	select {
	case msg := <-out:
		t.Errorf("unexpected extra payload %q", msg)
	default:
	}
}

func TestSignalBus(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewSignalBus(c)

	sub, err := bus.Subscribe(ctx, "ch:live")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := bus.Publish(ctx, "ch:live", []byte(`{"total_games":1}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-sub:
		if string(msg) != `{"total_games":1}` {
			t.Errorf("got %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	cancel()
	select {
	case _, ok := <-sub:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
