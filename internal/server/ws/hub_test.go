package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/polylive/internal/cache/memory"
	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestHubPushesSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := memory.NewBus(4)
	cache := memory.NewSnapshotCache()
	if err := cache.SetSnapshot(ctx, domain.Snapshot{TotalGames: 1}); err != nil {
		t.Fatal(err)
	}

	hub := NewHub(bus, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{
		Mode:     "Serve",
		Channels: map[string]string{"ch:live": "snapshot"},
		Cache:    cache,
	})
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()
	conn := dial(t, srv)

	status := read(t, conn)
	if status.Type != "status" || !strings.Contains(string(status.Payload), `"mode":"serve"`) {
		t.Errorf("status = %s %s", status.Type, status.Payload)
	}

	var snap domain.Snapshot
	initial := read(t, conn)
	if initial.Type != "snapshot" || json.Unmarshal(initial.Payload, &snap) != nil || snap.TotalGames != 1 {
		t.Errorf("initial = %s %s", initial.Type, initial.Payload)
	}

	bus.Publish(ctx, "ch:live", []byte("not json"))
	bus.Publish(ctx, "ch:live", []byte(`{"total_games":2}`))

	pushed := read(t, conn)
	if pushed.Type != "snapshot" || json.Unmarshal(pushed.Payload, &snap) != nil || snap.TotalGames != 2 {
		t.Errorf("pushed = %s %s", pushed.Type, pushed.Payload)
	}
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(memory.NewBus(1), slog.New(slog.NewTextHandler(io.Discard, nil)), Config{})
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()
	conn := dial(t, srv)
	read(t, conn)

	cancel()
	<-done

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNoStatusReceived) {
		t.Errorf("expected close frame, got %v", err)
	}
}
