package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingSender struct {
	name string
	err  error
	sent []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.sent = append(r.sent, title)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func TestNotifierFiltersEvents(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{EventGameLive, " "}, testLogger)
	ctx := context.Background()

	if err := n.Notify(ctx, EventPollFailed, "dropped", ""); err != nil {
		t.Fatal(err)
	}
	if err := n.Notify(ctx, EventGameLive, "kept", ""); err != nil {
		t.Fatal(err)
	}
	if err := n.NotifyAll(ctx, "forced", ""); err != nil {
		t.Fatal(err)
	}
	if strings.Join(s.sent, ",") != "kept,forced" {
		t.Errorf("sent = %v", s.sent)
	}
}

func TestNotifierJoinsSenderErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingSender{name: "ok"}
	bad := &recordingSender{name: "bad", err: boom}
	n := NewNotifier([]Sender{bad, ok}, nil, testLogger)

	err := n.Notify(context.Background(), EventGameLive, "t", "m")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if len(ok.sent) != 1 {
		t.Error("healthy sender should still receive the message")
	}
	if !n.Enabled() || (&Notifier{}).Enabled() {
		t.Error("Enabled mismatch")
	}
}

func TestDiscordSender(t *testing.T) {
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewDiscordSender(srv.URL).Send(context.Background(), "Title", "Body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(got.Embeds) != 1 || got.Embeds[0].Title != "Title" || got.Embeds[0].Description != "Body" {
		t.Errorf("payload = %+v", got)
	}

	fail := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusNotFound)
	}))
	defer fail.Close()
	if err := NewDiscordSender(fail.URL).Send(context.Background(), "t", "m"); err == nil {
		t.Error("expected error on 404")
	}
}

// fakeTelegram answers the two Bot API methods the sender uses.
type fakeTelegram struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"polylive","username":"polylive_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			io.WriteString(w, `{"ok":false,"error_code":400,"description":"bad form"}`)
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, r.PostForm.Get("chat_id")+"|"+r.PostForm.Get("text"))
		f.mu.Unlock()
		io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func TestTelegramSender(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	endpoint := srv.URL + "/bot%s/%s"

	s, err := newTelegramSender("token", "42", endpoint, srv.Client())
	if err != nil {
		t.Fatalf("newTelegramSender: %v", err)
	}
	if err := s.Send(context.Background(), "Soccer live", "Real_Madrid 1-0"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fake.sent) != 1 || fake.sent[0] != "42|*Soccer live*\nReal\\_Madrid 1-0" {
		t.Errorf("sent = %q", fake.sent)
	}

	if _, err := newTelegramSender("token", "not a chat", endpoint, srv.Client()); err == nil {
		t.Error("expected error for invalid chat")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, "t", "m"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Send: %v", err)
	}
}

func TestGameLiveMessage(t *testing.T) {
	minute, price, dir := 57, 0.62, "home"
	g := domain.CorrelatedGame{
		Sport: "Soccer", HomeTeam: "Real Madrid", AwayTeam: "Barcelona",
		URL:  "https://polymarket.com/event/rm-fcb",
		Live: domain.LiveGame{HomeScore: 2, AwayScore: 1, CurrentMinute: &minute, Momentum: &domain.MomentumSnapshot{Direction: &dir}},
		Moneyline: domain.Moneyline{HasDraw: true, Outcomes: []domain.MoneylineOutcome{
			{Name: "Real Madrid", PriceQuote: domain.PriceQuote{Price: &price}},
			{Name: "Draw"},
		}},
	}
	title, msg := GameLiveMessage(g)
	if title != "Soccer live: Real Madrid vs Barcelona" {
		t.Errorf("title = %q", title)
	}
	want := "Score 2-1 (57')\nReal Madrid 62%\nDraw n/a\nMomentum: home\nhttps://polymarket.com/event/rm-fcb"
	if msg != want {
		t.Errorf("message = %q, want %q", msg, want)
	}
}
