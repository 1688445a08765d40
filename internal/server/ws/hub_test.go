package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// memBus is an in-process SignalBus.
type memBus struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newMemBus() *memBus { return &memBus{subs: map[string][]chan []byte{}} }

func (b *memBus) Publish(_ context.Context, ch string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs[ch] {
		s <- payload
	}
	return nil
}

func (b *memBus) Subscribe(_ context.Context, ch string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := make(chan []byte, 8)
	b.subs[ch] = append(b.subs[ch], s)
	return s, nil
}

func (b *memBus) subscribed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs) == len(Channels)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return env
}

func TestHubBridgesBus(t *testing.T) {
	bus := newMemBus()
	hub := NewHub(bus, "serve", slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if env := readEnvelope(t, conn); env.Type != "status" {
		t.Fatalf("first frame = %+v", env)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !bus.subscribed() {
		if time.Now().After(deadline) {
			t.Fatal("hub never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// Registration happens on the hub loop; give it a moment.
	time.Sleep(50 * time.Millisecond)

	if err := bus.Publish(ctx, domain.ChannelDraws, []byte(`{"collected":2}`)); err != nil {
		t.Fatal(err)
	}
	env := readEnvelope(t, conn)
	if env.Type != "event" || env.Channel != domain.ChannelDraws || string(env.Payload) != `{"collected":2}` {
		t.Fatalf("event = %+v", env)
	}
}

func TestHandleSubscription(t *testing.T) {
	c := &client{subs: map[string]bool{domain.ChannelDraws: true, domain.ChannelRecommendations: true}}
	c.handleSubscription(subscribeMsg{Action: "unsubscribe", Channels: []string{domain.ChannelDraws, "bogus"}})
	if c.isSubscribed(domain.ChannelDraws) || !c.isSubscribed(domain.ChannelRecommendations) {
		t.Fatalf("subs = %v", c.subs)
	}
	c.handleSubscription(subscribeMsg{Action: "subscribe", Channels: []string{"bogus", domain.ChannelDraws}})
	if !c.isSubscribed(domain.ChannelDraws) || c.isSubscribed("bogus") {
		t.Fatalf("subs = %v", c.subs)
	}
}
