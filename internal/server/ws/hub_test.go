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

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type chanBus struct {
	ch chan []byte
}

func (b *chanBus) Publish(_ context.Context, _ string, payload []byte) error {
	b.ch <- payload
	return nil
}

func (b *chanBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.ch, nil
}

func TestClientIsSubscribed(t *testing.T) {
	c := &client{subs: map[string]bool{"*": true}}
	assert.True(t, c.isSubscribed("opinions"))

	c.handleSubscription(subscribeMsg{Action: "subscribe", Channels: []string{"market_*"}})
	assert.False(t, c.isSubscribed("opinions"))
	assert.True(t, c.isSubscribed("market_cap"))

	c.handleSubscription(subscribeMsg{Action: "unsubscribe", Channels: []string{"market_*"}})
	assert.False(t, c.isSubscribed("market_cap"))
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed("", []string{"https://a.example"}))
	assert.True(t, originAllowed("https://x.example", nil))
	assert.True(t, originAllowed("https://A.example", []string{"https://a.example"}))
	assert.False(t, originAllowed("https://b.example", []string{"https://a.example"}))
}

func TestEncodeRejectsInvalidJSON(t *testing.T) {
	_, err := encode("opinions", []byte("{"))
	assert.Error(t, err)

	data, err := encode("opinions", []byte(`{"opinionIds":[1]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"opinions","payload":{"opinionIds":[1]}}`, string(data))
}

func TestHubBridgesBusAndLocalFrames(t *testing.T) {
	bus := &chanBus{ch: make(chan []byte, 4)}
	hub := NewHub(bus, quietLogger(), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Envelope {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	}

	assert.Equal(t, "hello", read().Type)

	bus.ch <- []byte(`{"opinionIds":[3]}`)
	env := read()
	assert.Equal(t, "opinions", env.Type)
	assert.JSONEq(t, `{"opinionIds":[3]}`, string(env.Payload))

	hub.Publish(ChannelMarketCap, map[string]float64{"value": 12.5})
	env = read()
	assert.Equal(t, ChannelMarketCap, env.Type)
	assert.JSONEq(t, `{"value":12.5}`, string(env.Payload))
}
