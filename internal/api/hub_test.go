package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/boutique-music/internal/game"
	"github.com/everforgeworks/boutique-music/internal/notify"
)

func registered(hook *test.Hook) func() bool {
	return func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "ws: client registered" {
				return true
			}
		}
		return false
	}
}

func TestHubBroadcastsStoreEvents(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	store, err := game.NewStore(game.DefaultFixture(), game.WithLogger(log))
	require.NoError(t, err)
	hub := NewHub(log)
	srv := NewServer(store, hub, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	fanout := notify.NewFanout(log, 16, hub)
	store.Subscribe(fanout.Observe)
	go fanout.Run(ctx)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "upgrade must pass through the router middleware")
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.Eventually(t, registered(hook), time.Second, 5*time.Millisecond)

	store.BuyTokens(3)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env notify.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, string(game.EventTokensBought), env.Type)
	assert.Equal(t, 3, env.Payload.Amount)
	assert.Equal(t, notify.SenderSystem, env.Sender)
	assert.NotEmpty(t, env.ID)
}

func TestHubPublishAfterStop(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	// Fill the buffer so the send cannot succeed.
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- nil
	}
	err := hub.Publish(context.Background(), notify.NewEnvelope(game.Event{Type: game.EventMuteToggled}))
	assert.ErrorIs(t, err, ErrHubStopped)
}

func TestHubPublishHonoursContext(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := hub.Publish(ctx, notify.NewEnvelope(game.Event{Type: game.EventMuteToggled}))
	assert.ErrorIs(t, err, context.Canceled)
}
