package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/boutique-music/internal/game"
)

type recorder struct {
	mu   sync.Mutex
	got  []Envelope
	fail bool
}

func (r *recorder) Publish(_ context.Context, env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("down")
	}
	r.got = append(r.got, env)
	return nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(game.Event{Type: game.EventInvested, ReleaseID: 101, Amount: 1})

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "invested", env.Type)
	assert.Equal(t, SenderSystem, env.Sender)

	raw, err := env.Marshal()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, float64(101), payload["release_id"])
}

func TestFanoutDeliversToEveryPublisher(t *testing.T) {
	log, _ := test.NewNullLogger()
	a, b := &recorder{}, &recorder{fail: true}
	f := NewFanout(log, 8, b, a)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	f.Observe(game.Event{Type: game.EventTokensBought, Amount: 5})
	f.Observe(game.Event{Type: game.EventMuteToggled})

	assert.Eventually(t, func() bool { return a.len() == 2 }, time.Second, 5*time.Millisecond)
}

func TestFanoutDropsWhenFull(t *testing.T) {
	log, hook := test.NewNullLogger()
	f := NewFanout(log, 1)

	f.Observe(game.Event{Type: game.EventPlayed})
	f.Observe(game.Event{Type: game.EventPlayed})

	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "queue full")
}

func TestRedisPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	pub, err := NewRedis(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer pub.Close()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()
	ps := sub.Subscribe(ctx, DefaultChannel)
	defer ps.Close()
	_, err = ps.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, NewEnvelope(game.Event{Type: game.EventVoted, ReleaseID: 103, Variant: game.VariantA})))

	select {
	case msg := <-ps.Channel():
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, "voted", env.Type)
		assert.Equal(t, 103, env.Payload.ReleaseID)
		assert.Equal(t, game.VariantA, env.Payload.Variant)
	case <-time.After(2 * time.Second):
		t.Fatal("no message on channel")
	}
}

func TestNewRedisErrors(t *testing.T) {
	_, err := NewRedis(context.Background(), "not a url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedis(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}
