package game

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func TestPlayNextIdleWhenStopped(t *testing.T) {
	s := newTestStore(t)
	s.BuyTokens(1)
	require.True(t, s.InvestInRelease(101))

	next, id, ok := s.PlayNext(0)
	assert.False(t, ok)
	assert.Equal(t, 0, next)
	assert.Zero(t, id)
	assert.Zero(t, s.Snapshot().User.Contribution[101])
}

func TestPlayNextIdleWithoutHoldings(t *testing.T) {
	s := newTestStore(t)
	s.TogglePlaylist()

	_, _, ok := s.PlayNext(0)
	assert.False(t, ok)
}

func TestPlayNextRoundRobinFairness(t *testing.T) {
	s := newTestStore(t)
	s.BuyTokens(3)
	for _, id := range []int{104, 101, 103} {
		require.True(t, s.InvestInRelease(id))
	}
	s.TogglePlaylist()

	const rounds = 4
	seen := map[int]int{}
	var order []int
	cursor := 0
	for i := 0; i < rounds*3; i++ {
		next, id, ok := s.PlayNext(cursor)
		require.True(t, ok)
		seen[id]++
		order = append(order, id)
		cursor = next
	}

	assert.Equal(t, map[int]int{101: rounds, 103: rounds, 104: rounds}, seen)
	assert.Equal(t, []int{101, 103, 104}, order[:3], "catalog order")

	st := s.Snapshot()
	for _, id := range []int{101, 103, 104} {
		assert.Equal(t, rounds, st.User.Contribution[id])
	}
	require.NotNil(t, st.Playback.CurrentPlayingReleaseID)
	assert.Equal(t, 104, *st.Playback.CurrentPlayingReleaseID)
}

func TestPlayNextResetsCursorForShrunkList(t *testing.T) {
	s := newTestStore(t)
	s.BuyTokens(1)
	require.True(t, s.InvestInRelease(104))
	s.TogglePlaylist()

	next, id, ok := s.PlayNext(2)
	require.True(t, ok)
	assert.Equal(t, 104, id)
	assert.Equal(t, 0, next)
}

func TestPlayNextPicksUpNewHoldings(t *testing.T) {
	s := newTestStore(t)
	s.BuyTokens(2)
	require.True(t, s.InvestInRelease(104))
	s.TogglePlaylist()

	cursor, _, _ := s.PlayNext(0)
	require.True(t, s.InvestInRelease(101))

	assert.Equal(t, 0, cursor)

	// The list is recomputed as [101 104], so the wrapped cursor now lands on 101.
	_, id, ok := s.PlayNext(cursor)
	require.True(t, ok)
	assert.Equal(t, 101, id)
}

func TestPlaybackKey(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, PlaybackKey{}, s.PlaybackKey())
	assert.False(t, s.PlaybackKey().Active())

	s.BuyTokens(2)
	s.InvestInRelease(104)
	s.InvestInRelease(101)
	s.TogglePlaylist()

	k := s.PlaybackKey()
	assert.Equal(t, PlaybackKey{Playing: true, Positions: "101,104"}, k)
	assert.True(t, k.Active())
}

func TestPlayerTicksWhilePlaying(t *testing.T) {
	s := newTestStore(t)
	p := NewPlayer(s, 5*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	s.BuyTokens(2)
	require.True(t, s.InvestInRelease(101))
	require.True(t, s.InvestInRelease(103))
	assert.False(t, p.Running(), "not playing yet")

	s.TogglePlaylist()
	assert.Eventually(t, func() bool {
		st := s.Snapshot()
		return st.User.Contribution[101] > 0 && st.User.Contribution[103] > 0
	}, time.Second, 5*time.Millisecond)

	s.TogglePlaylist()
	assert.False(t, p.Running())

	before := s.Snapshot().User.Contribution
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, s.Snapshot().User.Contribution, "no plays after stopping")
}

func TestPlayerRestartsOnlyOnGoverningChange(t *testing.T) {
	s := newTestStore(t)
	p := NewPlayer(s, time.Hour, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.parent != nil
	}, time.Second, time.Millisecond)

	s.BuyTokens(3)
	require.True(t, s.InvestInRelease(101))
	s.TogglePlaylist()
	require.True(t, p.Running())

	p.mu.Lock()
	startsAfterPlay := p.starts
	p.mu.Unlock()
	assert.Equal(t, 1, startsAfterPlay)

	// Unrelated mutations keep the same ticker.
	s.ToggleMute()
	s.ReservePresaleToken()
	s.SimulatePlay(101)
	require.True(t, s.VoteForVersion(103, VariantA))
	// A second token in a held release keeps the same set of positions.
	require.True(t, s.InvestInRelease(101))

	p.mu.Lock()
	assert.Equal(t, 1, p.starts)
	p.mu.Unlock()

	// A new position replaces the ticker.
	require.True(t, s.InvestInRelease(104))
	p.mu.Lock()
	assert.Equal(t, 2, p.starts)
	p.mu.Unlock()
	assert.True(t, p.Running())
}

func TestPlayerStopsOnContextCancel(t *testing.T) {
	s := newTestStore(t)
	p := NewPlayer(s, 5*time.Millisecond, quietLogger())
	s.BuyTokens(1)
	require.True(t, s.InvestInRelease(101))
	s.TogglePlaylist()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.Eventually(t, p.Running, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("player did not stop")
	}
	assert.False(t, p.Running())
}

func TestPlayerOnTick(t *testing.T) {
	s := newTestStore(t)
	p := NewPlayer(s, 5*time.Millisecond, quietLogger())
	ticks := make(chan int, 16)
	p.OnTick = func(id int) {
		select {
		case ticks <- id:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	s.BuyTokens(1)
	require.True(t, s.InvestInRelease(103))
	s.TogglePlaylist()

	select {
	case id := <-ticks:
		assert.Equal(t, 103, id)
	case <-time.After(time.Second):
		t.Fatal("no tick")
	}
}
