/*
Package game
File: playback.go
Description:
    The playlist "heartbeat". While the playlist is playing and the user
    holds at least one release, a ticker walks the held releases round-robin
    and credits a simulated play to each in turn.

    The Player owns the ticker. It is resynced after every store change and
    restarts the ticker only when the inputs that govern it change, so two
    tickers never run at the same time.
*/

package game

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPlaybackInterval is the period between simulated plays.
const DefaultPlaybackInterval = 2 * time.Second

// PlaybackKey captures the inputs that decide whether the timer should run.
// Comparable, so a change is detected with ==.
type PlaybackKey struct {
	Playing   bool
	Positions string // Held release IDs in catalog order, comma separated
}

// Active reports whether a timer should be running for this key.
func (k PlaybackKey) Active() bool {
	return k.Playing && k.Positions != ""
}

// PlaybackKey returns the current governing inputs of the playback timer.
func (s *Store) PlaybackKey() PlaybackKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.investedIDsLocked()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return PlaybackKey{
		Playing:   s.playback.IsPlaylistPlaying,
		Positions: strings.Join(parts, ","),
	}
}

// PlayNext performs one playback tick. The held list is recomputed from the
// live investments on every call. A cursor past the end of a shrunk list
// wraps to 0 before picking. It returns the next cursor, the played release
// and ok=false when there was nothing to do.
func (s *Store) PlayNext(cursor int) (next int, releaseID int, ok bool) {
	s.mu.Lock()
	ids := s.investedIDsLocked()
	if !s.playback.IsPlaylistPlaying || len(ids) == 0 {
		s.mu.Unlock()
		return cursor, 0, false
	}
	if cursor < 0 || cursor >= len(ids) {
		cursor = 0
	}

	releaseID = ids[cursor]
	s.simulatePlayLocked(releaseID)
	id := releaseID
	s.playback.CurrentPlayingReleaseID = &id
	next = (cursor + 1) % len(ids)
	s.mu.Unlock()

	s.emit(Event{Type: EventPlayed, ReleaseID: releaseID})
	return next, releaseID, true
}

// run is one live ticker goroutine.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Player drives Store.PlayNext on a fixed period.
type Player struct {
	store    *Store
	interval time.Duration
	log      logrus.FieldLogger

	// OnTick, when set, is called after every tick that played a release.
	OnTick func(releaseID int)

	// cursor is the round-robin position. It outlives individual tickers.
	cursor atomic.Int64

	mu      sync.Mutex
	parent  context.Context
	current *run
	key     PlaybackKey
	starts  int // Number of tickers started, for tests
}

// NewPlayer creates a Player for the store and subscribes it to store events.
func NewPlayer(store *Store, interval time.Duration, log logrus.FieldLogger) *Player {
	if interval <= 0 {
		interval = DefaultPlaybackInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Player{store: store, interval: interval, log: log}
	store.Subscribe(p.observe)
	return p
}

// observe resyncs after changes. Plays come from the ticker itself and never
// change the key, so they are skipped to keep the ticker from waiting on itself.
func (p *Player) observe(ev Event) {
	if ev.Type == EventPlayed {
		return
	}
	p.Sync()
}

// Run enables the player until ctx is cancelled. It blocks.
func (p *Player) Run(ctx context.Context) {
	p.mu.Lock()
	p.parent = ctx
	p.mu.Unlock()

	p.Sync()
	<-ctx.Done()

	p.mu.Lock()
	p.stopLocked()
	p.parent = nil
	p.mu.Unlock()
	p.log.Info("playback: player stopped")
}

// Sync compares the store's governing inputs with the running ticker and
// restarts or stops it when they differ.
func (p *Player) Sync() {
	key := p.store.PlaybackKey()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parent == nil {
		return
	}
	if p.current != nil && key == p.key {
		return
	}

	p.stopLocked()
	p.key = key
	if !key.Active() {
		return
	}

	ctx, cancel := context.WithCancel(p.parent)
	r := &run{cancel: cancel, done: make(chan struct{})}
	p.current = r
	p.starts++
	p.log.WithField("positions", key.Positions).Info("playback: ticker started")
	go p.loop(ctx, r.done)
}

// stopLocked cancels the running ticker and waits for it to exit. Caller must hold mu.
func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	p.current.cancel()
	<-p.current.done
	p.current = nil
	p.log.Debug("playback: ticker stopped")
}

func (p *Player) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next, id, ok := p.store.PlayNext(int(p.cursor.Load()))
			if !ok {
				continue
			}
			p.cursor.Store(int64(next))
			if p.OnTick != nil {
				p.OnTick(id)
			}
		}
	}
}

// Running reports whether a ticker is live.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}
