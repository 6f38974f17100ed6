/*
Package notify
File: notify.go
Description:
    Carries store change events to the outside world. The Fanout is a
    store observer that queues events and hands them, on its own goroutine,
    to every registered Publisher (the websocket hub, Redis).
*/

package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/boutique-music/internal/game"
)

// SenderSystem marks messages that originate from the server itself.
const SenderSystem = "system"

// Envelope is the JSON frame every subscriber receives.
type Envelope struct {
	ID      string     `json:"id"`
	Type    string     `json:"type"` // game.EventType, e.g. "invested"
	Payload game.Event `json:"payload"`
	Sender  string     `json:"sender"`
	SentAt  time.Time  `json:"sent_at"`
}

// NewEnvelope wraps a store event.
func NewEnvelope(ev game.Event) Envelope {
	return Envelope{
		ID:      uuid.NewString(),
		Type:    string(ev.Type),
		Payload: ev,
		Sender:  SenderSystem,
		SentAt:  time.Now().UTC(),
	}
}

// Marshal encodes the envelope as a JSON frame.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers an envelope to one destination.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Fanout queues store events and publishes them off the caller's goroutine.
type Fanout struct {
	pubs    []Publisher
	queue   chan Envelope
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewFanout creates a Fanout with a queue of the given depth.
func NewFanout(log logrus.FieldLogger, depth int, pubs ...Publisher) *Fanout {
	if depth <= 0 {
		depth = 256
	}
	return &Fanout{
		pubs:    pubs,
		queue:   make(chan Envelope, depth),
		timeout: 5 * time.Second,
		log:     log,
	}
}

// Observe is a game.Observer. It never blocks: when the queue is full the
// event is dropped and logged.
func (f *Fanout) Observe(ev game.Event) {
	select {
	case f.queue <- NewEnvelope(ev):
	default:
		f.log.WithField("event", ev.Type).Warn("notify: queue full, event dropped")
	}
}

// Run drains the queue until ctx is cancelled.
func (f *Fanout) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-f.queue:
			f.publish(ctx, env)
		}
	}
}

func (f *Fanout) publish(ctx context.Context, env Envelope) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	for _, p := range f.pubs {
		if err := p.Publish(ctx, env); err != nil {
			f.log.WithError(err).WithField("event", env.Type).Warn("notify: publish failed")
		}
	}
}
