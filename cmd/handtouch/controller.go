package main

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/ayusman/handtouch/internal/emitter"
	"github.com/ayusman/handtouch/internal/events"
	"github.com/ayusman/handtouch/internal/store"
)

// touchPublisher receives one message per delivered touch.
type touchPublisher interface {
	Publish(msg emitter.Message) error
}

// controller drains the app's event queue and fans each touch out to the
// journal and the configured notifiers.
type controller struct {
	journal   *store.JournalRepository
	sessionID string
	notifiers []touchPublisher
	onTouch   func(at time.Time)

	paused    atomic.Bool
	delivered atomic.Uint64
	now       func() time.Time
}

func newController(journal *store.JournalRepository, sessionID string) *controller {
	return &controller{
		journal:   journal,
		sessionID: sessionID,
		now:       time.Now,
	}
}

// addNotifier registers a publisher for touch messages.
func (c *controller) addNotifier(p touchPublisher) {
	c.notifiers = append(c.notifiers, p)
}

// setForwarding turns notifier delivery on or off. The journal is always written.
func (c *controller) setForwarding(enabled bool) {
	c.paused.Store(!enabled)
	if enabled {
		log.Println("Touch forwarding resumed")
	} else {
		log.Println("Touch forwarding paused")
	}
}

// run consumes events until ctx is cancelled.
func (c *controller) run(ctx context.Context, q *events.Queue) {
	for {
		ev, err := q.Next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("event queue: %v", err)
			}
			return
		}
		c.handle(ev)
	}
}

func (c *controller) handle(ev events.Event) {
	at := c.now()
	n := c.delivered.Add(1)
	log.Printf("Event: %s (#%d)", ev, n)

	if c.journal != nil && c.sessionID != "" {
		if _, err := c.journal.RecordTouch(c.sessionID, string(ev), at); err != nil {
			log.Printf("Failed to record touch: %v", err)
		}
	}

	if c.onTouch != nil {
		c.onTouch(at)
	}

	if c.paused.Load() {
		return
	}

	msg := emitter.Message{Event: string(ev), SessionID: c.sessionID, OccurredAt: at.UTC()}
	for _, p := range c.notifiers {
		if err := p.Publish(msg); err != nil {
			log.Printf("Failed to publish touch: %v", err)
		}
	}
}

// hubPublisher adapts the websocket hub to touchPublisher.
type hubPublisher struct {
	hub interface{ Publish(v any) error }
}

func (h hubPublisher) Publish(msg emitter.Message) error {
	return h.hub.Publish(msg)
}
