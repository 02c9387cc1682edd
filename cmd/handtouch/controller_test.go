package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/handtouch/internal/emitter"
	"github.com/ayusman/handtouch/internal/events"
	"github.com/ayusman/handtouch/internal/server"
	"github.com/ayusman/handtouch/internal/store"
)

// The emitter is handed to the server as its broker status.
var _ server.BrokerStatus = (*emitter.MQTTEmitter)(nil)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []emitter.Message
	err  error
}

func (p *recordingPublisher) Publish(msg emitter.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func TestController_FansOutTouches(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	sess, err := st.Journal().StartSession("0")
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newController(st.Journal(), sess.ID)
	c.now = func() time.Time { return at }

	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	c.addNotifier(failing)
	c.addNotifier(ok)

	var trayTouches []time.Time
	c.onTouch = func(t time.Time) { trayTouches = append(trayTouches, t) }

	c.handle(events.TouchDetected)

	if ok.count() != 1 {
		t.Fatalf("expected 1 published message, got %d", ok.count())
	}
	msg := ok.msgs[0]
	if msg.Event != "TOUCH_DETECTED" || msg.SessionID != sess.ID || !msg.OccurredAt.Equal(at) {
		t.Errorf("unexpected message %+v", msg)
	}
	if failing.count() != 1 {
		t.Error("a failing notifier should still be called")
	}
	if len(trayTouches) != 1 {
		t.Errorf("expected tray callback once, got %d", len(trayTouches))
	}

	n, err := st.Journal().CountTouches(sess.ID)
	if err != nil {
		t.Fatalf("CountTouches() error = %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 journaled touch, got %d", n)
	}
}

func TestController_PausedStillJournals(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	sess, err := st.Journal().StartSession("0")
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	c := newController(st.Journal(), sess.ID)
	p := &recordingPublisher{}
	c.addNotifier(p)

	c.setForwarding(false)
	c.handle(events.TouchDetected)

	if p.count() != 0 {
		t.Errorf("expected no messages while paused, got %d", p.count())
	}
	if n, _ := st.Journal().CountTouches(sess.ID); n != 1 {
		t.Errorf("expected 1 journaled touch, got %d", n)
	}

	c.setForwarding(true)
	c.handle(events.TouchDetected)
	if p.count() != 1 {
		t.Errorf("expected 1 message after resuming, got %d", p.count())
	}
}

func TestController_RunDrainsQueueUntilCancelled(t *testing.T) {
	q := events.NewQueue()
	c := newController(nil, "")
	p := &recordingPublisher{}
	c.addNotifier(p)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.run(ctx, q)
	}()

	q.Push(events.TouchDetected)
	q.Push(events.TouchDetected)

	deadline := time.Now().Add(2 * time.Second)
	for p.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 messages, got %d", p.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
	if c.delivered.Load() != 2 {
		t.Errorf("expected 2 delivered, got %d", c.delivered.Load())
	}
}

func TestDashboardURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000"},
	}
	for _, tt := range tests {
		if got := dashboardURL(tt.addr); got != tt.want {
			t.Errorf("dashboardURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
