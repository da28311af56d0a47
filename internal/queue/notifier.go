package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/pulse-workout-sessions/internal/observability"
)

// Sender delivers one event.
type Sender interface {
	Publish(ctx context.Context, ev Event) error
}

// Notifier is a one-way, fire-and-forget event sink.  Notify never blocks
// and never fails: events go into a bounded buffer drained by a single
// worker, and an event that does not fit is dropped and logged.
type Notifier struct {
	sender  Sender
	events  chan Event
	timeout time.Duration
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewNotifier starts the delivery worker.  buffer below 1 is raised to 1.
func NewNotifier(sender Sender, buffer int) *Notifier {
	if buffer < 1 {
		buffer = 1
	}
	n := &Notifier{
		sender:  sender,
		events:  make(chan Event, buffer),
		timeout: 5 * time.Second,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify queues ev for delivery.
func (n *Notifier) Notify(ev Event) {
	ev = ev.Stamp(n.now())
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		log.Printf("notifier: closed, dropping %s for user %s", ev.Type, ev.UserID)
		observability.RecordNotificationDropped()
		return
	}
	select {
	case n.events <- ev:
	default:
		log.Printf("notifier: buffer full, dropping %s for user %s", ev.Type, ev.UserID)
		observability.RecordNotificationDropped()
	}
}

// Close stops accepting events and waits until the buffered ones have been
// handed to the sender or ctx ends.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.events)
	}
	n.mu.Unlock()
	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for ev := range n.events {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		if err := n.sender.Publish(ctx, ev); err != nil {
			log.Printf("notifier: %s for user %s not delivered: %v", ev.Type, ev.UserID, err)
			observability.RecordNotificationFailed()
		}
		cancel()
	}
}

// LogSender writes events to the process log.  It stands in for the broker
// when none is configured.
type LogSender struct{}

func (LogSender) Publish(_ context.Context, ev Event) error {
	log.Printf("notifier: %s user=%s workout=%s session=%s", ev.Type, ev.UserID, ev.WorkoutID, ev.SessionID)
	return nil
}
