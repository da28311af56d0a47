package queue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
}

func (s *recordingSender) Publish(_ context.Context, ev Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSender) received() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestEventQueueRouting(t *testing.T) {
	require.Equal(t, StaffQueue, Event{Type: WorkoutComplete}.Queue())
	require.Equal(t, ActivityQueue, Event{Type: FinishSession}.Queue())
	require.Equal(t, ActivityQueue, Event{Type: ViewWorkout}.Queue())
}

func TestNotifierDeliversAndDrainsOnClose(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, 8)
	n.Notify(Event{Type: StartSession, UserID: "u1"})
	n.Notify(Event{Type: FinishSession, UserID: "u1"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.Close(ctx))

	got := sender.received()
	require.Len(t, got, 2)
	require.Equal(t, StartSession, got[0].Type)
	require.NotEmpty(t, got[0].OccurredAt)

	// Notify after close is a logged no-op.
	n.Notify(Event{Type: ViewWorkout})
	require.Len(t, sender.received(), 2)
}

func TestNotifierDropsWhenBufferFull(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	n := NewNotifier(sender, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			n.Notify(Event{Type: ViewWorkout, UserID: "u1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full buffer")
	}
	close(sender.block)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.Close(ctx))
	require.Less(t, len(sender.received()), 10)
}

func TestNotifierSwallowsSenderErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("broker down")}
	n := NewNotifier(sender, 4)
	n.Notify(Event{Type: WorkoutComplete, UserID: "u1"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.Close(ctx))
	require.Len(t, sender.received(), 1)
}

func TestHandleMessage(t *testing.T) {
	var got Event
	handle := func(_ context.Context, ev Event) error { got = ev; return nil }

	body, err := json.Marshal(Event{Type: WorkoutComplete, UserID: "u1", Duration: 600})
	require.NoError(t, err)
	require.NoError(t, handleMessage(context.Background(), body, handle))
	require.Equal(t, int64(600), got.Duration)

	require.Error(t, handleMessage(context.Background(), []byte("{"), handle))
	require.Error(t, handleMessage(context.Background(), []byte(`{"user_id":"u1"}`), handle))
}

func TestForwarderPostsToWebhook(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := &Forwarder{StaffURL: srv.URL}
	err := f.Handle(context.Background(), Event{Type: WorkoutComplete, UserID: "u1", WorkoutTitle: "Run", Duration: 61})
	require.NoError(t, err)
	require.Equal(t, "markdown", payload["msgtype"])
	content := payload["markdown"].(map[string]any)["content"].(string)
	require.Contains(t, content, "2 min")
	require.Contains(t, content, "Run")
}

func TestForwarderWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := &Forwarder{ActivityURL: srv.URL}
	require.Error(t, f.Handle(context.Background(), Event{Type: ViewWorkout}))
}

func TestForwarderFallsBackToLogFile(t *testing.T) {
	dir := t.TempDir()
	f := &Forwarder{LogDir: dir}
	require.NoError(t, f.Handle(context.Background(), Event{Type: StartSession, UserID: "u1", ResumeSession: true}))

	data, err := os.ReadFile(filepath.Join(dir, "notifications.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "START_SESSION")
	require.Contains(t, string(data), "resumed session")
}
