package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pulse-workout-sessions/internal/catalog"
	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/queue"
	"github.com/iliyamo/pulse-workout-sessions/internal/repository"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *clock) ms() int64               { return c.t.UnixMilli() }

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Notify(ev queue.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc      *Service
	clock    *clock
	notes    *recorder
	sessions *repository.SessionRepo
	aggs     *repository.UserWorkoutRepo
	actions  *repository.ActionRepo
	users    *repository.UserRepo
}

func newFixture(t *testing.T, workouts ...model.Workout) *fixture {
	t.Helper()
	return newFixtureOver(t, rowstore.NewMemoryStore(), workouts...)
}

// newFixtureOver builds a service over store.  The catalog reads the same
// store.
func newFixtureOver(t *testing.T, store rowstore.Store, workouts ...model.Workout) *fixture {
	t.Helper()
	ctx := context.Background()
	wrepo := repository.NewWorkoutRepo(store)
	for _, w := range workouts {
		require.NoError(t, wrepo.Put(ctx, w))
	}
	clk := &clock{t: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)}
	notes := &recorder{}
	n := 0
	svc := NewService(store, catalog.New(wrepo, nil, 0), notes,
		WithClock(clk.now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id%03d", n) }),
	)
	f := &fixture{
		svc:      svc,
		clock:    clk,
		notes:    notes,
		sessions: repository.NewSessionRepo(store),
		aggs:     repository.NewUserWorkoutRepo(store),
		actions:  repository.NewActionRepo(store),
		users:    repository.NewUserRepo(store),
	}
	return f
}

var tenMinutes = model.Workout{ID: "w1", Title: "Morning Run", Duration: 600, EstCalories: 120, WorkoutType: "treadmill"}

func (f *fixture) start(t *testing.T) StartResult {
	t.Helper()
	res, err := f.svc.Start(context.Background(), "u1", "w1", model.NewSession, "")
	require.NoError(t, err)
	return res
}

func (f *fixture) setTouches(t *testing.T, sessionID string, n int64) {
	t.Helper()
	ctx := context.Background()
	sess, err := f.sessions.Get(ctx, "u1", sessionID)
	require.NoError(t, err)
	_, err = f.sessions.Update(ctx, "u1", sessionID, sess.UpdatedAt, model.SessionPatch{TouchCount: &n}, f.clock.now())
	require.NoError(t, err)
}

func TestStartNewSessionCreatesRowAndPointer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)

	res := f.start(t)
	require.Equal(t, "w1", res.WorkoutID)
	require.Equal(t, f.clock.ms(), res.StartedAt)
	require.NotEmpty(t, res.ActionID)
	require.NotEqual(t, res.ActionID, res.SessionID)

	sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
	require.NoError(t, err)
	require.Equal(t, res.StartedAt, sess.StartedAt)
	require.Equal(t, res.StartedAt, sess.UpdatedAt)
	require.Zero(t, sess.TouchCount)

	user, err := f.users.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, res.SessionID, user.LatestSessionID)

	action, err := f.actions.Get(ctx, "u1", "w1", res.ActionID)
	require.NoError(t, err)
	require.Equal(t, model.ActionStart, action.Type)

	_, err = f.aggs.Get(ctx, "u1", "w1")
	require.NoError(t, err)
	require.Equal(t, []queue.EventType{queue.StartSession}, f.notes.types())
}

func TestStartValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)

	_, err := f.svc.Start(ctx, "u1", "", model.NewSession, "")
	require.ErrorIs(t, err, ErrMissingParameter)
	require.Equal(t, 4031, Code(err))

	_, err = f.svc.Start(ctx, "u1", "w1", model.StartType("RESTART"), "")
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = f.svc.Start(ctx, "u1", "w1", model.ResumeSession, "")
	require.ErrorIs(t, err, ErrMissingParameter)

	_, err = f.svc.Start(ctx, "u1", "w1", model.ResumeSession, "nope")
	require.ErrorIs(t, err, ErrReadEmpty)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTouchIncrementsWhileFresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)
	res := f.start(t)

	for i := 1; i <= 5; i++ {
		f.clock.advance(10 * time.Second)
		out, err := f.svc.Touch(ctx, "u1", res.SessionID, float64(i*10))
		require.NoError(t, err)
		require.True(t, out.Continue)

		sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
		require.NoError(t, err)
		require.Equal(t, int64(i), sess.TouchCount)
		require.Equal(t, float64(i*10), sess.Playhead)
		require.Equal(t, f.clock.ms(), sess.UpdatedAt)
	}
}

func TestTouchRefusesStaleSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)
	res := f.start(t)

	f.clock.advance(StaleAfter)
	out, err := f.svc.Touch(ctx, "u1", res.SessionID, 1)
	require.NoError(t, err)
	require.True(t, out.Continue)

	f.clock.advance(StaleAfter + time.Millisecond)
	out, err = f.svc.Touch(ctx, "u1", res.SessionID, 2)
	require.NoError(t, err)
	require.False(t, out.Continue)

	sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
	require.NoError(t, err)
	require.Equal(t, int64(1), sess.TouchCount)
	require.Equal(t, float64(1), sess.Playhead)
}

func TestTouchMissingOrFinishedSessionStops(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)

	out, err := f.svc.Touch(ctx, "u1", "ghost", 0)
	require.NoError(t, err)
	require.False(t, out.Continue)

	res := f.start(t)
	_, err = f.svc.Finish(ctx, "u1", "w1", res.SessionID, res.ActionID)
	require.NoError(t, err)
	out, err = f.svc.Touch(ctx, "u1", res.SessionID, 0)
	require.NoError(t, err)
	require.False(t, out.Continue)

	_, err = f.svc.Touch(ctx, "u1", "", 0)
	require.ErrorIs(t, err, ErrMissingParameter)
}

func TestUpdatePlayheadKeepsTouchCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)
	res := f.start(t)
	f.clock.advance(10 * time.Second)
	_, err := f.svc.Touch(ctx, "u1", res.SessionID, 10)
	require.NoError(t, err)

	// Seeking is accepted even on a stale session.
	f.clock.advance(time.Hour)
	require.NoError(t, f.svc.UpdatePlayhead(ctx, "u1", res.SessionID, 300))

	sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
	require.NoError(t, err)
	require.Equal(t, int64(1), sess.TouchCount)
	require.Equal(t, float64(300), sess.Playhead)

	require.ErrorIs(t, f.svc.UpdatePlayhead(ctx, "u1", "ghost", 1), ErrReadEmpty)
}

func TestFinishCompletionNeedsEngagement(t *testing.T) {
	for _, tc := range []struct {
		touches int64
		want    bool
	}{
		{42, true},
		{40, false},
	} {
		t.Run(fmt.Sprintf("touches=%d", tc.touches), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tenMinutes)
			res := f.start(t)
			f.setTouches(t, res.SessionID, tc.touches)

			f.clock.advance(590 * time.Second)
			out, err := f.svc.Finish(ctx, "u1", "w1", res.SessionID, res.ActionID)
			require.NoError(t, err)
			require.Equal(t, tc.want, out.Completed)
			require.Equal(t, f.clock.ms(), out.FinishedAt)
			require.Equal(t, int64(590), out.EffectivePlayTime)

			sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
			require.NoError(t, err)
			require.Equal(t, tc.want, sess.Completed)
			require.Equal(t, out.FinishedAt, sess.FinishedAt)

			agg, err := f.aggs.Get(ctx, "u1", "w1")
			require.NoError(t, err)
			if tc.want {
				require.Equal(t, int64(1), agg.FinishedCount)
			} else {
				require.Zero(t, agg.FinishedCount)
			}

			actions, err := f.actions.ListByWorkout(ctx, "u1", "w1")
			require.NoError(t, err)
			require.Len(t, actions, 2)
			var finish model.Action
			for _, a := range actions {
				if a.Type == model.ActionFinish {
					finish = a
				}
			}
			require.Equal(t, res.ActionID, finish.StartActionID)
			require.Equal(t, tc.touches*SecondsPerTouch, finish.Duration)
			require.Equal(t, tc.want, finish.Completed)
		})
	}
}

func TestFinishIncrementsAggregateOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)

	three, earlier := int64(3), int64(1_000)
	_, err := f.aggs.Update(ctx, "u1", "w1", 0, model.UserWorkoutPatch{FinishedCount: &three, FinishedAt: &earlier, CreatedAt: &earlier}, f.clock.now())
	require.NoError(t, err)

	res := f.start(t)
	f.setTouches(t, res.SessionID, 60)
	f.clock.advance(600 * time.Second)
	out, err := f.svc.Finish(ctx, "u1", "w1", res.SessionID, res.ActionID)
	require.NoError(t, err)
	require.True(t, out.Completed)

	agg, err := f.aggs.Get(ctx, "u1", "w1")
	require.NoError(t, err)
	require.Equal(t, int64(4), agg.FinishedCount)
	require.Equal(t, f.clock.ms(), agg.FinishedAt)
	require.Equal(t, earlier, agg.CreatedAt)

	_, err = f.svc.Finish(ctx, "u1", "w1", res.SessionID, res.ActionID)
	require.ErrorIs(t, err, ErrSessionClosed)
	require.Equal(t, 4034, Code(err))

	agg, err = f.aggs.Get(ctx, "u1", "w1")
	require.NoError(t, err)
	require.Equal(t, int64(4), agg.FinishedCount)

	require.Equal(t, []queue.EventType{queue.StartSession, queue.WorkoutComplete, queue.FinishSession}, f.notes.types())
}

func TestFinishWithoutStartActionWritesNoAction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)
	res := f.start(t)

	_, err := f.svc.Finish(ctx, "u1", "w1", res.SessionID, "")
	require.NoError(t, err)
	actions, err := f.actions.ListByWorkout(ctx, "u1", "w1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
}

func TestFinishUnknownWorkoutOrSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)

	_, err := f.svc.Finish(ctx, "u1", "w404", "s", "")
	require.ErrorIs(t, err, ErrReadEmpty)
	_, err = f.svc.Finish(ctx, "u1", "w1", "s404", "")
	require.ErrorIs(t, err, ErrReadEmpty)
	_, err = f.svc.Finish(ctx, "u1", "w1", "", "")
	require.ErrorIs(t, err, ErrMissingParameter)
}

func TestFinishRejectsSessionOfAnotherWorkout(t *testing.T) {
	ctx := context.Background()
	halfMinute := model.Workout{ID: "w2", Title: "Cooldown", Duration: 30, WorkoutType: "stretching"}
	f := newFixture(t, tenMinutes, halfMinute)
	res := f.start(t)
	f.setTouches(t, res.SessionID, 3)
	f.clock.advance(30 * time.Second)

	_, err := f.svc.Finish(ctx, "u1", "w2", res.SessionID, res.ActionID)
	require.ErrorIs(t, err, ErrReadEmpty)

	sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
	require.NoError(t, err)
	require.False(t, sess.Finished())
	_, err = f.aggs.Get(ctx, "u1", "w2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStartEventsCarrySessionID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)
	res := f.start(t)

	_, err := f.svc.Start(ctx, "u1", "w1", model.ResumeSession, res.SessionID)
	require.NoError(t, err)

	require.Len(t, f.notes.events, 2)
	require.Equal(t, res.SessionID, f.notes.events[0].SessionID)
	require.False(t, f.notes.events[0].ResumeSession)
	require.Equal(t, res.SessionID, f.notes.events[1].SessionID)
	require.True(t, f.notes.events[1].ResumeSession)
}

// racingStore lets a test slip a competing write in front of the next
// conditional update of one table.
type racingStore struct {
	*rowstore.MemoryStore
	table string
	race  func()
}

func (s *racingStore) UpdateRow(ctx context.Context, t rowstore.Table, key rowstore.Key, cols []rowstore.Column, cond rowstore.Condition) error {
	if t.Name == s.table && s.race != nil && cond.Version != nil {
		race := s.race
		s.race = nil
		race()
	}
	return s.MemoryStore.UpdateRow(ctx, t, key, cols, cond)
}

func TestFinishLosingSessionRaceWritesNothingElse(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: rowstore.NewMemoryStore(), table: model.SessionsTable.Name}
	f := newFixtureOver(t, store, tenMinutes)
	res := f.start(t)
	f.setTouches(t, res.SessionID, 60)
	f.clock.advance(600 * time.Second)

	store.race = func() {
		sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
		require.NoError(t, err)
		_, err = f.sessions.Update(ctx, "u1", res.SessionID, sess.UpdatedAt, model.SessionPatch{}, f.clock.now().Add(time.Millisecond))
		require.NoError(t, err)
	}
	_, err := f.svc.Finish(ctx, "u1", "w1", res.SessionID, res.ActionID)
	require.ErrorIs(t, err, ErrUpdateFailed)
	require.ErrorIs(t, err, repository.ErrConflict)

	agg, err := f.aggs.Get(ctx, "u1", "w1")
	require.NoError(t, err)
	require.Zero(t, agg.FinishedCount)
	actions, err := f.actions.ListByWorkout(ctx, "u1", "w1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
}

func TestFinishToleratesLostAggregateRace(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: rowstore.NewMemoryStore(), table: model.UserWorkoutsTable.Name}
	f := newFixtureOver(t, store, tenMinutes)
	res := f.start(t)
	f.setTouches(t, res.SessionID, 60)
	f.clock.advance(600 * time.Second)

	store.race = func() {
		viewed := f.clock.ms()
		agg, err := f.aggs.Get(ctx, "u1", "w1")
		require.NoError(t, err)
		_, err = f.aggs.Update(ctx, "u1", "w1", agg.UpdatedAt, model.UserWorkoutPatch{ViewedAt: &viewed}, f.clock.now().Add(time.Millisecond))
		require.NoError(t, err)
	}
	out, err := f.svc.Finish(ctx, "u1", "w1", res.SessionID, res.ActionID)
	require.NoError(t, err)
	require.True(t, out.Completed)

	agg, err := f.aggs.Get(ctx, "u1", "w1")
	require.NoError(t, err)
	require.Zero(t, agg.FinishedCount)
	require.NotContains(t, f.notes.types(), queue.WorkoutComplete)
}

func TestTouchLosingRaceStillContinues(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: rowstore.NewMemoryStore(), table: model.SessionsTable.Name}
	f := newFixtureOver(t, store, tenMinutes)
	res := f.start(t)
	f.setTouches(t, res.SessionID, 4)

	store.race = func() {
		sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
		require.NoError(t, err)
		n := sess.TouchCount + 1
		_, err = f.sessions.Update(ctx, "u1", res.SessionID, sess.UpdatedAt, model.SessionPatch{TouchCount: &n}, f.clock.now().Add(time.Millisecond))
		require.NoError(t, err)
	}
	out, err := f.svc.Touch(ctx, "u1", res.SessionID, 50)
	require.NoError(t, err)
	require.True(t, out.Continue)

	sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
	require.NoError(t, err)
	require.Equal(t, int64(5), sess.TouchCount)
}

func TestResumeReusesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)
	res := f.start(t)
	f.clock.advance(10 * time.Second)
	_, err := f.svc.Touch(ctx, "u1", res.SessionID, 10)
	require.NoError(t, err)

	before, err := f.sessions.ListByUser(ctx, "u1")
	require.NoError(t, err)
	userBefore, err := f.users.Get(ctx, "u1")
	require.NoError(t, err)

	f.clock.advance(time.Minute)
	resumed, err := f.svc.Start(ctx, "u1", "w1", model.ResumeSession, res.SessionID)
	require.NoError(t, err)
	require.Equal(t, res.SessionID, resumed.SessionID)
	require.Equal(t, res.StartedAt, resumed.StartedAt)
	require.NotEqual(t, res.ActionID, resumed.ActionID)

	after, err := f.sessions.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, before, after)
	userAfter, err := f.users.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, userBefore, userAfter)

	f.clock.advance(10 * time.Second)
	out, err := f.svc.Touch(ctx, "u1", res.SessionID, 20)
	require.NoError(t, err)
	require.True(t, out.Continue)
	sess, err := f.sessions.Get(ctx, "u1", res.SessionID)
	require.NoError(t, err)
	require.Equal(t, int64(2), sess.TouchCount)
}

func TestResumeFinishedSessionIsClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)
	res := f.start(t)
	_, err := f.svc.Finish(ctx, "u1", "w1", res.SessionID, "")
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, "u1", "w1", model.ResumeSession, res.SessionID)
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestCheckUnfinished(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenMinutes)

	got, err := f.svc.CheckUnfinished(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, got)

	res := f.start(t)
	f.clock.advance(10 * time.Second)
	_, err = f.svc.Touch(ctx, "u1", res.SessionID, 42.5)
	require.NoError(t, err)

	f.clock.advance(StaleAfter - time.Millisecond)
	got, err = f.svc.CheckUnfinished(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, &Unfinished{WorkoutID: "w1", SessionID: res.SessionID, StartTime: 42.5}, got)

	f.clock.advance(time.Millisecond)
	got, err = f.svc.CheckUnfinished(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, got)

	second := f.start(t)
	_, err = f.svc.Finish(ctx, "u1", "w1", second.SessionID, "")
	require.NoError(t, err)
	got, err = f.svc.CheckUnfinished(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, got)
}
