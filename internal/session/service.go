// Package session implements workout playback tracking: the session state
// machine (start, heartbeat, progress, finish, resume check), the two
// completion policies, the per user and workout aggregate counters, the
// action log, and the history views built on them.
//
// Every mutation is a single-row conditional write against the row store;
// nothing is locked or cached between requests.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/observability"
	"github.com/iliyamo/pulse-workout-sessions/internal/queue"
	"github.com/iliyamo/pulse-workout-sessions/internal/repository"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

// StaleAfter is how long a session may go without a write before it is
// treated as abandoned.
const StaleAfter = 5 * time.Minute

// Catalog looks up workout catalog entries.
type Catalog interface {
	GetWorkoutInfo(ctx context.Context, workoutID string) (model.Workout, error)
	All(ctx context.Context) (map[string]model.Workout, error)
}

// Notifier is a one-way event sink.  It must not block.
type Notifier interface {
	Notify(ev queue.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(queue.Event) {}

// Service runs the session flows.
type Service struct {
	sessions   *repository.SessionRepo
	actions    *repository.ActionRepo
	aggregates *repository.UserWorkoutRepo
	users      *repository.UserRepo
	tokens     *repository.TokenRepo
	catalog    Catalog
	notifier   Notifier

	current CompletionPolicy
	legacy  CompletionPolicy

	now   func() time.Time
	newID func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDGenerator replaces the session and action id generator.
func WithIDGenerator(gen func() string) Option { return func(s *Service) { s.newID = gen } }

// WithPolicies replaces the completion policies of the session and legacy
// flows.
func WithPolicies(current, legacy CompletionPolicy) Option {
	return func(s *Service) { s.current, s.legacy = current, legacy }
}

// NewService builds a Service over store.  notifier may be nil.
func NewService(store rowstore.Store, catalog Catalog, notifier Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	s := &Service{
		sessions:   repository.NewSessionRepo(store),
		actions:    repository.NewActionRepo(store),
		aggregates: repository.NewUserWorkoutRepo(store),
		users:      repository.NewUserRepo(store),
		tokens:     repository.NewTokenRepo(store),
		catalog:    catalog,
		notifier:   notifier,
		current:    DefaultHeartbeatPolicy,
		legacy:     DefaultElapsedPolicy,
		now:        time.Now,
		newID:      newID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newID returns a 32 character hex id.
func newID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }

// appendAction writes an action log entry stamped with now and a fresh id.
func (s *Service) appendAction(ctx context.Context, op string, a model.Action, now time.Time) (model.Action, error) {
	a.ActionID = s.newID()
	a.CreatedAt = now.UnixMilli()
	if err := s.actions.Append(ctx, a); err != nil {
		return model.Action{}, wrap(ErrWriteFailed, op, model.ActionsTable.Name, err)
	}
	return a, nil
}

// workout loads the catalog entry of workoutID.
func (s *Service) workout(ctx context.Context, op, workoutID string) (model.Workout, error) {
	w, err := s.catalog.GetWorkoutInfo(ctx, workoutID)
	if err != nil {
		return model.Workout{}, readErr(op, model.WorkoutsTable.Name, err)
	}
	return w, nil
}

// lostRace logs a rejected optimistic write that the flow tolerates.
func lostRace(op, table, userID, id string, err error) bool {
	if !errors.Is(err, repository.ErrConflict) {
		return false
	}
	log.Printf("session: %s lost optimistic race on %s user=%s id=%s", op, table, userID, id)
	observability.RecordConflict(table)
	return true
}

func isStale(updatedAt int64, now time.Time) bool {
	return now.UnixMilli()-updatedAt > StaleAfter.Milliseconds()
}
