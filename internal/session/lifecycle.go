package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/observability"
	"github.com/iliyamo/pulse-workout-sessions/internal/queue"
	"github.com/iliyamo/pulse-workout-sessions/internal/repository"
)

// StartResult is returned by Start.
type StartResult struct {
	WorkoutID string `json:"workoutId"`
	SessionID string `json:"sessionId"`
	StartedAt int64  `json:"startedAt"`
	ActionID  string `json:"actionId"`
}

// TouchResult tells the client whether to keep sending heartbeats.
type TouchResult struct {
	Continue bool `json:"continue"`
}

// FinishResult is returned by Finish.
type FinishResult struct {
	Completed         bool  `json:"completed"`
	FinishedAt        int64 `json:"finishedAt"`
	EffectivePlayTime int64 `json:"effectivePlayTime"`
}

// Unfinished describes a session the user can resume.
type Unfinished struct {
	WorkoutID string  `json:"workoutId"`
	SessionID string  `json:"sessionId"`
	StartTime float64 `json:"startTime"`
}

// Start opens a playback.  NEW_SESSION allocates a session row and moves the
// user's latest session pointer to it; RESUME_SESSION continues sessionID
// without writing the session row.  Both append a START action.
func (s *Service) Start(ctx context.Context, userID, workoutID string, startType model.StartType, sessionID string) (StartResult, error) {
	if userID == "" || workoutID == "" || startType == "" {
		return StartResult{}, missing("userId, workoutId, startType")
	}
	if !startType.Valid() {
		return StartResult{}, ErrUnsupportedType
	}
	if startType == model.ResumeSession && sessionID == "" {
		return StartResult{}, missing("sessionId")
	}
	now := s.now()

	var sess model.WorkoutSession
	if startType == model.ResumeSession {
		var err error
		sess, err = s.sessions.Get(ctx, userID, sessionID)
		if err != nil {
			return StartResult{}, readErr("startSession", model.SessionsTable.Name, err)
		}
		if sess.WorkoutID != workoutID {
			return StartResult{}, wrap(ErrReadEmpty, "startSession", model.SessionsTable.Name, repository.ErrNotFound)
		}
		if sess.Finished() {
			return StartResult{}, ErrSessionClosed
		}
	}

	action, err := s.appendAction(ctx, "startSession", model.Action{
		UserID:    userID,
		WorkoutID: workoutID,
		Type:      model.ActionStart,
	}, now)
	if err != nil {
		return StartResult{}, err
	}

	if startType == model.ResumeSession {
		s.notifyStart(userID, workoutID, sessionID, true, now)
		return StartResult{WorkoutID: workoutID, SessionID: sessionID, StartedAt: sess.StartedAt, ActionID: action.ActionID}, nil
	}

	sess = model.WorkoutSession{
		UserID:    userID,
		SessionID: s.newID(),
		WorkoutID: workoutID,
		StartedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return StartResult{}, wrap(ErrWriteFailed, "startSession", model.SessionsTable.Name, err)
	}
	if err := s.ensureAggregate(ctx, userID, workoutID, now); err != nil {
		return StartResult{}, wrap(ErrWriteFailed, "startSession", model.UserWorkoutsTable.Name, err)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return StartResult{}, readErr("startSession", model.UsersTable.Name, err)
	}
	if _, err := s.users.SetLatestSession(ctx, userID, user.UpdatedAt, sess.SessionID, now); err != nil {
		// A concurrent start won the pointer; this session still exists.
		if !lostRace("startSession", model.UsersTable.Name, userID, sess.SessionID, err) {
			return StartResult{}, wrap(ErrUpdateFailed, "startSession", model.UsersTable.Name, err)
		}
	}
	s.notifyStart(userID, workoutID, sess.SessionID, false, now)
	return StartResult{WorkoutID: workoutID, SessionID: sess.SessionID, StartedAt: sess.StartedAt, ActionID: action.ActionID}, nil
}

func (s *Service) notifyStart(userID, workoutID, sessionID string, resume bool, now time.Time) {
	s.notifier.Notify(queue.Event{
		Type:          queue.StartSession,
		UserID:        userID,
		WorkoutID:     workoutID,
		SessionID:     sessionID,
		ResumeSession: resume,
	}.Stamp(now))
}

// Touch records one heartbeat.  A missing, finished or stale session answers
// continue=false and is left untouched.
func (s *Service) Touch(ctx context.Context, userID, sessionID string, playhead float64) (TouchResult, error) {
	if userID == "" || sessionID == "" {
		return TouchResult{}, missing("userId, sessionId")
	}
	now := s.now()

	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		observability.RecordTouch("missing")
		return TouchResult{Continue: false}, nil
	}
	if err != nil {
		return TouchResult{}, readErr("touchSession", model.SessionsTable.Name, err)
	}
	if sess.Completed || sess.Finished() {
		observability.RecordTouch("finished")
		return TouchResult{Continue: false}, nil
	}
	if isStale(sess.UpdatedAt, now) {
		observability.RecordTouch("stale")
		return TouchResult{Continue: false}, nil
	}

	touches := sess.TouchCount + 1
	patch := model.SessionPatch{TouchCount: &touches, Playhead: &playhead}
	if _, err := s.sessions.Update(ctx, userID, sessionID, sess.UpdatedAt, patch, now); err != nil {
		if lostRace("touchSession", model.SessionsTable.Name, userID, sessionID, err) {
			observability.RecordTouch("conflict")
			return TouchResult{Continue: true}, nil
		}
		return TouchResult{}, wrap(ErrUpdateFailed, "touchSession", model.SessionsTable.Name, err)
	}
	observability.RecordTouch("accepted")
	return TouchResult{Continue: true}, nil
}

// UpdatePlayhead rewrites the playhead of a session without counting a
// heartbeat.  Staleness is not checked and a lost race is ignored.
func (s *Service) UpdatePlayhead(ctx context.Context, userID, sessionID string, playhead float64) error {
	if userID == "" || sessionID == "" {
		return missing("userId, sessionId")
	}
	now := s.now()

	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return readErr("updateProgress", model.SessionsTable.Name, err)
	}
	_, err = s.sessions.Update(ctx, userID, sessionID, sess.UpdatedAt, model.SessionPatch{Playhead: &playhead}, now)
	if err != nil && !lostRace("updateProgress", model.SessionsTable.Name, userID, sessionID, err) {
		return wrap(ErrUpdateFailed, "updateProgress", model.SessionsTable.Name, err)
	}
	return nil
}

// Finish closes a session and decides whether it counts as completed.  The
// session row is written first; only when that write wins are the aggregate
// counter and the FINISH action written.
func (s *Service) Finish(ctx context.Context, userID, workoutID, sessionID, startActionID string) (FinishResult, error) {
	if userID == "" || workoutID == "" || sessionID == "" {
		return FinishResult{}, missing("userId, workoutId, sessionId")
	}
	now := s.now()

	workout, err := s.workout(ctx, "finishSession", workoutID)
	if err != nil {
		return FinishResult{}, err
	}
	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return FinishResult{}, readErr("finishSession", model.SessionsTable.Name, err)
	}
	if sess.WorkoutID != workoutID {
		return FinishResult{}, wrap(ErrReadEmpty, "finishSession", model.SessionsTable.Name, repository.ErrNotFound)
	}
	if sess.Finished() {
		return FinishResult{}, ErrSessionClosed
	}

	elapsed := time.Duration(now.UnixMilli()-sess.StartedAt) * time.Millisecond
	completed := s.current.Completed(Evidence{
		WorkoutDuration: workout.Duration,
		Elapsed:         elapsed,
		TouchCount:      sess.TouchCount,
	})
	finishedAt := now.UnixMilli()

	patch := model.SessionPatch{Completed: &completed, FinishedAt: &finishedAt}
	if _, err := s.sessions.Update(ctx, userID, sessionID, sess.UpdatedAt, patch, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			observability.RecordConflict(model.SessionsTable.Name)
		}
		return FinishResult{}, wrap(ErrUpdateFailed, "finishSession", model.SessionsTable.Name, err)
	}

	if completed {
		applied, err := s.incrementFinished(ctx, userID, workoutID, now)
		if err != nil && !lostRace("finishSession", model.UserWorkoutsTable.Name, userID, workoutID, err) {
			return FinishResult{}, wrap(ErrUpdateFailed, "finishSession", model.UserWorkoutsTable.Name, err)
		}
		if applied {
			s.notifier.Notify(queue.Event{
				Type:         queue.WorkoutComplete,
				UserID:       userID,
				WorkoutID:    workoutID,
				SessionID:    sessionID,
				WorkoutTitle: workout.Title,
				WorkoutType:  workout.WorkoutType,
				Duration:     ceilSeconds(elapsed),
			}.Stamp(now))
		}
	}

	if startActionID != "" {
		_, err := s.appendAction(ctx, "finishSession", model.Action{
			UserID:        userID,
			WorkoutID:     workoutID,
			Type:          model.ActionFinish,
			StartActionID: startActionID,
			Completed:     completed,
			Duration:      sess.TouchCount * SecondsPerTouch,
		}, now)
		if err != nil {
			return FinishResult{}, err
		}
	}

	s.notifier.Notify(queue.Event{
		Type:      queue.FinishSession,
		UserID:    userID,
		WorkoutID: workoutID,
		SessionID: sessionID,
		Duration:  sess.TouchCount * SecondsPerTouch,
	}.Stamp(now))
	observability.RecordFinish(s.current.Name(), completed)
	log.Printf("session: finished user=%s session=%s completed=%t touches=%d", userID, sessionID, completed, sess.TouchCount)

	return FinishResult{
		Completed:         completed,
		FinishedAt:        finishedAt,
		EffectivePlayTime: ceilSeconds(elapsed),
	}, nil
}

// CheckUnfinished returns the user's latest session when it can still be
// resumed, or nil.
func (s *Service) CheckUnfinished(ctx context.Context, userID string) (*Unfinished, error) {
	if userID == "" {
		return nil, missing("userId")
	}
	now := s.now()

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, readErr("checkUnfinishedSession", model.UsersTable.Name, err)
	}
	if user.LatestSessionID == "" {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx, userID, user.LatestSessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, readErr("checkUnfinishedSession", model.SessionsTable.Name, err)
	}
	if sess.Finished() || now.UnixMilli()-sess.UpdatedAt >= StaleAfter.Milliseconds() {
		return nil, nil
	}
	return &Unfinished{WorkoutID: sess.WorkoutID, SessionID: sess.SessionID, StartTime: sess.Playhead}, nil
}
