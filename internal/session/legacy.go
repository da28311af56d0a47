package session

import (
	"context"
	"time"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/observability"
	"github.com/iliyamo/pulse-workout-sessions/internal/queue"
)

// LegacyResult is the action written by a legacy call plus the session it
// belongs to.
type LegacyResult struct {
	model.Action
	SessionID string `json:"sessionId"`
}

// StartWorkout is the action-log start used by older clients.  The session
// row is written without a version check.
func (s *Service) StartWorkout(ctx context.Context, userID, workoutID string) (LegacyResult, error) {
	if userID == "" || workoutID == "" {
		return LegacyResult{}, missing("userId, workoutId")
	}
	now := s.now()

	action, err := s.appendAction(ctx, "startWorkout", model.Action{
		UserID:    userID,
		WorkoutID: workoutID,
		Type:      model.ActionStart,
	}, now)
	if err != nil {
		return LegacyResult{}, err
	}

	sessionID := s.newID()
	startedAt := now.UnixMilli()
	patch := model.SessionPatch{WorkoutID: &workoutID, StartedAt: &startedAt}
	if err := s.sessions.Upsert(ctx, userID, sessionID, patch, now); err != nil {
		return LegacyResult{}, wrap(ErrUpdateFailed, "startWorkout", model.SessionsTable.Name, err)
	}
	return LegacyResult{Action: action, SessionID: sessionID}, nil
}

// FinishWorkout is the action-log finish used by older clients.  Elapsed time
// is measured from the START action; heartbeats are not consulted.
func (s *Service) FinishWorkout(ctx context.Context, userID, workoutID, startActionID, sessionID string) (LegacyResult, error) {
	if userID == "" || workoutID == "" || startActionID == "" || sessionID == "" {
		return LegacyResult{}, missing("userId, workoutId, startActionId, sessionId")
	}
	now := s.now()

	start, err := s.actions.Get(ctx, userID, workoutID, startActionID)
	if err != nil {
		return LegacyResult{}, readErr("finishWorkout", model.ActionsTable.Name, err)
	}
	if start.Type != model.ActionStart {
		return LegacyResult{}, ErrUnsupportedType
	}
	workout, err := s.workout(ctx, "finishWorkout", workoutID)
	if err != nil {
		return LegacyResult{}, err
	}

	elapsed := time.Duration(now.UnixMilli()-start.CreatedAt) * time.Millisecond
	completed := s.legacy.Completed(Evidence{WorkoutDuration: workout.Duration, Elapsed: elapsed})
	duration := floorSeconds(elapsed)

	if completed {
		applied, err := s.incrementFinished(ctx, userID, workoutID, now)
		if err != nil && !lostRace("finishWorkout", model.UserWorkoutsTable.Name, userID, workoutID, err) {
			return LegacyResult{}, wrap(ErrUpdateFailed, "finishWorkout", model.UserWorkoutsTable.Name, err)
		}
		if applied {
			s.notifier.Notify(queue.Event{
				Type:         queue.WorkoutComplete,
				UserID:       userID,
				WorkoutID:    workoutID,
				SessionID:    sessionID,
				WorkoutTitle: workout.Title,
				WorkoutType:  workout.WorkoutType,
				Duration:     duration,
			}.Stamp(now))
		}
	}

	action, err := s.appendAction(ctx, "finishWorkout", model.Action{
		UserID:        userID,
		WorkoutID:     workoutID,
		Type:          model.ActionFinish,
		StartActionID: startActionID,
		Duration:      duration,
		Completed:     completed,
	}, now)
	if err != nil {
		return LegacyResult{}, err
	}

	// completed is only ever written as true so an earlier completion stays.
	finishedAt := now.UnixMilli()
	patch := model.SessionPatch{FinishedAt: &finishedAt}
	if completed {
		patch.Completed = &completed
	}
	if err := s.sessions.Upsert(ctx, userID, sessionID, patch, now); err != nil {
		return LegacyResult{}, wrap(ErrUpdateFailed, "finishWorkout", model.SessionsTable.Name, err)
	}
	observability.RecordFinish(s.legacy.Name(), completed)

	return LegacyResult{Action: action, SessionID: sessionID}, nil
}
