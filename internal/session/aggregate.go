package session

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/queue"
	"github.com/iliyamo/pulse-workout-sessions/internal/repository"
)

// ViewResult tells the client whether the workout is playable.
type ViewResult struct {
	CanPlay       bool `json:"canPlay"`
	HasValidToken bool `json:"hasValidToken"`
}

// incrementFinished bumps the finished counter of a (user, workout)
// aggregate by one and stamps finishedAt, creating the aggregate when it is
// absent.  It makes a single attempt: a concurrent writer surfaces as
// repository.ErrConflict and the increment is not applied.
func (s *Service) incrementFinished(ctx context.Context, userID, workoutID string, now time.Time) (bool, error) {
	agg, err := s.aggregates.Get(ctx, userID, workoutID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	count := agg.FinishedCount + 1
	finishedAt := now.UnixMilli()
	patch := model.UserWorkoutPatch{FinishedCount: &count, FinishedAt: &finishedAt}
	if agg.CreatedAt == 0 {
		patch.CreatedAt = &finishedAt
	}
	if _, err := s.aggregates.Update(ctx, userID, workoutID, agg.UpdatedAt, patch, now); err != nil {
		return false, err
	}
	return true, nil
}

// ensureAggregate creates the (user, workout) aggregate when it does not
// exist yet.  An existing row is left as is.
func (s *Service) ensureAggregate(ctx context.Context, userID, workoutID string, now time.Time) error {
	created := now.UnixMilli()
	err := s.aggregates.Create(ctx, userID, workoutID, model.UserWorkoutPatch{CreatedAt: &created}, now)
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return err
}

// View records that the user opened a workout page and answers whether it
// may be played.  A valid unlock token extends the aggregate's
// maxTokenExpiredAt; an active VIP may always play.
func (s *Service) View(ctx context.Context, userID, workoutID, token, referrerUID, referrerGID string) (ViewResult, error) {
	if userID == "" || workoutID == "" {
		return ViewResult{}, missing("userId, workoutId")
	}
	now := s.now()
	nowMs := now.UnixMilli()

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return ViewResult{}, readErr("viewWorkout", model.UsersTable.Name, err)
	}

	var tokenExpiry int64
	if token != "" {
		tok, err := s.tokens.Get(ctx, token)
		switch {
		case err == nil:
			tokenExpiry = tok.Unlocks(workoutID, nowMs)
		case !errors.Is(err, repository.ErrNotFound):
			return ViewResult{}, readErr("viewWorkout", model.WorkoutTokensTable.Name, err)
		}
	}

	agg, err := s.aggregates.Get(ctx, userID, workoutID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		patch := model.UserWorkoutPatch{CreatedAt: &nowMs, ViewedAt: &nowMs}
		if tokenExpiry > 0 {
			patch.MaxTokenExpiredAt = &tokenExpiry
		}
		if err := s.aggregates.Create(ctx, userID, workoutID, patch, now); err != nil {
			return ViewResult{}, wrap(ErrWriteFailed, "viewWorkout", model.UserWorkoutsTable.Name, err)
		}
	case err != nil:
		return ViewResult{}, readErr("viewWorkout", model.UserWorkoutsTable.Name, err)
	default:
		tokenExpiry = max(tokenExpiry, agg.MaxTokenExpiredAt)
		patch := model.UserWorkoutPatch{ViewedAt: &nowMs}
		if tokenExpiry > 0 {
			patch.MaxTokenExpiredAt = &tokenExpiry
		}
		if _, err := s.aggregates.Update(ctx, userID, workoutID, agg.UpdatedAt, patch, now); err != nil {
			lostRace("viewWorkout", model.UserWorkoutsTable.Name, userID, workoutID, err)
			return ViewResult{}, wrap(ErrUpdateFailed, "viewWorkout", model.UserWorkoutsTable.Name, err)
		}
	}

	canPlay := user.IsVIP(nowMs) || tokenExpiry > nowMs

	if _, err := s.appendAction(ctx, "viewWorkout", model.Action{
		UserID:      userID,
		WorkoutID:   workoutID,
		Type:        model.ActionView,
		ReferrerUID: referrerUID,
		ReferrerGID: referrerGID,
	}, now); err != nil {
		return ViewResult{}, err
	}
	s.notifier.Notify(queue.Event{Type: queue.ViewWorkout, UserID: userID, WorkoutID: workoutID}.Stamp(now))

	return ViewResult{CanPlay: canPlay, HasValidToken: canPlay}, nil
}
