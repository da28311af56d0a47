package repository

import (
	"context"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

// ActionRepo is the append-only action log.
type ActionRepo struct{ Store rowstore.Store }

func NewActionRepo(s rowstore.Store) *ActionRepo { return &ActionRepo{Store: s} }

// Append inserts a new entry.  An existing entry with the same id is never
// overwritten: the insert fails with ErrConflict instead.
func (r *ActionRepo) Append(ctx context.Context, a model.Action) error {
	key := rowstore.Key{a.UserID, a.WorkoutID, a.ActionID}
	return r.Store.PutRow(ctx, model.ActionsTable, key, a.Columns(), rowstore.ExpectNotExist)
}

// Get loads one entry.
func (r *ActionRepo) Get(ctx context.Context, userID, workoutID, actionID string) (model.Action, error) {
	row, err := r.Store.GetRow(ctx, model.ActionsTable, rowstore.Key{userID, workoutID, actionID})
	if err != nil {
		return model.Action{}, err
	}
	return model.ActionFromRow(row), nil
}

// ListByWorkout returns the entries a user logged against one workout.
func (r *ActionRepo) ListByWorkout(ctx context.Context, userID, workoutID string) ([]model.Action, error) {
	rows, err := r.Store.GetRange(ctx, model.ActionsTable, rowstore.Key{userID, workoutID}, rowstore.Forward, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.Action, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.ActionFromRow(row))
	}
	return out, nil
}
