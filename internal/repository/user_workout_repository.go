package repository

import (
	"context"
	"time"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

// userWorkoutScanLimit bounds the per-user aggregate scan.  It is larger
// than the catalog so every aggregate of a user is returned.
const userWorkoutScanLimit = 200

// UserWorkoutRepo stores per (user, workout) aggregates.
type UserWorkoutRepo struct{ Store rowstore.Store }

func NewUserWorkoutRepo(s rowstore.Store) *UserWorkoutRepo { return &UserWorkoutRepo{Store: s} }

// Get loads an aggregate.
func (r *UserWorkoutRepo) Get(ctx context.Context, userID, workoutID string) (model.UserWorkout, error) {
	row, err := r.Store.GetRow(ctx, model.UserWorkoutsTable, rowstore.Key{userID, workoutID})
	if err != nil {
		return model.UserWorkout{}, err
	}
	return model.UserWorkoutFromRow(row), nil
}

// Create inserts the first aggregate of a pair with version now, failing
// with ErrConflict when another request created it first.
func (r *UserWorkoutRepo) Create(ctx context.Context, userID, workoutID string, patch model.UserWorkoutPatch, now time.Time) error {
	cols := append(patch.Columns(), rowstore.Column{Name: rowstore.VersionColumn, Value: now.UnixMilli()})
	return r.Store.PutRow(ctx, model.UserWorkoutsTable, rowstore.Key{userID, workoutID}, cols, rowstore.ExpectNotExist)
}

// Update applies patch only when the stored version equals expected.  An
// absent row has version 0 and is created.
func (r *UserWorkoutRepo) Update(ctx context.Context, userID, workoutID string, expected int64, patch model.UserWorkoutPatch, now time.Time) (int64, error) {
	return rowstore.ConditionalUpdate(ctx, r.Store, model.UserWorkoutsTable, rowstore.Key{userID, workoutID}, expected, patch.Columns(), now)
}

// ListByUser returns a user's aggregates, newest workout id first.
func (r *UserWorkoutRepo) ListByUser(ctx context.Context, userID string) ([]model.UserWorkout, error) {
	rows, err := r.Store.GetRange(ctx, model.UserWorkoutsTable, rowstore.Key{userID}, rowstore.Backward, userWorkoutScanLimit)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserWorkout, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.UserWorkoutFromRow(row))
	}
	return out, nil
}
