package repository

import (
	"context"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

// WorkoutRepo reads the workout catalog.
type WorkoutRepo struct{ Store rowstore.Store }

func NewWorkoutRepo(s rowstore.Store) *WorkoutRepo { return &WorkoutRepo{Store: s} }

// Get loads a single catalog entry.
func (r *WorkoutRepo) Get(ctx context.Context, workoutID string) (model.Workout, error) {
	row, err := r.Store.GetRow(ctx, model.WorkoutsTable, rowstore.Key{workoutID})
	if err != nil {
		return model.Workout{}, err
	}
	return model.WorkoutFromRow(row), nil
}

// List scans the whole catalog.
func (r *WorkoutRepo) List(ctx context.Context) ([]model.Workout, error) {
	rows, err := r.Store.GetRange(ctx, model.WorkoutsTable, nil, rowstore.Forward, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.Workout, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.WorkoutFromRow(row))
	}
	return out, nil
}

// Put writes a catalog entry, replacing any previous version.  Catalog
// management lives elsewhere; this is used for seeding.
func (r *WorkoutRepo) Put(ctx context.Context, w model.Workout) error {
	return r.Store.PutRow(ctx, model.WorkoutsTable, rowstore.Key{w.ID}, w.Columns(), rowstore.Ignore)
}
