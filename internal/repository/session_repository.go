package repository

import (
	"context"
	"time"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

// SessionRepo stores workout sessions.
type SessionRepo struct{ Store rowstore.Store }

func NewSessionRepo(s rowstore.Store) *SessionRepo { return &SessionRepo{Store: s} }

// Get loads a session.
func (r *SessionRepo) Get(ctx context.Context, userID, sessionID string) (model.WorkoutSession, error) {
	row, err := r.Store.GetRow(ctx, model.SessionsTable, rowstore.Key{userID, sessionID})
	if err != nil {
		return model.WorkoutSession{}, err
	}
	return model.SessionFromRow(row), nil
}

// Create inserts a fresh session row and fails with ErrConflict when the id
// is already taken.  The row's first version is s.UpdatedAt.
func (r *SessionRepo) Create(ctx context.Context, s model.WorkoutSession) error {
	cols := []rowstore.Column{
		{Name: "wid", Value: s.WorkoutID},
		{Name: "started_at", Value: s.StartedAt},
		{Name: rowstore.VersionColumn, Value: s.UpdatedAt},
	}
	return r.Store.PutRow(ctx, model.SessionsTable, rowstore.Key{s.UserID, s.SessionID}, cols, rowstore.ExpectNotExist)
}

// Update applies patch only when the stored version equals expected and
// returns the new version.
func (r *SessionRepo) Update(ctx context.Context, userID, sessionID string, expected int64, patch model.SessionPatch, now time.Time) (int64, error) {
	return rowstore.ConditionalUpdate(ctx, r.Store, model.SessionsTable, rowstore.Key{userID, sessionID}, expected, patch.Columns(), now)
}

// Upsert writes patch without a version check, creating the row when it is
// absent.  The version column is still advanced to now.
func (r *SessionRepo) Upsert(ctx context.Context, userID, sessionID string, patch model.SessionPatch, now time.Time) error {
	cols := append(patch.Columns(), rowstore.Column{Name: rowstore.VersionColumn, Value: now.UnixMilli()})
	return r.Store.UpdateRow(ctx, model.SessionsTable, rowstore.Key{userID, sessionID}, cols, rowstore.Condition{Existence: rowstore.Ignore})
}

// ListByUser returns every session of a user in key order.
func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]model.WorkoutSession, error) {
	rows, err := r.Store.GetRange(ctx, model.SessionsTable, rowstore.Key{userID}, rowstore.Forward, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.WorkoutSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.SessionFromRow(row))
	}
	return out, nil
}
