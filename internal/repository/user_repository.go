package repository

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

// UserRepo reads and writes the session related columns of users.
type UserRepo struct{ Store rowstore.Store }

func NewUserRepo(s rowstore.Store) *UserRepo { return &UserRepo{Store: s} }

// Get loads a user.  A user without a row yet is returned as a zero User
// with the given id and version 0, which is how the optimistic protocol
// treats an absent row.
func (r *UserRepo) Get(ctx context.Context, userID string) (model.User, error) {
	row, err := r.Store.GetRow(ctx, model.UsersTable, rowstore.Key{userID})
	if errors.Is(err, rowstore.ErrNotFound) {
		return model.User{ID: userID}, nil
	}
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromRow(row), nil
}

// SetLatestSession moves the latest session pointer, guarded by expected.
func (r *UserRepo) SetLatestSession(ctx context.Context, userID string, expected int64, sessionID string, now time.Time) (int64, error) {
	cols := []rowstore.Column{{Name: "latest_session_id", Value: sessionID}}
	return rowstore.ConditionalUpdate(ctx, r.Store, model.UsersTable, rowstore.Key{userID}, expected, cols, now)
}

// SetVipExpiry records the VIP expiry of a user, guarded by expected.
func (r *UserRepo) SetVipExpiry(ctx context.Context, userID string, expected, expiredAt int64, now time.Time) (int64, error) {
	cols := []rowstore.Column{{Name: "vip_expired_at", Value: expiredAt}}
	return rowstore.ConditionalUpdate(ctx, r.Store, model.UsersTable, rowstore.Key{userID}, expected, cols, now)
}
