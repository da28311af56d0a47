package repository

import (
	"context"
	"encoding/json"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

// TokenRepo reads workout unlock tokens.
type TokenRepo struct{ Store rowstore.Store }

func NewTokenRepo(s rowstore.Store) *TokenRepo { return &TokenRepo{Store: s} }

// Get loads an unlock token.
func (r *TokenRepo) Get(ctx context.Context, token string) (model.WorkoutToken, error) {
	row, err := r.Store.GetRow(ctx, model.WorkoutTokensTable, rowstore.Key{token})
	if err != nil {
		return model.WorkoutToken{}, err
	}
	return model.WorkoutTokenFromRow(row)
}

// Put stores an unlock token.  Tokens are issued by the sharing flow; this
// is used for seeding.
func (r *TokenRepo) Put(ctx context.Context, t model.WorkoutToken) error {
	wids, err := json.Marshal(t.WorkoutIDs)
	if err != nil {
		return err
	}
	cols := []rowstore.Column{
		{Name: "wids", Value: string(wids)},
		{Name: "expired_at", Value: t.ExpiredAt},
	}
	return r.Store.PutRow(ctx, model.WorkoutTokensTable, rowstore.Key{t.Token}, cols, rowstore.Ignore)
}
