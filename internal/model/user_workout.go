package model

import "github.com/iliyamo/pulse-workout-sessions/internal/rowstore"

// UserWorkout is the per (user, workout) summary row in `user_workouts`.
// FinishedCount only grows, by one per completed session, and every
// mutation goes through the optimistic protocol on UpdatedAt.
type UserWorkout struct {
	UserID            string `json:"-"`
	WorkoutID         string `json:"workoutId"`
	CreatedAt         int64  `json:"createdAt"`
	ViewedAt          int64  `json:"viewedAt,omitempty"`
	FinishedAt        int64  `json:"finishedAt,omitempty"`
	FinishedCount     int64  `json:"finishedCount"`
	MaxTokenExpiredAt int64  `json:"maxTokenExpiredAt,omitempty"`
	UpdatedAt         int64  `json:"-"`
}

// UserWorkoutFromRow converts a user_workouts row.
func UserWorkoutFromRow(r rowstore.Row) UserWorkout {
	return UserWorkout{
		UserID:            r.String("uuid"),
		WorkoutID:         r.String("wid"),
		CreatedAt:         r.Int("created_at"),
		ViewedAt:          r.Int("viewed_at"),
		FinishedAt:        r.Int("finished_at"),
		FinishedCount:     r.Int("finished_count"),
		MaxTokenExpiredAt: r.Int("max_token_expired_at"),
		UpdatedAt:         r.Int(rowstore.VersionColumn),
	}
}

// UserWorkoutPatch is a partial update of an aggregate row.
type UserWorkoutPatch struct {
	CreatedAt         *int64
	ViewedAt          *int64
	FinishedAt        *int64
	FinishedCount     *int64
	MaxTokenExpiredAt *int64
}

// Columns returns the row columns the patch assigns.
func (p UserWorkoutPatch) Columns() []rowstore.Column {
	var cols []rowstore.Column
	if p.CreatedAt != nil {
		cols = append(cols, rowstore.Column{Name: "created_at", Value: *p.CreatedAt})
	}
	if p.ViewedAt != nil {
		cols = append(cols, rowstore.Column{Name: "viewed_at", Value: *p.ViewedAt})
	}
	if p.FinishedAt != nil {
		cols = append(cols, rowstore.Column{Name: "finished_at", Value: *p.FinishedAt})
	}
	if p.FinishedCount != nil {
		cols = append(cols, rowstore.Column{Name: "finished_count", Value: *p.FinishedCount})
	}
	if p.MaxTokenExpiredAt != nil {
		cols = append(cols, rowstore.Column{Name: "max_token_expired_at", Value: *p.MaxTokenExpiredAt})
	}
	return cols
}
