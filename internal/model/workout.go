package model

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
)

// Workout is a catalog entry.  Duration is the nominal length in seconds
// and drives completion decisions.
type Workout struct {
	ID          string `json:"workoutId"`
	Title       string `json:"title"`
	Duration    int64  `json:"duration"`
	EstCalories int64  `json:"estCalories"`
	WorkoutType string `json:"workoutType"`
	CoverImage  string `json:"coverImage,omitempty"`
	ReleasedAt  int64  `json:"releasedAt,omitempty"`
}

// WorkoutFromRow converts a workouts row.
func WorkoutFromRow(r rowstore.Row) Workout {
	return Workout{
		ID:          r.String("workout_id"),
		Title:       r.String("title"),
		Duration:    r.Int("duration"),
		EstCalories: r.Int("est_calories"),
		WorkoutType: r.String("workout_type"),
		CoverImage:  r.String("cover_image"),
		ReleasedAt:  r.Int("released_at"),
	}
}

// Columns returns the attribute columns of the entry.
func (w Workout) Columns() []rowstore.Column {
	return []rowstore.Column{
		{Name: "title", Value: w.Title},
		{Name: "duration", Value: w.Duration},
		{Name: "est_calories", Value: w.EstCalories},
		{Name: "workout_type", Value: w.WorkoutType},
		{Name: "cover_image", Value: w.CoverImage},
		{Name: "released_at", Value: w.ReleasedAt},
	}
}

var workoutTypeNames = map[string]string{
	"treadmill":       "跑步机",
	"outdoor_running": "户外跑",
	"elliptical":      "椭圆仪",
	"indoor_cycling":  "室内单车",
	"rowing":          "划船机",
	"strength":        "力量训练",
	"stretching":      "拉伸",
}

// WorkoutTypeDisplay returns the display name of a workout type, or the
// type itself when it has none.
func WorkoutTypeDisplay(t string) string {
	if name, ok := workoutTypeNames[t]; ok {
		return name
	}
	return t
}

// DurationDisplay formats seconds as mm:ss.
func DurationDisplay(sec int64) string {
	if sec <= 0 {
		return "00:00"
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// WorkoutToken is an unlock token row in `workout_tokens`: it grants play
// access to the listed workouts until ExpiredAt (ms epoch).
type WorkoutToken struct {
	Token      string
	WorkoutIDs []string
	ExpiredAt  int64
}

// WorkoutTokenFromRow converts a workout_tokens row.  The wids column holds
// a JSON array of workout ids.
func WorkoutTokenFromRow(r rowstore.Row) (WorkoutToken, error) {
	t := WorkoutToken{Token: r.String("w_token"), ExpiredAt: r.Int("expired_at")}
	if raw := r.String("wids"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &t.WorkoutIDs); err != nil {
			return WorkoutToken{}, fmt.Errorf("decode wids of token %s: %w", t.Token, err)
		}
	}
	return t, nil
}

// Unlocks returns the expiry the token grants for workoutID at now, or 0
// when it does not unlock it.
func (t WorkoutToken) Unlocks(workoutID string, now int64) int64 {
	if !slices.Contains(t.WorkoutIDs, workoutID) || t.ExpiredAt <= now {
		return 0
	}
	return t.ExpiredAt
}
