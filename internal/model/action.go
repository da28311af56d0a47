package model

import "github.com/iliyamo/pulse-workout-sessions/internal/rowstore"

// ActionType is the kind of an action log entry.
type ActionType string

const (
	ActionView   ActionType = "VIEW"
	ActionStart  ActionType = "START"
	ActionFinish ActionType = "FINISH"
)

// Action is an append-only record in the `actions` table keyed by
// (uuid, wid, action_id).  Only the payload fields of its type are set.
type Action struct {
	UserID        string     `json:"-"`
	WorkoutID     string     `json:"workoutId"`
	ActionID      string     `json:"actionId"`
	Type          ActionType `json:"type"`
	CreatedAt     int64      `json:"createdAt"`
	StartActionID string     `json:"startActionId,omitempty"`
	Duration      int64      `json:"duration,omitempty"`
	Completed     bool       `json:"completed,omitempty"`
	ReferrerUID   string     `json:"referrerUid,omitempty"`
	ReferrerGID   string     `json:"referrerGid,omitempty"`
}

// Columns returns the attribute columns of the entry.  Empty payload fields
// are not stored.
func (a Action) Columns() []rowstore.Column {
	cols := []rowstore.Column{
		{Name: "created_at", Value: a.CreatedAt},
		{Name: "type", Value: string(a.Type)},
	}
	if a.StartActionID != "" {
		cols = append(cols, rowstore.Column{Name: "start_action_id", Value: a.StartActionID})
	}
	if a.Type == ActionFinish {
		cols = append(cols,
			rowstore.Column{Name: "duration", Value: a.Duration},
			rowstore.Column{Name: "completed", Value: a.Completed})
	}
	if a.ReferrerUID != "" {
		cols = append(cols, rowstore.Column{Name: "referrer_uid", Value: a.ReferrerUID})
	}
	if a.ReferrerGID != "" {
		cols = append(cols, rowstore.Column{Name: "referrer_gid", Value: a.ReferrerGID})
	}
	return cols
}

// ActionFromRow converts an actions row.
func ActionFromRow(r rowstore.Row) Action {
	return Action{
		UserID:        r.String("uuid"),
		WorkoutID:     r.String("wid"),
		ActionID:      r.String("action_id"),
		Type:          ActionType(r.String("type")),
		CreatedAt:     r.Int("created_at"),
		StartActionID: r.String("start_action_id"),
		Duration:      r.Int("duration"),
		Completed:     r.Bool("completed"),
		ReferrerUID:   r.String("referrer_uid"),
		ReferrerGID:   r.String("referrer_gid"),
	}
}
