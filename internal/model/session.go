package model

import "github.com/iliyamo/pulse-workout-sessions/internal/rowstore"

// StartType selects how a playback start treats the session row.
type StartType string

const (
	NewSession    StartType = "NEW_SESSION"
	ResumeSession StartType = "RESUME_SESSION"
)

// Valid reports whether t is one of the known start types.
func (t StartType) Valid() bool { return t == NewSession || t == ResumeSession }

// WorkoutSession is one playback attempt of a workout, stored in
// `workout_sessions` under (uuid, sid).  All timestamps are ms epoch.
//
//	StartedAt  - set once at creation.
//	UpdatedAt  - optimistic version stamp, advanced on every conditional write.
//	TouchCount - heartbeat count, only ever incremented.
//	Playhead   - client playback position, informational.
//	Completed  - false until a finish judges the session complete.
//	FinishedAt - set when the session is finished.
type WorkoutSession struct {
	UserID     string  `json:"-"`
	SessionID  string  `json:"sessionId"`
	WorkoutID  string  `json:"workoutId"`
	StartedAt  int64   `json:"startedAt"`
	UpdatedAt  int64   `json:"updatedAt"`
	TouchCount int64   `json:"touchCount"`
	Playhead   float64 `json:"playhead"`
	Completed  bool    `json:"completed"`
	FinishedAt int64   `json:"finishedAt,omitempty"`
}

// Finished reports whether the session was closed by a finish call.
func (s WorkoutSession) Finished() bool { return s.FinishedAt > 0 }

// SessionFromRow converts a workout_sessions row.
func SessionFromRow(r rowstore.Row) WorkoutSession {
	return WorkoutSession{
		UserID:     r.String("uuid"),
		SessionID:  r.String("sid"),
		WorkoutID:  r.String("wid"),
		StartedAt:  r.Int("started_at"),
		UpdatedAt:  r.Int(rowstore.VersionColumn),
		TouchCount: r.Int("touch_count"),
		Playhead:   r.Float("playhead"),
		Completed:  r.Bool("completed"),
		FinishedAt: r.Int("finished_at"),
	}
}

// SessionPatch is a partial update of a session row.  Nil fields are left
// untouched.  The version column is never part of a patch; the optimistic
// protocol stamps it.
type SessionPatch struct {
	WorkoutID  *string
	StartedAt  *int64
	TouchCount *int64
	Playhead   *float64
	Completed  *bool
	FinishedAt *int64
}

// Columns returns the row columns the patch assigns.
func (p SessionPatch) Columns() []rowstore.Column {
	var cols []rowstore.Column
	if p.WorkoutID != nil {
		cols = append(cols, rowstore.Column{Name: "wid", Value: *p.WorkoutID})
	}
	if p.StartedAt != nil {
		cols = append(cols, rowstore.Column{Name: "started_at", Value: *p.StartedAt})
	}
	if p.TouchCount != nil {
		cols = append(cols, rowstore.Column{Name: "touch_count", Value: *p.TouchCount})
	}
	if p.Playhead != nil {
		cols = append(cols, rowstore.Column{Name: "playhead", Value: *p.Playhead})
	}
	if p.Completed != nil {
		cols = append(cols, rowstore.Column{Name: "completed", Value: *p.Completed})
	}
	if p.FinishedAt != nil {
		cols = append(cols, rowstore.Column{Name: "finished_at", Value: *p.FinishedAt})
	}
	return cols
}
