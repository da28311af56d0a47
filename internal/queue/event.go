// Package queue carries notification events over RabbitMQ: the server
// publishes them without waiting on delivery, and the notifier binary
// consumes them and forwards them to staff and activity webhooks.
package queue

import "time"

// Queue names.  Both are durable.
const (
	StaffQueue    = "staff.notifications"
	ActivityQueue = "user.activity"
)

// EventType identifies a notification.
type EventType string

const (
	// WorkoutComplete tells staff a user genuinely completed a workout.
	WorkoutComplete EventType = "WORKOUT_COMPLETE"
	StartSession    EventType = "START_SESSION"
	FinishSession   EventType = "FINISH_SESSION"
	ViewWorkout     EventType = "VIEW_WORKOUT"
)

// Event is the message payload.  Fields that do not apply to a type are
// left empty.
type Event struct {
	Type          EventType `json:"type"`
	UserID        string    `json:"user_id"`
	WorkoutID     string    `json:"workout_id"`
	SessionID     string    `json:"session_id,omitempty"`
	ResumeSession bool      `json:"resume_session,omitempty"`
	WorkoutTitle  string    `json:"workout_title,omitempty"`
	WorkoutType   string    `json:"workout_type,omitempty"`
	Duration      int64     `json:"duration,omitempty"`
	OccurredAt    string    `json:"occurred_at"`
}

// Queue returns the queue the event is routed to.
func (e Event) Queue() string {
	if e.Type == WorkoutComplete {
		return StaffQueue
	}
	return ActivityQueue
}

// Stamp sets OccurredAt when it is empty.
func (e Event) Stamp(now time.Time) Event {
	if e.OccurredAt == "" {
		e.OccurredAt = now.UTC().Format(time.RFC3339)
	}
	return e
}
