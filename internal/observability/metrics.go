// Package observability holds the service's prometheus collectors.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionTouches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workout_sessions",
		Subsystem: "session",
		Name:      "touches_total",
		Help:      "Heartbeats by outcome (accepted, stale, missing, conflict).",
	}, []string{"outcome"})
	sessionFinishes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workout_sessions",
		Subsystem: "session",
		Name:      "finishes_total",
		Help:      "Finish calls by flow and completion result.",
	}, []string{"flow", "completed"})
	optimisticConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workout_sessions",
		Subsystem: "store",
		Name:      "optimistic_conflicts_total",
		Help:      "Conditional writes rejected because the row version moved.",
	}, []string{"table"})
	notificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workout_sessions",
		Subsystem: "notify",
		Name:      "dropped_total",
		Help:      "Notifications discarded because the send buffer was full or closed.",
	})
	notificationsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workout_sessions",
		Subsystem: "notify",
		Name:      "failed_total",
		Help:      "Notifications the broker did not accept.",
	})
)

func init() {
	prometheus.MustRegister(sessionTouches, sessionFinishes, optimisticConflicts, notificationsDropped, notificationsFailed)
}

// RecordTouch counts a heartbeat outcome.
func RecordTouch(outcome string) { sessionTouches.WithLabelValues(outcome).Inc() }

// RecordFinish counts a finish call.
func RecordFinish(flow string, completed bool) {
	c := "false"
	if completed {
		c = "true"
	}
	sessionFinishes.WithLabelValues(flow, c).Inc()
}

// RecordConflict counts a rejected optimistic write on table.
func RecordConflict(table string) { optimisticConflicts.WithLabelValues(table).Inc() }

// RecordNotificationDropped counts a notification that was never sent.
func RecordNotificationDropped() { notificationsDropped.Inc() }

// RecordNotificationFailed counts a notification the broker rejected.
func RecordNotificationFailed() { notificationsFailed.Inc() }
