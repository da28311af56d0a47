package session

import "time"

// SecondsPerTouch is the nominal heartbeat interval.  Engaged time is
// estimated as touchCount * SecondsPerTouch.
const SecondsPerTouch = 10

// Evidence is what a completion policy judges.
type Evidence struct {
	// WorkoutDuration is the nominal workout length in seconds.
	WorkoutDuration int64
	// Elapsed is the wall-clock time since the session (or START action)
	// began.
	Elapsed time.Duration
	// TouchCount is the number of accepted heartbeats.
	TouchCount int64
}

// CompletionPolicy decides whether a finished playback counts as a
// completed workout.
type CompletionPolicy interface {
	Name() string
	Completed(ev Evidence) bool
}

// HeartbeatPolicy is the completion rule of the session flow.  It holds when
// the elapsed seconds (rounded up) reach the nominal duration minus
// Tolerance and the heartbeat-estimated engaged time reaches EngagedPercent
// of the nominal duration.
type HeartbeatPolicy struct {
	Tolerance      int64
	EngagedPercent int64
}

// DefaultHeartbeatPolicy allows 15 seconds of skew and requires 70%
// engagement.
var DefaultHeartbeatPolicy = HeartbeatPolicy{Tolerance: 15, EngagedPercent: 70}

func (HeartbeatPolicy) Name() string { return "session" }

func (p HeartbeatPolicy) Completed(ev Evidence) bool {
	if ceilSeconds(ev.Elapsed) < ev.WorkoutDuration-p.Tolerance {
		return false
	}
	// touchCount*10 >= duration*0.7, kept in integers.
	return ev.TouchCount*SecondsPerTouch*100 >= ev.WorkoutDuration*p.EngagedPercent
}

// ElapsedPolicy is the completion rule of the legacy action-log flow: the
// whole seconds since the START action must reach the nominal duration
// minus Tolerance.  Engagement is not checked.
type ElapsedPolicy struct {
	Tolerance int64
}

// DefaultElapsedPolicy allows 5 seconds of skew.
var DefaultElapsedPolicy = ElapsedPolicy{Tolerance: 5}

func (ElapsedPolicy) Name() string { return "legacy" }

func (p ElapsedPolicy) Completed(ev Evidence) bool {
	return floorSeconds(ev.Elapsed) >= max(0, ev.WorkoutDuration-p.Tolerance)
}

func ceilSeconds(d time.Duration) int64 {
	ms := d.Milliseconds()
	s := ms / 1000
	if ms%1000 > 0 {
		s++
	}
	return s
}

func floorSeconds(d time.Duration) int64 {
	ms := d.Milliseconds()
	s := ms / 1000
	if ms%1000 < 0 {
		s--
	}
	return s
}
