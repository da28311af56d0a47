package model

import "github.com/iliyamo/pulse-workout-sessions/internal/rowstore"

// User is the slice of the `users` row this service reads and writes.
// Login, identity merge and phone binding own the rest of the row.
//
// Fields:
//
//	ID              - users.uuid, the authenticated subject.
//	LatestSessionID - pointer to the most recent NEW_SESSION start.
//	VipExpiredAt    - ms epoch until which the user may play any workout.
//	UpdatedAt       - optimistic version stamp.
type User struct {
	ID              string
	LatestSessionID string
	VipExpiredAt    int64
	UpdatedAt       int64
}

// UserFromRow converts a users row.
func UserFromRow(r rowstore.Row) User {
	return User{
		ID:              r.String("uuid"),
		LatestSessionID: r.String("latest_session_id"),
		VipExpiredAt:    r.Int("vip_expired_at"),
		UpdatedAt:       r.Int(rowstore.VersionColumn),
	}
}

// IsVIP reports whether the VIP period is still running at now (ms epoch).
func (u User) IsVIP(now int64) bool { return u.VipExpiredAt > now }
