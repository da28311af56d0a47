package rowstore

import (
	"context"
	"time"
)

// NextVersion returns the version stamp written by a successful conditional
// update: the wall clock in ms, bumped past expected when the clock has not
// moved (same millisecond, skew) so a stale version can never match again.
func NextVersion(now time.Time, expected int64) int64 {
	v := now.UnixMilli()
	if v <= expected {
		v = expected + 1
	}
	return v
}

// ConditionalUpdate applies cols to the row only if its stored version still
// equals expected, stamping a new version on success.  A row that does not
// exist has version 0, so expected == 0 creates it.  On a version mismatch
// ErrConditionFailed is returned and nothing is written.  Callers decide
// whether to retry; none of the flows in this service do.
func ConditionalUpdate(ctx context.Context, s Store, t Table, key Key, expected int64, cols []Column, now time.Time) (int64, error) {
	version := NextVersion(now, expected)
	all := make([]Column, 0, len(cols)+1)
	all = append(all, cols...)
	all = append(all, Column{Name: VersionColumn, Value: version})
	if err := s.UpdateRow(ctx, t, key, all, Condition{Existence: Ignore, Version: &expected}); err != nil {
		return 0, err
	}
	return version, nil
}
