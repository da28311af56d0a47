// Package repository maps entities onto row store tables.  Every repo is a
// thin typed wrapper: reads return rowstore.ErrNotFound when a row is
// absent and conditional writes return rowstore.ErrConditionFailed when the
// store rejects them.  The aliases below let higher layers match on those
// causes without importing the store package.
package repository

import "github.com/iliyamo/pulse-workout-sessions/internal/rowstore"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = rowstore.ErrNotFound

// ErrConflict is returned when an existence or version condition rejects a
// write.  Nothing of the rejected write is applied.
var ErrConflict = rowstore.ErrConditionFailed
