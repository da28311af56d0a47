// Package rowstore is a small key-value table abstraction: point reads,
// existence-guarded puts, conditional updates guarded by a version column and
// ordered range scans under a key prefix.  Two implementations exist: an
// in-memory store used for local development and tests, and a MySQL store.
package rowstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// VersionColumn holds the optimistic version stamp (ms epoch) of every row
// written through ConditionalUpdate.
const VersionColumn = "updated_at"

var (
	// ErrNotFound is returned by GetRow when no row exists for the key.
	ErrNotFound = errors.New("row not found")
	// ErrConditionFailed is returned when an existence or version condition
	// rejects a write.  No column of the rejected write is applied.
	ErrConditionFailed = errors.New("condition check failed")
)

// Kind is the storage type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

// ColumnSpec names a column and its kind.
type ColumnSpec struct {
	Name string
	Kind Kind
}

// Table describes a table: ordered primary key columns followed by
// attribute columns.
type Table struct {
	Name    string
	Key     []ColumnSpec
	Columns []ColumnSpec
}

// Key is an ordered list of primary key values.
type Key []any

// Column is a single attribute assignment.
type Column struct {
	Name  string
	Value any
}

// Row is the column bag returned by reads.  Key columns are included.
// Columns that were never written are absent.
type Row map[string]any

// Existence is the row existence expectation of a write.
type Existence int

const (
	// Ignore writes whether or not the row exists.
	Ignore Existence = iota
	// ExpectExist rejects the write when the row is absent.
	ExpectExist
	// ExpectNotExist rejects the write when the row is present.
	ExpectNotExist
)

// Condition guards an UpdateRow call.  When Version is set the write is only
// applied if the stored VersionColumn equals *Version; a missing row or a
// missing column compares as 0.
type Condition struct {
	Existence Existence
	Version   *int64
}

// Direction orders GetRange results by the key columns after the prefix.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Store is the row store capability consumed by the repositories.
type Store interface {
	GetRow(ctx context.Context, t Table, key Key) (Row, error)
	PutRow(ctx context.Context, t Table, key Key, cols []Column, exist Existence) error
	UpdateRow(ctx context.Context, t Table, key Key, cols []Column, cond Condition) error
	GetRange(ctx context.Context, t Table, prefix Key, dir Direction, limit int) ([]Row, error)
}

// Int reads an integer column, returning 0 when absent.
func (r Row) Int(name string) int64 {
	switch v := r[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Float reads a float column, returning 0 when absent.
func (r Row) Float(name string) float64 {
	switch v := r[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// String reads a string column, returning "" when absent.
func (r Row) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Bool reads a boolean column, returning false when absent.
func (r Row) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

// Has reports whether the column was ever written.
func (r Row) Has(name string) bool {
	_, ok := r[name]
	return ok
}

func (t Table) column(name string) (ColumnSpec, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

func (t Table) checkKey(key Key) error {
	if len(key) != len(t.Key) {
		return fmt.Errorf("rowstore: %s expects %d key values, got %d", t.Name, len(t.Key), len(key))
	}
	return nil
}

func (t Table) checkPrefix(prefix Key) error {
	if len(prefix) >= len(t.Key) {
		return fmt.Errorf("rowstore: %s range prefix must be shorter than the key", t.Name)
	}
	return nil
}

func (t Table) checkColumns(cols []Column) error {
	for _, c := range cols {
		if _, ok := t.column(c.Name); !ok {
			return fmt.Errorf("rowstore: %s has no column %q", t.Name, c.Name)
		}
	}
	return nil
}

// encodeKey builds the in-memory map key of a row.  Key values never contain
// the unit separator.
func encodeKey(key Key) string {
	parts := make([]string, len(key))
	for i, v := range key {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\x1f")
}
