package rowstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps rows in process memory.  Every call holds the store
// mutex for its whole duration, so a condition check and the write it guards
// are atomic just like a single-row conditional write on the real store.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]map[string]*memRow
}

type memRow struct {
	key  Key
	cols Row
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]*memRow)}
}

func (s *MemoryStore) table(name string) map[string]*memRow {
	rows, ok := s.tables[name]
	if !ok {
		rows = make(map[string]*memRow)
		s.tables[name] = rows
	}
	return rows
}

// GetRow implements Store.
func (s *MemoryStore) GetRow(ctx context.Context, t Table, key Key) (Row, error) {
	if err := t.checkKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.table(t.Name)[encodeKey(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return r.snapshot(t), nil
}

// PutRow implements Store.  The stored row is replaced by key + cols.
func (s *MemoryStore) PutRow(ctx context.Context, t Table, key Key, cols []Column, exist Existence) error {
	if err := t.checkKey(key); err != nil {
		return err
	}
	if err := t.checkColumns(cols); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.table(t.Name)
	k := encodeKey(key)
	_, found := rows[k]
	if (exist == ExpectNotExist && found) || (exist == ExpectExist && !found) {
		return ErrConditionFailed
	}
	r := &memRow{key: append(Key(nil), key...), cols: Row{}}
	r.apply(cols)
	rows[k] = r
	return nil
}

// UpdateRow implements Store.  Only the given columns are changed.
func (s *MemoryStore) UpdateRow(ctx context.Context, t Table, key Key, cols []Column, cond Condition) error {
	if err := t.checkKey(key); err != nil {
		return err
	}
	if err := t.checkColumns(cols); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.table(t.Name)
	k := encodeKey(key)
	r, found := rows[k]
	if (cond.Existence == ExpectNotExist && found) || (cond.Existence == ExpectExist && !found) {
		return ErrConditionFailed
	}
	if cond.Version != nil {
		var current int64
		if found {
			current = r.cols.Int(VersionColumn)
		}
		if current != *cond.Version {
			return ErrConditionFailed
		}
	}
	if !found {
		r = &memRow{key: append(Key(nil), key...), cols: Row{}}
		rows[k] = r
	}
	r.apply(cols)
	return nil
}

// GetRange implements Store.
func (s *MemoryStore) GetRange(ctx context.Context, t Table, prefix Key, dir Direction, limit int) ([]Row, error) {
	if err := t.checkPrefix(prefix); err != nil {
		return nil, err
	}
	s.mu.Lock()
	matched := make([]*memRow, 0)
	for _, r := range s.table(t.Name) {
		if hasPrefix(r.key, prefix) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		less := compareKeys(matched[i].key, matched[j].key) < 0
		if dir == Backward {
			return !less
		}
		return less
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]Row, 0, len(matched))
	for _, r := range matched {
		out = append(out, r.snapshot(t))
	}
	s.mu.Unlock()
	return out, nil
}

func (r *memRow) apply(cols []Column) {
	for _, c := range cols {
		r.cols[c.Name] = normalize(c.Value)
	}
}

func (r *memRow) snapshot(t Table) Row {
	out := make(Row, len(r.cols)+len(r.key))
	for k, v := range r.cols {
		out[k] = v
	}
	for i, spec := range t.Key {
		out[spec.Name] = r.key[i]
	}
	return out
}

func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	}
	return v
}

func hasPrefix(key, prefix Key) bool {
	for i, v := range prefix {
		if fmt.Sprint(key[i]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func compareKeys(a, b Key) int {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(a, b any) int {
	ai, aok := normalize(a).(int64)
	bi, bok := normalize(b).(int64)
	if aok && bok {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
