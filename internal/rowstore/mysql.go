package rowstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the server error number for a primary key collision.
const mysqlDuplicateEntry = 1062

// MySQLStore implements Store on MySQL.  Each table is a regular table whose
// primary key is the Table key; attribute columns are nullable so a NULL
// column reads back as absent.  The connection must be opened with
// clientFoundRows=true: conditional updates count matched rows, not changed
// rows, to tell a rejected condition from a no-op write.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore wraps an open database handle.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// EnsureSchema creates the given tables when they do not exist yet.
func (s *MySQLStore) EnsureSchema(ctx context.Context, tables ...Table) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, createTableSQL(t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// GetRow implements Store.
func (s *MySQLStore) GetRow(ctx context.Context, t Table, key Key) (Row, error) {
	if err := t.checkKey(key); err != nil {
		return nil, err
	}
	specs := allSpecs(t)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
		columnList(specs), quote(t.Name), keyWhere(t.Key[:len(key)]))
	dest := scanDest(specs)
	if err := s.db.QueryRowContext(ctx, q, key...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rowFromDest(specs, dest), nil
}

// PutRow implements Store.
func (s *MySQLStore) PutRow(ctx context.Context, t Table, key Key, cols []Column, exist Existence) error {
	if err := t.checkKey(key); err != nil {
		return err
	}
	if err := t.checkColumns(cols); err != nil {
		return err
	}
	switch exist {
	case ExpectNotExist:
		return s.insert(ctx, t, key, cols)
	case ExpectExist:
		// A put replaces the whole row: columns not given are cleared.
		full := make([]Column, 0, len(t.Columns))
		for _, spec := range t.Columns {
			full = append(full, Column{Name: spec.Name, Value: valueOf(cols, spec.Name)})
		}
		return s.update(ctx, t, key, full, nil)
	default:
		names, args := insertParts(t, key, cols)
		q := fmt.Sprintf("REPLACE INTO %s (%s) VALUES (%s)", quote(t.Name), names, placeholders(len(args)))
		_, err := s.db.ExecContext(ctx, q, args...)
		return err
	}
}

// UpdateRow implements Store.
func (s *MySQLStore) UpdateRow(ctx context.Context, t Table, key Key, cols []Column, cond Condition) error {
	if err := t.checkKey(key); err != nil {
		return err
	}
	if err := t.checkColumns(cols); err != nil {
		return err
	}
	if cond.Existence == ExpectNotExist {
		return s.insert(ctx, t, key, cols)
	}
	if cond.Version == nil {
		if cond.Existence == ExpectExist {
			return s.update(ctx, t, key, cols, nil)
		}
		return s.upsert(ctx, t, key, cols)
	}
	if *cond.Version == 0 && cond.Existence == Ignore {
		// Absent rows have version 0: try to create first, then fall back to
		// a rows-without-version update when the key already exists.
		err := s.insert(ctx, t, key, cols)
		if !errors.Is(err, ErrConditionFailed) {
			return err
		}
	}
	return s.update(ctx, t, key, cols, cond.Version)
}

// GetRange implements Store.
func (s *MySQLStore) GetRange(ctx context.Context, t Table, prefix Key, dir Direction, limit int) ([]Row, error) {
	if err := t.checkPrefix(prefix); err != nil {
		return nil, err
	}
	specs := allSpecs(t)
	order := "ASC"
	if dir == Backward {
		order = "DESC"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columnList(specs), quote(t.Name))
	if len(prefix) > 0 {
		fmt.Fprintf(&sb, " WHERE %s", keyWhere(t.Key[:len(prefix)]))
	}
	orderBy := make([]string, 0, len(t.Key)-len(prefix))
	for _, k := range t.Key[len(prefix):] {
		orderBy = append(orderBy, quote(k.Name)+" "+order)
	}
	fmt.Fprintf(&sb, " ORDER BY %s", strings.Join(orderBy, ", "))
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, sb.String(), prefix...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		dest := scanDest(specs)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, rowFromDest(specs, dest))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MySQLStore) insert(ctx context.Context, t Table, key Key, cols []Column) error {
	names, args := insertParts(t, key, cols)
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(t.Name), names, placeholders(len(args)))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if isDuplicate(err) {
			return ErrConditionFailed
		}
		return err
	}
	return nil
}

func (s *MySQLStore) upsert(ctx context.Context, t Table, key Key, cols []Column) error {
	names, args := insertParts(t, key, cols)
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(t.Name), names, placeholders(len(args)))
	if len(cols) > 0 {
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", quote(c.Name), quote(c.Name))
		}
		q += " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	} else {
		q = strings.Replace(q, "INSERT INTO", "INSERT IGNORE INTO", 1)
	}
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

// update runs UPDATE ... WHERE key [AND version = ?] and reports
// ErrConditionFailed when no row matched.
func (s *MySQLStore) update(ctx context.Context, t Table, key Key, cols []Column, version *int64) error {
	if len(cols) == 0 {
		return nil
	}
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(key)+1)
	for i, c := range cols {
		sets[i] = quote(c.Name) + " = ?"
		args = append(args, c.Value)
	}
	where := keyWhere(t.Key)
	args = append(args, key...)
	if version != nil {
		where += fmt.Sprintf(" AND COALESCE(%s, 0) = ?", quote(VersionColumn))
		args = append(args, *version)
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s", quote(t.Name), strings.Join(sets, ", "), where)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConditionFailed
	}
	return nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func createTableSQL(t Table) string {
	defs := make([]string, 0, len(t.Key)+len(t.Columns)+1)
	keys := make([]string, 0, len(t.Key))
	for _, k := range t.Key {
		defs = append(defs, fmt.Sprintf("%s %s NOT NULL", quote(k.Name), sqlType(k.Kind, true)))
		keys = append(keys, quote(k.Name))
	}
	for _, c := range t.Columns {
		defs = append(defs, fmt.Sprintf("%s %s NULL", quote(c.Name), sqlType(c.Kind, false)))
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		quote(t.Name), strings.Join(defs, ",\n  "))
}

func sqlType(k Kind, key bool) string {
	switch k {
	case KindInt:
		return "BIGINT"
	case KindFloat:
		return "DOUBLE"
	case KindBool:
		return "TINYINT(1)"
	}
	if key {
		return "VARCHAR(64)"
	}
	return "TEXT"
}

func allSpecs(t Table) []ColumnSpec {
	specs := make([]ColumnSpec, 0, len(t.Key)+len(t.Columns))
	specs = append(specs, t.Key...)
	return append(specs, t.Columns...)
}

func columnList(specs []ColumnSpec) string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = quote(s.Name)
	}
	return strings.Join(names, ", ")
}

func keyWhere(specs []ColumnSpec) string {
	conds := make([]string, len(specs))
	for i, s := range specs {
		conds[i] = quote(s.Name) + " = ?"
	}
	return strings.Join(conds, " AND ")
}

func insertParts(t Table, key Key, cols []Column) (string, []any) {
	names := make([]string, 0, len(key)+len(cols))
	args := make([]any, 0, len(key)+len(cols))
	for i, k := range t.Key {
		names = append(names, quote(k.Name))
		args = append(args, key[i])
	}
	for _, c := range cols {
		names = append(names, quote(c.Name))
		args = append(args, c.Value)
	}
	return strings.Join(names, ", "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func valueOf(cols []Column, name string) any {
	for _, c := range cols {
		if c.Name == name {
			return c.Value
		}
	}
	return nil
}

func quote(name string) string { return "`" + name + "`" }

func scanDest(specs []ColumnSpec) []any {
	dest := make([]any, len(specs))
	for i, s := range specs {
		switch s.Kind {
		case KindInt:
			dest[i] = new(sql.NullInt64)
		case KindFloat:
			dest[i] = new(sql.NullFloat64)
		case KindBool:
			dest[i] = new(sql.NullBool)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	return dest
}

func rowFromDest(specs []ColumnSpec, dest []any) Row {
	row := make(Row, len(specs))
	for i, s := range specs {
		switch v := dest[i].(type) {
		case *sql.NullInt64:
			if v.Valid {
				row[s.Name] = v.Int64
			}
		case *sql.NullFloat64:
			if v.Valid {
				row[s.Name] = v.Float64
			}
		case *sql.NullBool:
			if v.Valid {
				row[s.Name] = v.Bool
			}
		case *sql.NullString:
			if v.Valid {
				row[s.Name] = v.String
			}
		}
	}
	return row
}
