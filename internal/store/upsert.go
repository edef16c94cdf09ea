package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/xerrors"

	"go.nownabe.dev/blsloader/schema"
)

// Stats counts what an Upsert did with its rows.
type Stats struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// Entry describes a file load for the load_log table.
type Entry struct {
	Source   string
	Checksum string
	Rejected int
	LoadedAt time.Time
}

type op int

const (
	opInsert op = iota
	opUpdate
	opSkip
)

// Upsert reconciles rows against table in one transaction: new keys are inserted,
// changed rows are updated in place and identical rows are left alone. The load is
// recorded in load_log within the same transaction. On any error nothing is written.
func (s *Store) Upsert(ctx context.Context, table *schema.Table, rows []schema.Row, e Entry) (stats Stats, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Stats{}, xerrors.Errorf("begin transaction on %s: %w", table.Name, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	u, err := prepareUpserter(ctx, tx, table)
	if err != nil {
		return Stats{}, err
	}
	defer u.close()

	for i, row := range rows {
		o, err := u.upsert(ctx, row)
		if err != nil {
			return Stats{}, xerrors.Errorf("row %d: %w", i, err)
		}

		switch o {
		case opInsert:
			stats.Inserted++
		case opUpdate:
			stats.Updated++
		case opSkip:
			stats.Unchanged++
		}
	}

	if e.Source != "" {
		if err := insertLogEntry(ctx, tx, table, e, stats); err != nil {
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, xerrors.Errorf("commit %s: %w", table.Name, err)
	}

	return stats, nil
}

type upserter struct {
	table  *schema.Table
	values []schema.Column

	sel *sqlx.Stmt
	ins *sqlx.Stmt
	upd *sqlx.Stmt
}

func prepareUpserter(ctx context.Context, tx *sqlx.Tx, t *schema.Table) (*upserter, error) {
	u := &upserter{table: t, values: t.ValueColumns()}

	where := make([]string, len(t.Key))
	for i, k := range t.Key {
		where[i] = k + " = ?"
	}
	cond := strings.Join(where, " AND ")

	selected := "1"
	if len(u.values) > 0 {
		names := make([]string, len(u.values))
		for i, c := range u.values {
			names[i] = c.Name
		}
		selected = strings.Join(names, ", ")
	}

	var err error

	u.sel, err = tx.PreparexContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE %s", selected, t.Name, cond))
	if err != nil {
		return nil, xerrors.Errorf("prepare select on %s: %w", t.Name, err)
	}

	names := t.ColumnNames()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	u.ins, err = tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(names, ", "), placeholders))
	if err != nil {
		u.close()
		return nil, xerrors.Errorf("prepare insert on %s: %w", t.Name, err)
	}

	if len(u.values) > 0 {
		sets := make([]string, len(u.values))
		for i, c := range u.values {
			sets[i] = c.Name + " = ?"
		}
		u.upd, err = tx.PreparexContext(ctx, fmt.Sprintf("UPDATE %s SET %s WHERE %s", t.Name, strings.Join(sets, ", "), cond))
		if err != nil {
			u.close()
			return nil, xerrors.Errorf("prepare update on %s: %w", t.Name, err)
		}
	}

	return u, nil
}

func (u *upserter) close() {
	for _, st := range []*sqlx.Stmt{u.sel, u.ins, u.upd} {
		if st != nil {
			st.Close()
		}
	}
}

func (u *upserter) upsert(ctx context.Context, row schema.Row) (op, error) {
	keys := make([]any, len(u.table.Key))
	for i, k := range u.table.Key {
		c, _ := u.table.Column(k)
		v := normalize(c.Type, row[k])
		if v == nil {
			return 0, xerrors.Errorf("key column %s is null", k)
		}
		keys[i] = v
	}

	values := make([]any, len(u.values))
	for i, c := range u.values {
		values[i] = normalize(c.Type, row[c.Name])
	}

	current, found, err := u.current(ctx, keys)
	if err != nil {
		return 0, err
	}

	if !found {
		args := make([]any, len(u.table.Columns))
		for i, c := range u.table.Columns {
			args[i] = normalize(c.Type, row[c.Name])
		}
		if _, err := u.ins.ExecContext(ctx, args...); err != nil {
			return 0, xerrors.Errorf("insert into %s: %w", u.table.Name, err)
		}
		return opInsert, nil
	}

	if equalValues(u.values, current, values) {
		return opSkip, nil
	}

	if _, err := u.upd.ExecContext(ctx, append(values, keys...)...); err != nil {
		return 0, xerrors.Errorf("update %s: %w", u.table.Name, err)
	}

	return opUpdate, nil
}

func (u *upserter) current(ctx context.Context, keys []any) ([]any, bool, error) {
	rows, err := u.sel.QueryxContext(ctx, keys...)
	if err != nil {
		return nil, false, xerrors.Errorf("select from %s: %w", u.table.Name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, false, xerrors.Errorf("select from %s: %w", u.table.Name, err)
		}
		return nil, false, nil
	}

	if len(u.values) == 0 {
		return nil, true, nil
	}

	current, err := rows.SliceScan()
	if err != nil {
		return nil, false, xerrors.Errorf("scan %s: %w", u.table.Name, err)
	}

	return current, true, nil
}

func equalValues(cols []schema.Column, current, next []any) bool {
	for i, c := range cols {
		if normalize(c.Type, current[i]) != next[i] {
			return false
		}
	}
	return true
}

// normalize converts v into the Go type the driver returns for the column type
// so that stored and parsed values compare with ==.
func normalize(t schema.Type, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		v = string(x)
	case int:
		v = int64(x)
	case int32:
		v = int64(x)
	case float32:
		v = float64(x)
		if math.IsNaN(float64(x)) {
			return nil
		}
	case float64:
		// SQLite stores NaN as NULL.
		if math.IsNaN(x) {
			return nil
		}
	case sql.NullString:
		if !x.Valid {
			return nil
		}
		v = x.String
	case sql.NullFloat64:
		if !x.Valid {
			return nil
		}
		v = x.Float64
	case sql.NullInt64:
		if !x.Valid {
			return nil
		}
		v = x.Int64
	}

	switch t {
	case schema.Real:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case schema.Integer:
		if f, ok := v.(float64); ok && f == math.Trunc(f) {
			return int64(f)
		}
	case schema.Text:
		switch x := v.(type) {
		case int64:
			return fmt.Sprint(x)
		case float64:
			return fmt.Sprint(x)
		}
	}

	return v
}

func insertLogEntry(ctx context.Context, tx *sqlx.Tx, table *schema.Table, e Entry, st Stats) error {
	loadedAt := e.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO load_log (source, loaded_at, table_name, checksum, inserted, updated, unchanged, rejected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Source, loadedAt.UTC().Format(time.RFC3339Nano), table.Name, e.Checksum,
		st.Inserted, st.Updated, st.Unchanged, e.Rejected,
	)
	if err != nil {
		return xerrors.Errorf("insert load_log for %s: %w", e.Source, err)
	}

	return nil
}
