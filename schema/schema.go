// Package schema declares the fixed relational schema of the CPI database.
package schema

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

// Type is the SQLite storage class of a column.
type Type string

// Column types.
const (
	Text    Type = "TEXT"
	Integer Type = "INTEGER"
	Real    Type = "REAL"
)

// Column is a table column.
type Column struct {
	Name    string
	Type    Type
	NotNull bool
}

// Index is a secondary index. Expr is used verbatim as the indexed expression list.
type Index struct {
	Name string
	Expr string
}

// Table is a table with a uniqueness key.
type Table struct {
	Name    string
	Columns []Column
	Key     []string
	Indexes []Index
}

// Row maps column names to values. Absent columns are stored as NULL.
// Values are string, int64, float64 or nil.
type Row map[string]any

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns all column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ValueColumns returns the columns that are not part of the key.
func (t *Table) ValueColumns() []Column {
	cols := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !t.isKey(c.Name) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (t *Table) isKey(name string) bool {
	for _, k := range t.Key {
		if k == name {
			return true
		}
	}
	return false
}

// Validate checks that the key refers to declared columns.
func (t *Table) Validate() error {
	if t.Name == "" {
		return xerrors.New("table name is empty")
	}
	if len(t.Key) == 0 {
		return xerrors.Errorf("table %s has no key", t.Name)
	}
	for _, k := range t.Key {
		if _, ok := t.Column(k); !ok {
			return xerrors.Errorf("table %s: key column %s is not declared", t.Name, k)
		}
	}
	return nil
}

// CreateStatements returns the idempotent DDL for the table and its indexes.
func (t *Table) CreateStatements() []string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "\t%s %s", c.Name, c.Type)
		if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)\n)", strings.Join(t.Key, ", "))

	stmts := []string{b.String()}
	for _, idx := range t.Indexes {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.Name, t.Name, idx.Expr))
	}

	return stmts
}
