package blsloader

import (
	"context"

	"golang.org/x/xerrors"

	"go.nownabe.dev/blsloader/internal/store"
	"go.nownabe.dev/blsloader/schema"
)

// Loader writes parsed rows into a destination such as the SQLite database.
type Loader interface {
	// EnsureSchema creates whatever the destination is missing. It must be idempotent.
	EnsureSchema(context.Context) error

	// Load upserts rows into table, all or nothing.
	Load(context.Context, *schema.Table, []schema.Row, LoadInfo) (LoadStats, error)
}

// LoadInfo describes the file a Load comes from.
type LoadInfo struct {
	Source   string
	Checksum string
	Rejected int
}

// LoadStats counts what a Load did.
type LoadStats struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// Add returns the sum of s and o.
func (s LoadStats) Add(o LoadStats) LoadStats {
	return LoadStats{
		Inserted:  s.Inserted + o.Inserted,
		Updated:   s.Updated + o.Updated,
		Unchanged: s.Unchanged + o.Unchanged,
	}
}

// DefaultSQLitePath is the database file used when none is configured.
const DefaultSQLitePath = store.DefaultPath

// SQLiteConfig configures the SQLite database.
type SQLiteConfig = store.Config

// Observation is a row of the data_view view.
type Observation = store.Observation

// ViewFilter narrows SQLite.Query.
type ViewFilter = store.ViewFilter

// LoadSQLiteConfig reads the database configuration from the environment.
func LoadSQLiteConfig() (SQLiteConfig, error) {
	return store.LoadConfig()
}

// SQLite is a Loader backed by a single SQLite file. Open one per run and close it.
type SQLite struct {
	store *store.Store
}

// OpenSQLite opens the database, creating the file when needed.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	return &SQLite{store: s}, nil
}

// Close releases the connection.
func (d *SQLite) Close() error {
	return d.store.Close()
}

// EnsureSchema implements Loader.
func (d *SQLite) EnsureSchema(ctx context.Context) error {
	if err := d.store.EnsureSchema(ctx); err != nil {
		return &DatabaseError{Op: "ensure schema", Err: err}
	}
	return nil
}

// Load implements Loader.
func (d *SQLite) Load(ctx context.Context, t *schema.Table, rows []schema.Row, info LoadInfo) (LoadStats, error) {
	st, err := d.store.Upsert(ctx, t, rows, store.Entry{
		Source:   info.Source,
		Checksum: info.Checksum,
		Rejected: info.Rejected,
	})
	if err != nil {
		return LoadStats{}, &DatabaseError{Table: t.Name, Op: "upsert", Err: err}
	}

	return LoadStats{Inserted: st.Inserted, Updated: st.Updated, Unchanged: st.Unchanged}, nil
}

// Count returns the number of rows in t.
func (d *SQLite) Count(ctx context.Context, t *schema.Table) (int, error) {
	n, err := d.store.Count(ctx, t)
	if err != nil {
		return 0, &DatabaseError{Table: t.Name, Op: "count", Err: err}
	}
	return n, nil
}

// Query reads observations joined with area, item and period names.
func (d *SQLite) Query(ctx context.Context, f ViewFilter) ([]Observation, error) {
	obs, err := d.store.QueryView(ctx, f)
	if err != nil {
		return nil, xerrors.Errorf("failed to query: %w", err)
	}
	return obs, nil
}
