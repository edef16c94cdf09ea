package store

import (
	"context"
	"database/sql"
	"strings"

	"golang.org/x/xerrors"
)

// Observation is a row of data_view.
type Observation struct {
	SeriesID   string          `db:"series_id"`
	AreaCode   string          `db:"area_code"`
	AreaName   sql.NullString  `db:"area_name"`
	ItemCode   string          `db:"item_code"`
	ItemName   sql.NullString  `db:"item_name"`
	Year       int             `db:"year"`
	Period     string          `db:"period"`
	PeriodName sql.NullString  `db:"period_name"`
	Value      sql.NullFloat64 `db:"value"`
}

// ViewFilter narrows QueryView. Empty fields match everything.
type ViewFilter struct {
	AreaCode string
	ItemCode string
	SeriesID string
	FromYear int
	Limit    int
}

// QueryView reads observations joined with their reference names.
func (s *Store) QueryView(ctx context.Context, f ViewFilter) ([]Observation, error) {
	var (
		conds []string
		args  []any
	)

	if f.AreaCode != "" {
		conds = append(conds, "area_code = ?")
		args = append(args, f.AreaCode)
	}
	if f.ItemCode != "" {
		conds = append(conds, "item_code = ?")
		args = append(args, f.ItemCode)
	}
	if f.SeriesID != "" {
		conds = append(conds, "series_id = ?")
		args = append(args, f.SeriesID)
	}
	if f.FromYear > 0 {
		conds = append(conds, "year >= ?")
		args = append(args, f.FromYear)
	}

	q := "SELECT series_id, area_code, area_name, item_code, item_name, year, period, period_name, value FROM data_view"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY series_id, year, period"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	var obs []Observation
	if err := s.db.SelectContext(ctx, &obs, q, args...); err != nil {
		return nil, xerrors.Errorf("query data_view: %w", err)
	}

	return obs, nil
}
