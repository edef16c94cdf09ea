package handlers

import (
	"go.nownabe.dev/blsloader"
	"go.nownabe.dev/blsloader/schema"
)

// CUSeries builds a handler for cu.series, the catalog of series.
//
// The file repeats area, item, seasonal, periodicity and base codes in their own
// columns. Those are skipped: the same values are decoded from series_id.
func CUSeries(name, url string, notifier blsloader.Notifier) *blsloader.Handler {
	return &blsloader.Handler{
		Name:     name,
		URL:      url,
		Table:    schema.Series,
		Notifier: notifier,
		Layout: blsloader.Layout{
			Header: true,
			Fields: []blsloader.Field{
				{Name: "series_id", Kind: blsloader.SeriesID},
				{Name: "area_code", Kind: blsloader.Skip},
				{Name: "item_code", Kind: blsloader.Skip},
				{Name: "seasonal", Kind: blsloader.Skip},
				{Name: "periodicity_code", Kind: blsloader.Skip},
				{Name: "base_code", Kind: blsloader.Skip},
				{Name: "base_period", Kind: blsloader.Text},
				{Name: "series_title", Kind: blsloader.Text},
				{Name: "footnote_codes", Kind: blsloader.Text},
				{Name: "begin_year", Kind: blsloader.Integer},
				{Name: "begin_period", Kind: blsloader.Text},
				{Name: "end_year", Kind: blsloader.Integer},
				{Name: "end_period", Kind: blsloader.Text},
			},
		},
	}
}
