package handlers

import (
	"go.nownabe.dev/blsloader"
	"go.nownabe.dev/blsloader/schema"
)

// CUData builds a handler for one of the cu.data.* files, e.g. cu.data.0.Current
// or cu.data.1.AllItems.
func CUData(name, url string, notifier blsloader.Notifier) *blsloader.Handler {
	return &blsloader.Handler{
		Name:     name,
		URL:      url,
		Table:    schema.Data,
		Notifier: notifier,
		Layout: blsloader.Layout{
			Header: true,
			Fields: []blsloader.Field{
				{Name: "series_id", Kind: blsloader.SeriesID},
				{Name: "year", Kind: blsloader.Integer},
				{Name: "period", Kind: blsloader.Text},
				{Name: "value", Kind: blsloader.Real},
				{Name: "footnote_codes", Kind: blsloader.Text},
			},
		},
	}
}
