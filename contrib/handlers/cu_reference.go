package handlers

import (
	"go.nownabe.dev/blsloader"
	"go.nownabe.dev/blsloader/schema"
)

// CUArea builds a handler for cu.area, the geographic areas.
func CUArea(name, url string, notifier blsloader.Notifier) *blsloader.Handler {
	return &blsloader.Handler{
		Name:     name,
		URL:      url,
		Table:    schema.Areas,
		Notifier: notifier,
		Layout: blsloader.Layout{
			Header: true,
			Fields: []blsloader.Field{
				{Name: "area_code", Kind: blsloader.Text},
				{Name: "area_name", Kind: blsloader.Text},
				{Name: "display_level", Kind: blsloader.Integer},
				{Name: "selectable", Kind: blsloader.Text},
				{Name: "sort_sequence", Kind: blsloader.Integer},
			},
		},
	}
}

// CUItem builds a handler for cu.item, the expenditure categories. Item codes
// there include the base code, e.g. SA0 or SAF11.
func CUItem(name, url string, notifier blsloader.Notifier) *blsloader.Handler {
	return &blsloader.Handler{
		Name:     name,
		URL:      url,
		Table:    schema.Items,
		Notifier: notifier,
		Layout: blsloader.Layout{
			Header: true,
			Fields: []blsloader.Field{
				{Name: "item_code", Kind: blsloader.Text},
				{Name: "item_name", Kind: blsloader.Text},
				{Name: "display_level", Kind: blsloader.Integer},
				{Name: "selectable", Kind: blsloader.Text},
				{Name: "sort_sequence", Kind: blsloader.Integer},
			},
		},
	}
}

// CUPeriod builds a handler for cu.period (M01 to M13, S01 to S03).
func CUPeriod(name, url string, notifier blsloader.Notifier) *blsloader.Handler {
	return &blsloader.Handler{
		Name:     name,
		URL:      url,
		Table:    schema.Periods,
		Notifier: notifier,
		Layout: blsloader.Layout{
			Header: true,
			Fields: []blsloader.Field{
				{Name: "period", Kind: blsloader.Text},
				{Name: "period_abbr", Kind: blsloader.Text},
				{Name: "period_name", Kind: blsloader.Text},
			},
		},
	}
}

// CUFootnote builds a handler for cu.footnote.
func CUFootnote(name, url string, notifier blsloader.Notifier) *blsloader.Handler {
	return &blsloader.Handler{
		Name:     name,
		URL:      url,
		Table:    schema.Footnotes,
		Notifier: notifier,
		Layout: blsloader.Layout{
			Header: true,
			Fields: []blsloader.Field{
				{Name: "footnote_code", Kind: blsloader.Text},
				{Name: "footnote_text", Kind: blsloader.Text},
			},
		},
	}
}
