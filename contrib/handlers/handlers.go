// Package handlers provides pre-configured handlers for the Consumer Price Index
// files published under https://download.bls.gov/pub/time.series/cu/.
package handlers

import (
	"context"
	"strings"

	"go.nownabe.dev/blsloader"
)

// BaseURL is the directory of the CPI-U (All Urban Consumers) files.
const BaseURL = "https://download.bls.gov/pub/time.series/cu/"

// DefaultDataFile holds the observations of every current series.
const DefaultDataFile = "cu.data.0.Current"

// FileURL joins baseURL and the name of a file in it.
func FileURL(baseURL, file string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + file
}

// CU returns handlers for the CPI-U files in load order: reference tables, then
// the series catalog, then observations. dataFiles defaults to DefaultDataFile.
func CU(baseURL string, notifier blsloader.Notifier, dataFiles ...string) []*blsloader.Handler {
	if len(dataFiles) == 0 {
		dataFiles = []string{DefaultDataFile}
	}

	hs := []*blsloader.Handler{
		CUArea("cu.area", FileURL(baseURL, "cu.area"), notifier),
		CUItem("cu.item", FileURL(baseURL, "cu.item"), notifier),
		CUPeriod("cu.period", FileURL(baseURL, "cu.period"), notifier),
		CUFootnote("cu.footnote", FileURL(baseURL, "cu.footnote"), notifier),
		CUSeries("cu.series", FileURL(baseURL, "cu.series"), notifier),
	}

	for _, f := range dataFiles {
		hs = append(hs, CUData(f, FileURL(baseURL, f), notifier))
	}

	return hs
}

// MustAddHandlers adds handlers to loader in order.
func MustAddHandlers(ctx context.Context, loader blsloader.BLSLoader, hs ...*blsloader.Handler) {
	for _, h := range hs {
		loader.MustAddHandler(ctx, h)
	}
}

// WithMirror sets m on every handler.
func WithMirror(hs []*blsloader.Handler, m blsloader.Mirror) []*blsloader.Handler {
	for _, h := range hs {
		h.Mirror = m
	}
	return hs
}
