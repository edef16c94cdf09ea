package blsloader

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoader(t *testing.T) {
	ctx := context.Background()

	tl := newTestLoader()
	tn := newTestNotifier()

	loader, err := New(
		WithPrettyLogging(),
		WithLogLevel("debug"),
		WithConcurrency(2),
		WithFetcher(newTestFetcher(map[string]string{
			"https://example.com/cu.area":   testAreaFile,
			"https://example.com/cu.data.0": testDataFile,
		})),
	)
	if err != nil {
		t.Fatal(err)
	}

	area := testAreaHandler("https://example.com/cu.area")
	area.Notifier = tn
	data := testDataHandler("https://example.com/cu.data.0")
	data.Notifier = tn

	loader.MustAddHandler(ctx, area)
	loader.MustAddHandler(ctx, data)

	report, err := loader.Run(ctx, tl)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if tl.ensured != 1 {
		t.Errorf("EnsureSchema should be called once, but %d", tl.ensured)
	}

	tables := tl.tables()
	if len(tables) != 2 || tables[0] != "areas" || tables[1] != "data" {
		t.Fatalf("loads should be [areas data], but %v", tables)
	}

	if len(report.Results) != 2 {
		t.Fatalf("report should have 2 results, but %d", len(report.Results))
	}

	if report.RunID == "" {
		t.Error("run id should be set")
	}

	if got := report.Totals().Inserted; got != 5 {
		t.Errorf("total inserted should be 5, but %d", got)
	}

	if len(tn.results) != 2 {
		t.Errorf("notifier should be called twice, but %d", len(tn.results))
	}

	info := tl.loads[1].info
	if info.Source != "https://example.com/cu.data.0" {
		t.Errorf(`load source should be "https://example.com/cu.data.0", but "%s"`, info.Source)
	}
	if len(info.Checksum) != 64 {
		t.Errorf("checksum should be a sha256 hex digest, but %q", info.Checksum)
	}
}

func TestLoader_fetchFailure(t *testing.T) {
	ctx := context.Background()
	tl := newTestLoader()

	loader, err := New(
		WithLogLevel("disabled"),
		WithFetcher(newTestFetcher(map[string]string{
			"https://example.com/cu.data.0": testDataFile,
		})),
	)
	if err != nil {
		t.Fatal(err)
	}

	loader.MustAddHandler(ctx, testAreaHandler("https://example.com/missing"))
	loader.MustAddHandler(ctx, testDataHandler("https://example.com/cu.data.0"))

	report, err := loader.Run(ctx, tl)

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("error should be *RunError, but %v", err)
	}

	if len(runErr.Failed) != 1 || runErr.Failed[0].Handler.Name != "area" {
		t.Fatalf("only area should fail, but %v", runErr)
	}

	var fetchErr *FetchError
	if !errors.As(runErr.Failed[0].Error, &fetchErr) {
		t.Fatalf("failure should be *FetchError, but %v", runErr.Failed[0].Error)
	}
	if fetchErr.StatusCode != 404 {
		t.Errorf("status code should be 404, but %d", fetchErr.StatusCode)
	}

	tables := tl.tables()
	if len(tables) != 1 || tables[0] != "data" {
		t.Errorf("data should still be loaded, but %v", tables)
	}

	if report == nil || len(report.Failed()) != 1 {
		t.Errorf("report should list one failure")
	}
}

func TestLoader_databaseFailure(t *testing.T) {
	ctx := context.Background()

	tl := newTestLoader()
	tl.failTable = "areas"

	loader, err := New(
		WithLogLevel("disabled"),
		WithFetcher(newTestFetcher(map[string]string{
			"https://example.com/cu.area":   testAreaFile,
			"https://example.com/cu.data.0": testDataFile,
		})),
	)
	if err != nil {
		t.Fatal(err)
	}

	loader.MustAddHandler(ctx, testAreaHandler("https://example.com/cu.area"))
	loader.MustAddHandler(ctx, testDataHandler("https://example.com/cu.data.0"))

	report, err := loader.Run(ctx, tl)
	if err == nil {
		t.Fatal("expected error but no error occurred")
	}

	var dbErr *DatabaseError
	if !errors.As(report.Results[0].Error, &dbErr) {
		t.Fatalf("failure should be *DatabaseError, but %v", report.Results[0].Error)
	}
	if dbErr.Table != "areas" {
		t.Errorf(`table should be "areas", but "%s"`, dbErr.Table)
	}

	if report.Results[1].Error != nil {
		t.Errorf("data should be loaded, but %v", report.Results[1].Error)
	}
}

func TestLoader_schemaFailure(t *testing.T) {
	ctx := context.Background()

	tl := newTestLoader()
	tl.schemaErr = errors.New("database is locked")

	var fetched int32
	f := FetcherFunc(func(context.Context, Source) (io.ReadCloser, error) {
		atomic.AddInt32(&fetched, 1)
		return io.NopCloser(strings.NewReader(testAreaFile)), nil
	})

	loader, err := New(WithLogLevel("disabled"), WithFetcher(f))
	if err != nil {
		t.Fatal(err)
	}
	loader.MustAddHandler(ctx, testAreaHandler("https://example.com/cu.area"))

	report, err := loader.Run(ctx, tl)

	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("error should be *DatabaseError, but %v", err)
	}

	if report != nil {
		t.Error("report should be nil when the run aborts")
	}

	if atomic.LoadInt32(&fetched) != 0 {
		t.Error("nothing should be fetched when the schema cannot be ensured")
	}
}

func TestLoader_concurrencyKeepsOrder(t *testing.T) {
	ctx := context.Background()
	tl := newTestLoader()

	// Earlier sources are slower so that they finish parsing last.
	delays := map[string]time.Duration{
		"https://example.com/a": 60 * time.Millisecond,
		"https://example.com/b": 30 * time.Millisecond,
		"https://example.com/c": 0,
	}
	f := FetcherFunc(func(ctx context.Context, s Source) (io.ReadCloser, error) {
		time.Sleep(delays[s.URL])
		return io.NopCloser(strings.NewReader(testAreaFile)), nil
	})

	loader, err := New(WithLogLevel("disabled"), WithFetcher(f), WithConcurrency(3))
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"a", "b", "c"} {
		h := testAreaHandler("https://example.com/" + name)
		h.Name = name
		loader.MustAddHandler(ctx, h)
	}

	report, err := loader.Run(ctx, tl)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i, name := range []string{"a", "b", "c"} {
		if got := report.Results[i].Handler.Name; got != name {
			t.Errorf("results[%d] should be %s, but %s", i, name, got)
		}
		if got := tl.loads[i].info.Source; got != "https://example.com/"+name {
			t.Errorf("loads[%d] should come from %s, but %s", i, name, got)
		}
	}
}

func TestNew_invalidOptions(t *testing.T) {
	if _, err := New(WithConcurrency(0)); err == nil {
		t.Error("expected error for concurrency 0")
	}

	if _, err := New(WithLogLevel("loud")); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestAddHandler_invalid(t *testing.T) {
	loader, err := New(WithLogLevel("disabled"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	cases := map[string]*Handler{
		"no name": {URL: "https://example.com/x", Table: testAreaHandler("").Table, Layout: testAreaLayout},
		"no url":  testAreaHandler(""),
		"no table": {
			Name:   "area",
			URL:    "https://example.com/x",
			Layout: testAreaLayout,
		},
		"column not in table": {
			Name:   "area",
			URL:    "https://example.com/x",
			Table:  testDataHandler("").Table,
			Layout: testAreaLayout,
		},
	}

	for name, h := range cases {
		if err := loader.AddHandler(ctx, h); err == nil {
			t.Errorf("%s: expected error but no error occurred", name)
		}
	}
}

func TestAddHandler_defaultParser(t *testing.T) {
	loader, err := New(WithLogLevel("disabled"))
	if err != nil {
		t.Fatal(err)
	}

	h := testAreaHandler("https://example.com/cu.area")
	if err := loader.AddHandler(context.Background(), h); err != nil {
		t.Fatal(err)
	}

	if h.Parser == nil {
		t.Error("parser should default to TSVParser")
	}
}
