package blsloader

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/xerrors"

	"go.nownabe.dev/blsloader/schema"
)

var testDataLayout = Layout{
	Header: true,
	Fields: []Field{
		{Name: "series_id", Kind: SeriesID},
		{Name: "year", Kind: Integer},
		{Name: "period", Kind: Text},
		{Name: "value", Kind: Real},
		{Name: "footnote_codes", Kind: Text},
	},
}

var testAreaLayout = Layout{
	Header: true,
	Fields: []Field{
		{Name: "area_code", Kind: Text},
		{Name: "area_name", Kind: Text},
		{Name: "display_level", Kind: Integer},
		{Name: "selectable", Kind: Text},
		{Name: "sort_sequence", Kind: Integer},
	},
}

const testDataHeader = "series_id        \tyear\tperiod\t       value\tfootnote_codes\n"

const testDataFile = testDataHeader +
	"CUUR0000SA0      \t2024\tM01\t     308.417\t\n" +
	"CUUR0000SA0      \t2024\tM02\t     310.326\t\n" +
	"CUUR0000SA0L1E   \t2024\tM01\t     315.605\t\n"

const testAreaFile = "area_code\tarea_name\tdisplay_level\tselectable\tsort_sequence\n" +
	"0000\tU.S. city average\t0\tT\t1\n" +
	"0100\tNortheast\t0\tT\t5\n"

func testDataHandler(url string) *Handler {
	return &Handler{Name: "data", URL: url, Table: schema.Data, Layout: testDataLayout}
}

func testAreaHandler(url string) *Handler {
	return &Handler{Name: "area", URL: url, Table: schema.Areas, Layout: testAreaLayout}
}

type load struct {
	table string
	rows  []schema.Row
	info  LoadInfo
}

type testLoader struct {
	mu sync.Mutex

	loads     []load
	schemaErr error
	failTable string
	ensured   int
}

func newTestLoader() *testLoader {
	return &testLoader{}
}

func (l *testLoader) EnsureSchema(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensured++
	return l.schemaErr
}

func (l *testLoader) Load(_ context.Context, t *schema.Table, rows []schema.Row, info LoadInfo) (LoadStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.Name == l.failTable {
		return LoadStats{}, xerrors.New("disk full")
	}

	l.loads = append(l.loads, load{table: t.Name, rows: rows, info: info})

	return LoadStats{Inserted: len(rows)}, nil
}

func (l *testLoader) tables() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, len(l.loads))
	for i, ld := range l.loads {
		names[i] = ld.table
	}
	return names
}

type testNotifier struct {
	mu      sync.Mutex
	results []*Result
}

func newTestNotifier() *testNotifier {
	return &testNotifier{}
}

func (n *testNotifier) Notify(_ context.Context, r *Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.results = append(n.results, r)
	return nil
}

type testMirror struct {
	names []string
	err   error
}

func (m *testMirror) Mirror(_ context.Context, name string, _ *schema.Table, _ []schema.Row) error {
	m.names = append(m.names, name)
	return m.err
}

// newTestFetcher serves bodies by URL and answers 404 for anything else.
func newTestFetcher(files map[string]string) Fetcher {
	return FetcherFunc(func(_ context.Context, s Source) (io.ReadCloser, error) {
		body, ok := files[s.URL]
		if !ok {
			return nil, &FetchError{Source: s, StatusCode: http.StatusNotFound, Err: xerrors.New("not found")}
		}
		return io.NopCloser(strings.NewReader(body)), nil
	})
}
