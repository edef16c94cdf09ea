package blsloader

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"go.nownabe.dev/blsloader/schema"
	"go.nownabe.dev/blsloader/series"
)

// Kind tells how a source field is decoded.
type Kind int

// Field kinds.
const (
	// Text is stored trimmed.
	Text Kind = iota

	// Integer is parsed as a base 10 int64.
	Integer

	// Real is parsed as a float64.
	Real

	// SeriesID is stored trimmed and also decoded into one column per series field.
	SeriesID

	// Skip is present in the file but not stored.
	Skip
)

// DefaultMissing are the values published in place of an unavailable number.
var DefaultMissing = []string{"", "-", "(NA)"}

// Field is a column of a source file.
type Field struct {
	// Name is the header name of the field in the source file.
	Name string

	// Column is the destination column. Defaults to Name.
	Column string

	Kind Kind

	// Series is the identifier layout of a SeriesID field. Defaults to series.CU.
	Series series.Layout
}

func (f Field) column() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

func (f Field) series() series.Layout {
	if f.Series != nil {
		return f.Series
	}
	return series.CU
}

// Layout is the fixed column layout of a source file.
type Layout struct {
	Fields []Field

	// Header is set when the file starts with a header line.
	Header bool

	// Missing overrides DefaultMissing.
	Missing []string
}

// Names returns the header names of the fields.
func (l Layout) Names() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

// Columns returns every destination column Decode writes.
func (l Layout) Columns() []string {
	var cols []string
	for _, f := range l.Fields {
		switch f.Kind {
		case Skip:
		case SeriesID:
			cols = append(cols, f.column())
			cols = append(cols, f.series().Names()...)
		default:
			cols = append(cols, f.column())
		}
	}
	return cols
}

// IsHeader reports whether fields is the header line of the layout.
func (l Layout) IsHeader(fields []string) bool {
	if len(fields) != len(l.Fields) {
		return false
	}
	for i, f := range l.Fields {
		if !strings.EqualFold(strings.TrimSpace(fields[i]), f.Name) {
			return false
		}
	}
	return true
}

// CheckHeader verifies a header line. It fails with *SchemaMismatchError when
// the file no longer has the expected columns.
func (l Layout) CheckHeader(fields []string) error {
	if l.IsHeader(fields) {
		return nil
	}

	got := make([]string, len(fields))
	for i, f := range fields {
		got[i] = strings.TrimSpace(f)
	}

	return &SchemaMismatchError{Want: l.Names(), Got: got}
}

// Decode converts the raw fields of one line into a row.
func (l Layout) Decode(fields []string) (schema.Row, error) {
	if len(fields) != len(l.Fields) {
		return nil, &SchemaMismatchError{Want: l.Names(), Got: fields}
	}

	row := make(schema.Row, len(l.Fields))

	for i, f := range l.Fields {
		v := strings.TrimSpace(fields[i])

		switch f.Kind {
		case Skip:
		case Text:
			row[f.column()] = v
		case Integer:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				if !l.missing(v) {
					return nil, &ValueError{Field: f.Name, Value: v, Err: err}
				}
				row[f.column()] = nil
				continue
			}
			row[f.column()] = n
		case Real:
			x, err := parseReal(v)
			if err != nil {
				if !l.missing(v) {
					return nil, &ValueError{Field: f.Name, Value: v, Err: err}
				}
				row[f.column()] = nil
				continue
			}
			row[f.column()] = x
		case SeriesID:
			key, err := f.series().Parse(v)
			if err != nil {
				return nil, err
			}
			row[f.column()] = v
			for name, part := range key.Map() {
				row[name] = part
			}
		default:
			return nil, xerrors.Errorf("field %s has unknown kind %d", f.Name, f.Kind)
		}
	}

	return row, nil
}

var (
	errNotDecimal = xerrors.New("not a decimal number")
	errNotFinite  = xerrors.New("not a finite number")
)

// parseReal accepts plain decimal notation only. strconv.ParseFloat alone would
// also take NaN, Inf, hex floats and digit separators.
func parseReal(v string) (float64, error) {
	if !isDecimal(v) {
		return 0, errNotDecimal
	}

	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, errNotFinite
	}

	return x, nil
}

// isDecimal reports whether v is [+-]digits[.digits][(e|E)[+-]digits] with at
// least one mantissa digit.
func isDecimal(v string) bool {
	i := 0
	if i < len(v) && (v[i] == '+' || v[i] == '-') {
		i++
	}

	digits := 0
	for ; i < len(v) && v[i] >= '0' && v[i] <= '9'; i++ {
		digits++
	}
	if i < len(v) && v[i] == '.' {
		i++
		for ; i < len(v) && v[i] >= '0' && v[i] <= '9'; i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}

	if i < len(v) && (v[i] == 'e' || v[i] == 'E') {
		i++
		if i < len(v) && (v[i] == '+' || v[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(v) && v[i] >= '0' && v[i] <= '9'; i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}

	return i == len(v)
}

func (l Layout) missing(v string) bool {
	sentinels := l.Missing
	if sentinels == nil {
		sentinels = DefaultMissing
	}
	for _, s := range sentinels {
		if v == s {
			return true
		}
	}
	return false
}

func (l Layout) validate(t *schema.Table) error {
	if len(l.Fields) == 0 {
		return xerrors.New("layout has no fields")
	}
	for _, c := range l.Columns() {
		if _, ok := t.Column(c); !ok {
			return xerrors.Errorf("column %s is not in table %s", c, t.Name)
		}
	}
	for _, k := range t.Key {
		found := false
		for _, c := range l.Columns() {
			if c == k {
				found = true
				break
			}
		}
		if !found {
			return xerrors.Errorf("key column %s of table %s is not filled by the layout", k, t.Name)
		}
	}
	return nil
}
