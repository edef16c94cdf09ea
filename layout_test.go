package blsloader

import (
	"errors"
	"reflect"
	"testing"

	"go.nownabe.dev/blsloader/schema"
)

func TestLayout_Columns(t *testing.T) {
	l := Layout{Fields: []Field{
		{Name: "series_id", Kind: SeriesID},
		{Name: "area_code", Kind: Skip},
		{Name: "series_title", Kind: Text},
		{Name: "begin_year", Column: "first_year", Kind: Integer},
	}}

	expected := []string{
		"series_id", "prefix", "seasonal", "periodicity", "area_code", "base_code", "item_code",
		"series_title", "first_year",
	}

	if got := l.Columns(); !reflect.DeepEqual(expected, got) {
		t.Errorf("Columns() should be %v, but %v", expected, got)
	}
}

func TestLayout_Decode(t *testing.T) {
	cases := []struct {
		name   string
		fields []string
		check  func(t *testing.T, row schema.Row, err error)
	}{
		{
			name:   "ok",
			fields: []string{"CUSR0000SA0      ", " 2024", "M12", "  315.605", " 1"},
			check: func(t *testing.T, row schema.Row, err error) {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if row["seasonal"] != "S" || row["year"] != int64(2024) || row["value"] != 315.605 || row["footnote_codes"] != "1" {
					t.Errorf("unexpected row %v", row)
				}
			},
		},
		{
			name:   "too few fields",
			fields: []string{"CUSR0000SA0", "2024", "M12"},
			check: func(t *testing.T, _ schema.Row, err error) {
				var e *SchemaMismatchError
				if !errors.As(err, &e) {
					t.Errorf("error should be *SchemaMismatchError, but %v", err)
				}
			},
		},
		{
			name:   "bad year",
			fields: []string{"CUSR0000SA0", "20x4", "M12", "1", ""},
			check: func(t *testing.T, _ schema.Row, err error) {
				var e *ValueError
				if !errors.As(err, &e) || e.Field != "year" {
					t.Errorf("error should be *ValueError on year, but %v", err)
				}
			},
		},
		{
			name:   "short series id",
			fields: []string{"CUSR0000", "2024", "M12", "1", ""},
			check: func(t *testing.T, _ schema.Row, err error) {
				var e *MalformedIdentifierError
				if !errors.As(err, &e) {
					t.Errorf("error should be *MalformedIdentifierError, but %v", err)
				}
			},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			row, err := testDataLayout.Decode(c.fields)
			c.check(t, row, err)
		})
	}
}

func TestLayout_Decode_customMissing(t *testing.T) {
	l := Layout{
		Missing: []string{"n/a"},
		Fields: []Field{
			{Name: "value", Kind: Real},
		},
	}

	row, err := l.Decode([]string{"n/a"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if row["value"] != nil {
		t.Errorf("value should be nil, but %v", row["value"])
	}

	if _, err := l.Decode([]string{"-"}); err == nil {
		t.Error(`"-" should not be missing once Missing is set`)
	}
}

func TestLayout_CheckHeader(t *testing.T) {
	if err := testDataLayout.CheckHeader([]string{"SERIES_ID   ", "year", "period", "  value", "footnote_codes"}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	err := testDataLayout.CheckHeader([]string{"series_id", "year", "value", "period", "footnote_codes"})

	var e *SchemaMismatchError
	if !errors.As(err, &e) {
		t.Fatalf("error should be *SchemaMismatchError, but %v", err)
	}
	if e.Got[2] != "value" {
		t.Errorf(`Got[2] should be "value", but "%s"`, e.Got[2])
	}
}

func TestLayout_validate(t *testing.T) {
	if err := testDataLayout.validate(schema.Data); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	noKey := Layout{Fields: []Field{{Name: "area_name", Kind: Text}}}
	if err := noKey.validate(schema.Areas); err == nil {
		t.Error("layout without the key column should be invalid")
	}

	if err := (Layout{}).validate(schema.Areas); err == nil {
		t.Error("empty layout should be invalid")
	}
}

func TestLayout_Decode_realSyntax(t *testing.T) {
	l := Layout{Fields: []Field{{Name: "value", Kind: Real}}}

	valid := map[string]float64{
		"308.417":  308.417,
		"-1.5":     -1.5,
		"+2":       2,
		".5":       0.5,
		"5.":       5,
		"1.2e3":    1200,
		"1E-2":     0.01,
		"  42.0  ": 42,
	}
	for in, want := range valid {
		row, err := l.Decode([]string{in})
		if err != nil {
			t.Errorf("%q: Unexpected error: %v", in, err)
			continue
		}
		if row["value"] != want {
			t.Errorf("%q should decode to %v, but %v", in, want, row["value"])
		}
	}

	for _, in := range []string{"NaN", "nan", "Inf", "-Infinity", "0x1p-2", "1_000", "1e999", "1e", ".", "e5", "1.2.3"} {
		_, err := l.Decode([]string{in})

		var e *ValueError
		if !errors.As(err, &e) {
			t.Errorf("%q should be *ValueError, but %v", in, err)
		}
	}
}

func TestLayout_Decode_integerSyntax(t *testing.T) {
	l := Layout{Fields: []Field{{Name: "year", Kind: Integer}}}

	for _, in := range []string{"0x7e8", "2_024", "2024.0", "1e3"} {
		_, err := l.Decode([]string{in})

		var e *ValueError
		if !errors.As(err, &e) {
			t.Errorf("%q should be *ValueError, but %v", in, err)
		}
	}
}
