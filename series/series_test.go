package series_test

import (
	"errors"
	"strings"
	"testing"

	"go.nownabe.dev/blsloader/series"
)

func TestCU_Parse(t *testing.T) {
	t.Parallel()

	k, err := series.CU.Parse("CUUR0000SA0L1E")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := map[string]string{
		"prefix":      "CU",
		"seasonal":    "U",
		"periodicity": "R",
		"area_code":   "0000",
		"base_code":   "S",
		"item_code":   "A0L1E",
	}

	for name, want := range expected {
		got, ok := k.Get(name)
		if !ok {
			t.Errorf("field %s not found", name)
			continue
		}
		if got != want {
			t.Errorf("%s should be %q, but %q", name, want, got)
		}
	}
}

func TestCU_RoundTrip(t *testing.T) {
	t.Parallel()

	ids := []string{
		"CUUR0000SA0L1E  ",
		"CUSR0000SA0     ",
		"CUUR0100SEHF01  ",
		"CUURS49ASAF11   ",
		"CUUSA101SETB01 ",
		"CUURN000SAA1234",
	}

	for _, raw := range ids {
		raw := raw
		id := raw + strings.Repeat(" ", series.CU.Width()-len(raw))

		t.Run(id, func(t *testing.T) {
			t.Parallel()

			k, err := series.CU.Decode(id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if k.String() != id {
				t.Errorf("round trip should give %q, but %q", id, k.String())
			}

			if strings.Join(k.Values(), "") != strings.ReplaceAll(id, " ", "") {
				t.Errorf("values %v do not match %q", k.Values(), id)
			}
		})
	}
}

func TestCU_Decode_wrongLength(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"CUUR0000SA0L1E",
		"CUUR0000SA0L1E ",
		"CUUR0000SA0L1E   ",
		"CUUR0000SA0L1E12345",
	}

	for _, id := range cases {
		_, err := series.CU.Decode(id)

		var merr *series.MalformedError
		if !errors.As(err, &merr) {
			t.Errorf("Decode(%q) should fail with MalformedError, but %v", id, err)
			continue
		}

		if merr.Want != 16 {
			t.Errorf("expected length should be 16, but %d", merr.Want)
		}
		if merr.ID != id {
			t.Errorf("error should name %q, but %q", id, merr.ID)
		}
	}
}

func TestCU_Decode_blankField(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"CUUR    SA0     ", "CU R0000SA0     ", "CUUR0000SA 0    "} {
		var merr *series.MalformedError
		if _, err := series.CU.Decode(id); !errors.As(err, &merr) {
			t.Errorf("Decode(%q) should fail with MalformedError, but %v", id, err)
		}
	}
}

func TestCU_Normalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "CUUR0000SA0L1E", want: "CUUR0000SA0L1E  "},
		{raw: "CUUR0000SA0      ", want: "CUUR0000SA0     "},
		{raw: "CUUR0000SA0\t", want: "CUUR0000SA0     "},
		{raw: "CUUR0000S", wantErr: true},
		{raw: "CUUR", wantErr: true},
		{raw: "CUUR0000SA0L1E1234", wantErr: true},
	}

	for _, c := range cases {
		got, err := series.CU.Normalize(c.raw)
		if c.wantErr {
			var merr *series.MalformedError
			if !errors.As(err, &merr) {
				t.Errorf("Normalize(%q) should fail with MalformedError, but %v", c.raw, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("Normalize(%q) unexpected error: %v", c.raw, err)
			continue
		}
		if got != c.want {
			t.Errorf("Normalize(%q) should be %q, but %q", c.raw, c.want, got)
		}
	}
}

func TestLayout_Width(t *testing.T) {
	t.Parallel()

	if w := series.CU.Width(); w != 16 {
		t.Errorf("width should be 16, but %d", w)
	}

	names := series.CU.Names()
	if len(names) != 6 || names[0] != "prefix" || names[5] != "item_code" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestCU_nonASCII(t *testing.T) {
	t.Parallel()

	// 16 bytes but 15 characters.
	id := "CUUR0000SAéL1E "
	if len(id) != series.CU.Width() {
		t.Fatalf("fixture should be %d bytes, but %d", series.CU.Width(), len(id))
	}

	var merr *series.MalformedError
	if _, err := series.CU.Decode(id); !errors.As(err, &merr) {
		t.Fatalf("Decode(%q) should fail with MalformedError, but %v", id, err)
	}
	if !strings.Contains(merr.Reason, "non-ASCII") {
		t.Errorf("Reason should mention non-ASCII, but %q", merr.Reason)
	}

	for _, raw := range []string{"CUUR0000SA0é", "CUUR0000SAéL1E", "ＣUUR0000SA0"} {
		if _, err := series.CU.Parse(raw); !errors.As(err, &merr) {
			t.Errorf("Parse(%q) should fail with MalformedError, but %v", raw, err)
		}
	}
}
