// Package series decodes fixed-width BLS series identifiers into their positional fields.
package series

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field is one positional component of a series identifier.
type Field struct {
	Name  string
	Width int
}

// Layout is an ordered list of fields making up an identifier.
type Layout []Field

// CU is the layout of Consumer Price Index (All Urban Consumers) series identifiers.
//
//	CUUR0000SA0L1E
//	^^ prefix
//	  ^ seasonal
//	   ^ periodicity
//	    ^^^^ area_code
//	        ^ base_code
//	         ^^^^^^^ item_code
var CU = Layout{
	{Name: "prefix", Width: 2},
	{Name: "seasonal", Width: 1},
	{Name: "periodicity", Width: 1},
	{Name: "area_code", Width: 4},
	{Name: "base_code", Width: 1},
	{Name: "item_code", Width: 7},
}

// MalformedError is returned when a string does not fit a Layout.
type MalformedError struct {
	ID     string
	Want   int
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed series identifier %q (want %d characters): %s", e.ID, e.Want, e.Reason)
	}
	return fmt.Sprintf("malformed series identifier %q: length %d, want %d", e.ID, len(e.ID), e.Want)
}

// Width returns the total length of an identifier.
func (l Layout) Width() int {
	w := 0
	for _, f := range l {
		w += f.Width
	}
	return w
}

// Names returns field names in position order.
func (l Layout) Names() []string {
	names := make([]string, len(l))
	for i, f := range l {
		names[i] = f.Name
	}
	return names
}

// Key is a decoded identifier. Values are in layout order.
type Key struct {
	layout Layout
	values []string
}

// Decode splits id by position. id must be ASCII and exactly l.Width() long.
func (l Layout) Decode(id string) (Key, error) {
	want := l.Width()
	if !isASCII(id) {
		return Key{}, &MalformedError{ID: id, Want: want, Reason: "contains non-ASCII characters"}
	}
	if len(id) != want {
		return Key{}, &MalformedError{ID: id, Want: want}
	}

	values := make([]string, len(l))
	pos := 0
	for i, f := range l {
		raw := id[pos : pos+f.Width]
		pos += f.Width

		v := strings.TrimRightFunc(raw, unicode.IsSpace)
		if v == "" {
			return Key{}, &MalformedError{ID: id, Want: want, Reason: fmt.Sprintf("%s is blank", f.Name)}
		}
		if strings.IndexFunc(v, unicode.IsSpace) >= 0 {
			return Key{}, &MalformedError{ID: id, Want: want, Reason: fmt.Sprintf("%s contains whitespace", f.Name)}
		}
		values[i] = v
	}

	return Key{layout: l, values: values}, nil
}

// Normalize turns a padded or short identifier as published in source files into
// one of exactly l.Width() characters. Only the last field may end early.
func (l Layout) Normalize(raw string) (string, error) {
	want := l.Width()
	id := strings.TrimRightFunc(raw, unicode.IsSpace)

	if !isASCII(id) {
		return "", &MalformedError{ID: raw, Want: want, Reason: "contains non-ASCII characters"}
	}
	if len(id) > want {
		return "", &MalformedError{ID: raw, Want: want}
	}

	fixed := want
	if len(l) > 0 {
		fixed -= l[len(l)-1].Width
	}
	if len(id) <= fixed {
		return "", &MalformedError{ID: raw, Want: want}
	}

	return id + strings.Repeat(" ", want-len(id)), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Parse normalizes raw and decodes it.
func (l Layout) Parse(raw string) (Key, error) {
	id, err := l.Normalize(raw)
	if err != nil {
		return Key{}, err
	}
	return l.Decode(id)
}

// Get returns the value of the named field.
func (k Key) Get(name string) (string, bool) {
	for i, f := range k.layout {
		if f.Name == name {
			return k.values[i], true
		}
	}
	return "", false
}

// Values returns field values in position order.
func (k Key) Values() []string {
	out := make([]string, len(k.values))
	copy(out, k.values)
	return out
}

// Map returns field values keyed by field name.
func (k Key) Map() map[string]string {
	m := make(map[string]string, len(k.values))
	for i, f := range k.layout {
		m[f.Name] = k.values[i]
	}
	return m
}

// String re-pads every field to its width and joins them in position order.
func (k Key) String() string {
	var b strings.Builder
	for i, f := range k.layout {
		b.WriteString(k.values[i])
		b.WriteString(strings.Repeat(" ", f.Width-len(k.values[i])))
	}
	return b.String()
}
