package blsloader

import (
	"fmt"
	"strings"

	"go.nownabe.dev/blsloader/series"
)

// FetchError is returned when a source cannot be retrieved.
type FetchError struct {
	Source     Source
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedIdentifierError is returned when a series identifier does not fit its layout.
type MalformedIdentifierError = series.MalformedError

// SchemaMismatchError is returned when a line or header does not match the layout
// of its source. It means the fixed schema no longer describes the file.
type SchemaMismatchError struct {
	Want []string
	Got  []string
}

func (e *SchemaMismatchError) Error() string {
	if len(e.Want) != len(e.Got) {
		return fmt.Sprintf("schema mismatch: %d fields, want %d (%s)", len(e.Got), len(e.Want), strings.Join(e.Want, ", "))
	}
	return fmt.Sprintf("schema mismatch: header [%s], want [%s]", strings.Join(e.Got, ", "), strings.Join(e.Want, ", "))
}

// ValueError is returned when a numeric field cannot be parsed and is not a missing-data sentinel.
type ValueError struct {
	Field string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("field %s: cannot parse %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// LineError locates a per-line failure in a source file. Line is 1-based and
// counts records produced by the parser.
type LineError struct {
	Source string
	Line   int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// DatabaseError is returned when the database cannot be opened, migrated or written.
type DatabaseError struct {
	Table string
	Op    string
	Err   error
}

func (e *DatabaseError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("database %s on %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// RunError is returned by Run when at least one source failed to load.
type RunError struct {
	Failed []*Result
}

func (e *RunError) Error() string {
	names := make([]string, len(e.Failed))
	for i, r := range e.Failed {
		names[i] = fmt.Sprintf("%s (%v)", r.Handler.Name, r.Error)
	}
	return fmt.Sprintf("%d source(s) failed: %s", len(e.Failed), strings.Join(names, "; "))
}
