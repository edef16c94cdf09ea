package blsloader

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/xerrors"
)

// Parser splits a source file into records of raw fields.
// Blank lines are dropped; nothing else is interpreted.
type Parser func(context.Context, io.Reader) ([][]string, error)

// TSVParser provides a parser for the tab separated files under /pub/time.series.
// Quotes are taken literally and records may have any number of fields.
func TSVParser() Parser {
	return DelimitedParser('\t')
}

// CSVParser provides a parser to parse CSV files.
func CSVParser() Parser {
	return func(_ context.Context, r io.Reader) ([][]string, error) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1

		records, err := cr.ReadAll()
		if err != nil {
			return nil, xerrors.Errorf("failed to read csv: %w", err)
		}

		return records, nil
	}
}

// DelimitedParser provides a parser for files whose fields are separated by sep.
func DelimitedParser(sep rune) Parser {
	return func(_ context.Context, r io.Reader) ([][]string, error) {
		records := [][]string{}

		s := bufio.NewScanner(r)
		s.Buffer(make([]byte, 64*1024), 1024*1024)

		for s.Scan() {
			line := strings.TrimRight(s.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			records = append(records, strings.Split(line, string(sep)))
		}

		if err := s.Err(); err != nil {
			return nil, xerrors.Errorf("failed to scan lines: %w", err)
		}

		return records, nil
	}
}

// FieldsParser provides a parser for files whose fields are separated by runs of whitespace.
func FieldsParser() Parser {
	return func(_ context.Context, r io.Reader) ([][]string, error) {
		records := [][]string{}

		s := bufio.NewScanner(r)
		for s.Scan() {
			fields := strings.Fields(s.Text())
			if len(fields) == 0 {
				continue
			}
			records = append(records, fields)
		}

		if err := s.Err(); err != nil {
			return nil, xerrors.Errorf("failed to scan lines: %w", err)
		}

		return records, nil
	}
}
