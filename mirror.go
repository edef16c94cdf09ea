package blsloader

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"

	"go.nownabe.dev/blsloader/schema"
)

// Mirror copies a successfully loaded file elsewhere. Mirrors never affect the database.
type Mirror interface {
	Mirror(ctx context.Context, name string, table *schema.Table, rows []schema.Row) error
}

// BigQueryMirror replaces a BigQuery table per handler with the rows of the latest file.
type BigQueryMirror struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
}

// NewBigQueryMirror builds a mirror into project.dataset.
func NewBigQueryMirror(ctx context.Context, project, dataset string) (*BigQueryMirror, error) {
	bq, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, xerrors.Errorf("failed to build bigquery client for %s: %w", project, err)
	}

	return &BigQueryMirror{client: bq, dataset: bq.Dataset(dataset)}, nil
}

// Close closes the BigQuery client.
func (m *BigQueryMirror) Close() error {
	return m.client.Close()
}

// Mirror implements Mirror.
func (m *BigQueryMirror) Mirror(ctx context.Context, name string, table *schema.Table, rows []schema.Row) error {
	l := log.Ctx(ctx)

	buf, err := encodeCSV(table, rows)
	if err != nil {
		return err
	}

	rs := bigquery.NewReaderSource(buf)
	rs.Schema = bigQuerySchema(table)

	loader := m.dataset.Table(bigQueryTableID(name)).LoaderFrom(rs)
	loader.WriteDisposition = bigquery.WriteTruncate
	loader.CreateDisposition = bigquery.CreateIfNeeded

	job, err := loader.Run(ctx)
	if err != nil {
		return xerrors.Errorf("failed to run bigquery load job: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return xerrors.Errorf("failed to wait job: %w", err)
	}

	if status.Err() != nil {
		l.Error().Msgf("failed to load csv: %v", status.Errors)
		return xerrors.Errorf("bigquery load job failed: %w", status.Err())
	}

	return nil
}

func encodeCSV(table *schema.Table, rows []schema.Row) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	record := make([]string, len(table.Columns))
	for _, row := range rows {
		for i, c := range table.Columns {
			record[i] = formatValue(row[c.Name])
		}
		if err := w.Write(record); err != nil {
			return nil, xerrors.Errorf("failed to write csv: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, xerrors.Errorf("failed to write csv: %w", err)
	}

	return buf, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func bigQuerySchema(table *schema.Table) bigquery.Schema {
	s := make(bigquery.Schema, len(table.Columns))
	for i, c := range table.Columns {
		ft := bigquery.StringFieldType
		switch c.Type {
		case schema.Integer:
			ft = bigquery.IntegerFieldType
		case schema.Real:
			ft = bigquery.FloatFieldType
		}
		s[i] = &bigquery.FieldSchema{Name: c.Name, Type: ft, Required: c.NotNull}
	}
	return s
}

// bigQueryTableID turns a handler name such as "cu.data.0.Current" into "cu_data_0_Current".
func bigQueryTableID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}
