package blsloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/xerrors"

	"go.nownabe.dev/blsloader/schema"
)

// maxIssues bounds the line errors kept in a Result and logged one by one.
const maxIssues = 100

// Handler defines how one source file is loaded into one table.
type Handler struct {
	// Name is the handler's name used in logs, notifications and the load log.
	Name string

	// URL of the source file. http(s)://, gs:// and file:// are understood by the default fetcher.
	URL string

	Table    *schema.Table
	Layout   Layout
	Encoding encoding.Encoding

	// Parser defaults to TSVParser.
	Parser    Parser
	Projector Projector

	SkipLeadingRows int

	// Strict aborts the file on the first bad line. By default bad lines are
	// skipped, logged and counted, and the remaining lines are loaded.
	Strict bool

	Notifier Notifier
	Mirror   Mirror
}

// Projector transforms a decoded row before it is loaded.
// Returning a nil row skips the line.
type Projector func(context.Context, schema.Row) (schema.Row, error)

// Source returns the source file of the handler.
func (h *Handler) Source() Source {
	return Source{Name: h.Name, URL: h.URL}
}

func (h *Handler) validate() error {
	if h.Name == "" {
		return xerrors.New("handler name is empty")
	}
	if h.URL == "" {
		return xerrors.Errorf("[%s] url is empty", h.Name)
	}
	if h.Table == nil {
		return xerrors.Errorf("[%s] table is nil", h.Name)
	}
	if err := h.Table.Validate(); err != nil {
		return xerrors.Errorf("[%s] %w", h.Name, err)
	}
	if err := h.Layout.validate(h.Table); err != nil {
		return xerrors.Errorf("[%s] %w", h.Name, err)
	}
	return nil
}

func (h *Handler) withLogger(ctx context.Context) context.Context {
	l := log.Ctx(ctx).With().Str("handler", h.Name).Logger()
	return l.WithContext(ctx)
}

// batch is a parsed source file ready to be loaded.
type batch struct {
	rows     []schema.Row
	checksum string
	rejected int
	issues   []error
}

func (b *batch) reject(err error) {
	b.rejected++
	if len(b.issues) < maxIssues {
		b.issues = append(b.issues, err)
	}
}

// Handle fetches, parses and loads the source file of h.
func (h *Handler) Handle(ctx context.Context, f Fetcher, db Loader) *Result {
	ctx = h.withLogger(ctx)
	b, err := h.prepare(ctx, f)
	return h.finish(ctx, db, b, err)
}

func (h *Handler) prepare(ctx context.Context, f Fetcher) (*batch, error) {
	l := log.Ctx(ctx)
	src := h.Source()

	l.Debug().Msgf("fetching %s", h.URL)

	body, err := f.Fetch(ctx, src)
	if err != nil {
		var ferr *FetchError
		if !errors.As(err, &ferr) {
			err = &FetchError{Source: src, Err: err}
		}
		return nil, err
	}
	defer body.Close()

	hash := sha256.New()
	raw := io.TeeReader(body, hash)

	r := raw
	if h.Encoding != nil {
		r = transform.NewReader(raw, h.Encoding.NewDecoder())
	}

	parser := h.Parser
	if parser == nil {
		parser = TSVParser()
	}

	records, err := parser(ctx, r)
	if err != nil {
		l.Error().Err(err).Msg("failed to parse source")
		return nil, xerrors.Errorf("failed to parse %s: %w", h.URL, err)
	}

	if _, err := io.Copy(io.Discard, raw); err != nil {
		return nil, &FetchError{Source: src, Err: xerrors.Errorf("failed to read body: %w", err)}
	}

	b := &batch{checksum: hex.EncodeToString(hash.Sum(nil))}

	if h.SkipLeadingRows >= len(records) {
		records = nil
	} else {
		records = records[h.SkipLeadingRows:]
	}

	for i, rec := range records {
		line := i + 1 + h.SkipLeadingRows

		if i == 0 && h.Layout.Header {
			if err := h.Layout.CheckHeader(rec); err != nil {
				l.Error().Err(err).Int("line", line).Msg("header does not match layout")
				return nil, &LineError{Source: h.Name, Line: line, Err: err}
			}
			continue
		}

		if h.Layout.IsHeader(rec) {
			continue
		}

		row, err := h.project(ctx, rec)
		if err != nil {
			lerr := &LineError{Source: h.Name, Line: line, Err: err}
			if h.Strict {
				l.Error().Err(lerr).Msg("aborting on bad line")
				return nil, lerr
			}

			b.reject(lerr)
			if b.rejected <= maxIssues {
				var mismatch *SchemaMismatchError
				if errors.As(err, &mismatch) {
					l.Error().Err(lerr).Msg("skipped line")
				} else {
					l.Warn().Err(lerr).Msg("skipped line")
				}
			}
			continue
		}

		if row == nil {
			continue
		}

		b.rows = append(b.rows, row)
	}

	l.Debug().Int("rows", len(b.rows)).Int("rejected", b.rejected).Msg("parsed source")

	return b, nil
}

func (h *Handler) project(ctx context.Context, rec []string) (schema.Row, error) {
	row, err := h.Layout.Decode(rec)
	if err != nil {
		return nil, err
	}

	if h.Projector == nil {
		return row, nil
	}

	row, err = h.Projector(ctx, row)
	if err != nil {
		return nil, xerrors.Errorf("failed to project: %w", err)
	}

	return row, nil
}

func (h *Handler) finish(ctx context.Context, db Loader, b *batch, err error) *Result {
	l := log.Ctx(ctx)
	started := time.Now()

	res := &Result{Source: h.Source(), Handler: h, Error: err}

	if err == nil {
		res.Checksum = b.checksum
		res.Rejected = b.rejected
		res.Issues = b.issues

		info := LoadInfo{Source: h.URL, Checksum: b.checksum, Rejected: b.rejected}
		res.Stats, res.Error = h.load(ctx, db, b.rows, info)
	}

	if res.Error != nil {
		l.Error().Err(res.Error).Msgf("failed to load %s", h.URL)
	} else {
		l.Info().
			Str("table", h.Table.Name).
			Int("inserted", res.Stats.Inserted).
			Int("updated", res.Stats.Updated).
			Int("unchanged", res.Stats.Unchanged).
			Int("rejected", res.Rejected).
			Dur("elapsed", time.Since(started)).
			Msgf("loaded %s", h.URL)

		if h.Mirror != nil {
			if err := h.Mirror.Mirror(ctx, h.Name, h.Table, b.rows); err != nil {
				l.Error().Err(err).Msg("failed to mirror")
				res.MirrorError = err
			}
		}
	}

	if h.Notifier != nil {
		if err := h.Notifier.Notify(ctx, res); err != nil {
			l.Error().Err(err).Msg("failed to notify")
		}
	}

	return res
}

func (h *Handler) load(ctx context.Context, db Loader, rows []schema.Row, info LoadInfo) (LoadStats, error) {
	stats, err := db.Load(ctx, h.Table, rows, info)
	if err != nil {
		var dberr *DatabaseError
		if !errors.As(err, &dberr) {
			err = &DatabaseError{Table: h.Table.Name, Op: "upsert", Err: err}
		}
		return LoadStats{}, err
	}

	return stats, nil
}
