package blsloader

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// BLSLoader loads published time series files into a database.
type BLSLoader interface {
	AddHandler(context.Context, *Handler) error
	MustAddHandler(context.Context, *Handler)
	Run(context.Context, Loader) (*Report, error)
}

// Report summarizes a run.
type Report struct {
	RunID   string
	Results []*Result
	Elapsed time.Duration
}

// Failed returns the results of sources that were not loaded.
func (r *Report) Failed() []*Result {
	var failed []*Result
	for _, res := range r.Results {
		if res.Error != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Totals sums the stats of every loaded source.
func (r *Report) Totals() LoadStats {
	var total LoadStats
	for _, res := range r.Results {
		total = total.Add(res.Stats)
	}
	return total
}

// New builds a new BLSLoader.
func New(opts ...Option) (BLSLoader, error) {
	l := &blsloader{
		handlers:    []*Handler{},
		mu:          sync.RWMutex{},
		concurrency: 1,
		logLevel:    zerolog.InfoLevel,
	}

	for _, opt := range opts {
		if err := opt.apply(l); err != nil {
			return nil, err
		}
	}

	if l.logger == nil {
		var w io.Writer = os.Stderr
		if l.prettyLogging {
			w = zerolog.ConsoleWriter{Out: os.Stderr}
		}
		logger := zerolog.New(w).With().Timestamp().Logger().Level(l.logLevel)
		l.logger = &logger
	}

	if l.fetcher == nil {
		l.fetcher = DefaultFetcher(l.userAgent)
		l.ownsFetcher = true
	}

	return l, nil
}

type blsloader struct {
	handlers []*Handler
	mu       sync.RWMutex

	fetcher     Fetcher
	ownsFetcher bool
	runNotifier RunNotifier
	concurrency int
	userAgent   string

	logger        *zerolog.Logger
	logLevel      zerolog.Level
	prettyLogging bool
}

func (l *blsloader) AddHandler(_ context.Context, h *Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := h.validate(); err != nil {
		return xerrors.Errorf("invalid handler: %w", err)
	}

	if h.Parser == nil {
		h.Parser = TSVParser()
	}

	l.handlers = append(l.handlers, h)

	return nil
}

func (l *blsloader) MustAddHandler(ctx context.Context, h *Handler) {
	if err := l.AddHandler(ctx, h); err != nil {
		panic(err)
	}
}

// Run loads every source in the order handlers were added. Sources are fetched
// and parsed up to the configured concurrency ahead of the loading one; writes
// are strictly sequential. A failing source does not stop the others: Run then
// returns the report together with a *RunError. Only a database that cannot be
// prepared aborts the run.
func (l *blsloader) Run(ctx context.Context, db Loader) (*Report, error) {
	l.mu.RLock()
	handlers := append([]*Handler(nil), l.handlers...)
	l.mu.RUnlock()

	ctx = withRun(ctx)
	run, _ := runFrom(ctx)

	logger := l.logger.With().Str("run", run.id).Logger()
	ctx = logger.WithContext(ctx)
	lg := log.Ctx(ctx)

	lg.Info().Int("handlers", len(handlers)).Msg("loader started")

	if c, ok := l.fetcher.(io.Closer); ok && l.ownsFetcher {
		defer func() {
			if err := c.Close(); err != nil {
				lg.Warn().Err(err).Msg("failed to close fetcher")
			}
		}()
	}

	if err := db.EnsureSchema(ctx); err != nil {
		lg.Error().Err(err).Msg("failed to ensure schema")
		var dberr *DatabaseError
		if !xerrors.As(err, &dberr) {
			err = &DatabaseError{Op: "ensure schema", Err: err}
		}
		return nil, err
	}

	type prepared struct {
		b   *batch
		err error
	}

	// Unbuffered so that at most concurrency parsed files wait for the writer.
	ready := make([]chan prepared, len(handlers))
	for i := range ready {
		ready[i] = make(chan prepared)
	}

	var g errgroup.Group
	g.SetLimit(l.concurrency)

	go func() {
		for i, h := range handlers {
			i, h := i, h
			g.Go(func() error {
				b, err := h.prepare(h.withLogger(ctx), l.fetcher)
				ready[i] <- prepared{b: b, err: err}
				return nil
			})
		}
	}()

	report := &Report{RunID: run.id}
	for i, h := range handlers {
		p := <-ready[i]
		report.Results = append(report.Results, h.finish(h.withLogger(ctx), db, p.b, p.err))
	}

	_ = g.Wait()

	report.Elapsed = time.Since(run.started)

	total := report.Totals()
	failed := report.Failed()

	lg.Info().
		Int("inserted", total.Inserted).
		Int("updated", total.Updated).
		Int("unchanged", total.Unchanged).
		Int("failed", len(failed)).
		Dur("elapsed", report.Elapsed).
		Msg("loader finished")

	if l.runNotifier != nil {
		if err := l.runNotifier.NotifyRun(ctx, report); err != nil {
			lg.Error().Err(err).Msg("failed to notify run")
		}
	}

	if len(failed) > 0 {
		return report, &RunError{Failed: failed}
	}

	return report, nil
}
