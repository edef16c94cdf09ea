package blsloader

import (
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Option configures BLSLoader.
type Option interface {
	apply(*blsloader) error
}

type optionFunc func(*blsloader) error

func (f optionFunc) apply(l *blsloader) error {
	return f(l)
}

// WithPrettyLogging configures BLSLoader to print human friendly logs.
func WithPrettyLogging() Option {
	return optionFunc(func(l *blsloader) error {
		l.prettyLogging = true
		return nil
	})
}

// WithLogLevel sets the log level such as "debug", "info" or "warn".
func WithLogLevel(level string) Option {
	return optionFunc(func(l *blsloader) error {
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return xerrors.Errorf("invalid log level %q: %w", level, err)
		}
		l.logLevel = lvl
		return nil
	})
}

// WithLogger replaces the logger built from WithPrettyLogging and WithLogLevel.
func WithLogger(logger zerolog.Logger) Option {
	return optionFunc(func(l *blsloader) error {
		l.logger = &logger
		return nil
	})
}

// WithConcurrency sets how many sources may be fetched and parsed at once.
// Writes to the database are always sequential.
func WithConcurrency(n int) Option {
	return optionFunc(func(l *blsloader) error {
		if n < 1 {
			return xerrors.Errorf("concurrency must be positive: %d", n)
		}
		l.concurrency = n
		return nil
	})
}

// WithFetcher replaces the default fetcher.
func WithFetcher(f Fetcher) Option {
	return optionFunc(func(l *blsloader) error {
		l.fetcher = f
		return nil
	})
}

// WithUserAgent sets the User-Agent of the default HTTP fetcher.
// download.bls.gov asks for one that identifies the requester.
func WithUserAgent(ua string) Option {
	return optionFunc(func(l *blsloader) error {
		l.userAgent = ua
		return nil
	})
}

// WithRunNotifier sets a notifier called once at the end of every run.
func WithRunNotifier(n RunNotifier) Option {
	return optionFunc(func(l *blsloader) error {
		l.runNotifier = n
		return nil
	})
}
