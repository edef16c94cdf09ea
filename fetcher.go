package blsloader

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// Fetcher retrieves the raw content of a source. Failures are *FetchError.
type Fetcher interface {
	Fetch(context.Context, Source) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(context.Context, Source) (io.ReadCloser, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, s Source) (io.ReadCloser, error) {
	return f(ctx, s)
}

// DefaultUserAgent is sent when HTTPFetcher.UserAgent is empty.
// download.bls.gov rejects requests without an identifying User-Agent.
const DefaultUserAgent = "blsloader (+https://go.nownabe.dev/blsloader)"

const (
	defaultAttempts = 3
	defaultBackoff  = 250 * time.Millisecond
)

// HTTPFetcher fetches http and https sources. Transport errors, 429 and 5xx responses
// are retried a few times in process; anything else fails immediately.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string

	// Attempts is the number of tries including the first one.
	Attempts int

	// Backoff is multiplied by the attempt number between tries.
	Backoff time.Duration
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, s Source) (io.ReadCloser, error) {
	l := log.Ctx(ctx)

	attempts := f.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := f.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	var lastErr *FetchError
	for attempt := 0; attempt < attempts; attempt++ {
		body, err := f.get(ctx, s)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !err.retryable() || attempt == attempts-1 {
			break
		}

		l.Warn().Err(err).Int("attempt", attempt+1).Msgf("retrying %s", s.URL)

		select {
		case <-ctx.Done():
			return nil, &FetchError{Source: s, Err: ctx.Err()}
		case <-time.After(time.Duration(attempt+1) * backoff):
		}
	}

	return nil, lastErr
}

func (f *HTTPFetcher) get(ctx context.Context, s Source) (io.ReadCloser, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &FetchError{Source: s, Err: xerrors.Errorf("failed to build http request: %w", err)}
	}

	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	c := f.Client
	if c == nil {
		c = http.DefaultClient
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, &FetchError{Source: s, Err: xerrors.Errorf("failed to send request: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			Source:     s,
			StatusCode: resp.StatusCode,
			Err:        xerrors.Errorf("unexpected response %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}

	return resp.Body, nil
}

func (e *FetchError) retryable() bool {
	if e.StatusCode == 0 {
		return !xerrors.Is(e.Err, context.Canceled) && !xerrors.Is(e.Err, context.DeadlineExceeded)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StorageFetcher fetches gs://bucket/object sources, e.g. copies of the
// published files mirrored into Cloud Storage.
type StorageFetcher struct {
	storage *storage.Client
}

// NewStorageFetcher builds a StorageFetcher with default credentials.
func NewStorageFetcher(ctx context.Context) (*StorageFetcher, error) {
	s, err := storage.NewClient(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to build storage client: %w", err)
	}

	return &StorageFetcher{storage: s}, nil
}

// Fetch implements Fetcher.
func (f *StorageFetcher) Fetch(ctx context.Context, s Source) (io.ReadCloser, error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(s.URL, "gs://"), "/")
	if !ok || bucket == "" || object == "" {
		return nil, &FetchError{Source: s, Err: xerrors.Errorf("invalid storage path: %s", s.URL)}
	}

	r, err := f.storage.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, &FetchError{Source: s, Err: xerrors.Errorf("failed to get reader of %s: %w", s.URL, err)}
	}
	log.Ctx(ctx).Debug().Msgf("object size = %d", r.Attrs.Size)

	return r, nil
}

// Close closes the storage client.
func (f *StorageFetcher) Close() error {
	return f.storage.Close()
}

// FileFetcher reads file:// URLs and bare paths from the local filesystem.
type FileFetcher struct{}

// Fetch implements Fetcher.
func (FileFetcher) Fetch(_ context.Context, s Source) (io.ReadCloser, error) {
	f, err := os.Open(strings.TrimPrefix(s.URL, "file://"))
	if err != nil {
		return nil, &FetchError{Source: s, Err: err}
	}
	return f, nil
}

// SchemeFetcher dispatches on the URL scheme of the source.
// A nil Storage is built on first use of a gs:// source and released by Close.
type SchemeFetcher struct {
	HTTP    Fetcher
	Storage Fetcher
	File    Fetcher

	mu         sync.Mutex
	built      io.Closer
	newStorage func(context.Context) (Fetcher, error)
}

// DefaultFetcher returns the fetcher used when none is configured.
func DefaultFetcher(userAgent string) *SchemeFetcher {
	return &SchemeFetcher{
		HTTP: &HTTPFetcher{UserAgent: userAgent},
		File: FileFetcher{},
	}
}

// Fetch implements Fetcher.
func (f *SchemeFetcher) Fetch(ctx context.Context, s Source) (io.ReadCloser, error) {
	switch s.Scheme() {
	case "http", "https":
		if f.HTTP != nil {
			return f.HTTP.Fetch(ctx, s)
		}
	case "gs":
		sf, err := f.storage(ctx)
		if err != nil {
			return nil, &FetchError{Source: s, Err: err}
		}
		return sf.Fetch(ctx, s)
	case "file":
		if f.File != nil {
			return f.File.Fetch(ctx, s)
		}
	}

	return nil, &FetchError{Source: s, Err: xerrors.Errorf("unsupported scheme %q", s.Scheme())}
}

func (f *SchemeFetcher) storage(ctx context.Context) (Fetcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Storage != nil {
		return f.Storage, nil
	}

	build := f.newStorage
	if build == nil {
		build = func(ctx context.Context) (Fetcher, error) {
			sf, err := NewStorageFetcher(ctx)
			if err != nil {
				return nil, err
			}
			return sf, nil
		}
	}

	sf, err := build(ctx)
	if err != nil {
		return nil, err
	}

	f.Storage = sf
	if c, ok := sf.(io.Closer); ok {
		f.built = c
	}

	return sf, nil
}

// Close releases the storage client built by Fetch. A Storage set by the
// caller is left open. The next gs:// source builds a new client.
func (f *SchemeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.built == nil {
		return nil
	}

	err := f.built.Close()
	f.built = nil
	f.Storage = nil
	if err != nil {
		return xerrors.Errorf("failed to close storage client: %w", err)
	}

	return nil
}
