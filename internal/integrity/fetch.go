package integrity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default fetch settings.
const (
	// DefaultTimeout bounds a single stylesheet download.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a response is read. Stylesheets
	// larger than this are truncated, which then fails verification.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies docsite in outgoing requests.
	DefaultUserAgent = "docsite (+https://github.com/nao1215/docsite)"
)

// Fetcher downloads external resources for integrity verification.
type Fetcher struct {
	client      *http.Client
	maxBodySize int64
	userAgent   string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client. Tests use it to talk to httptest servers.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithMaxBodySize sets the maximum number of bytes read from a response.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// NewFetcher creates a Fetcher with default settings.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: DefaultTimeout},
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads href and returns its body. Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, href string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", href, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", href, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", href, err)
	}
	return body, nil
}

// FetchAndVerify downloads href and verifies it against integrity metadata.
func (f *Fetcher) FetchAndVerify(ctx context.Context, href, metadata string) error {
	body, err := f.Fetch(ctx, href)
	if err != nil {
		return err
	}
	if err := Verify(body, metadata); err != nil {
		return fmt.Errorf("%s: %w", href, err)
	}
	return nil
}
