package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/nao1215/newscrawler/internal/retry"
)

// Default fetcher settings.
const (
	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	// DefaultUserAgent mimics a desktop browser. Several news sites refuse
	// requests that do not look like one.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Fetcher retrieves page text over HTTP.
//
// Design decision: We wrap every fetch in a retry policy inside the fetcher
// rather than at each call site because:
//  1. Homepage and article fetches share the same transient failure modes
//  2. The policy is built once from configuration
//  3. Callers only ever see the final attempt's error
type Fetcher struct {
	// client performs the requests. It is a private copy whose Timeout is
	// the per-attempt timeout.
	client  *http.Client
	timeout time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// policy controls retries of transient failures.
	policy retry.Policy

	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client. Useful for tests. The client is
// copied, so the timeout option never changes a shared client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRetryPolicy sets the retry policy. The policy's Retryable predicate is
// replaced with IsRetryable when unset.
func WithRetryPolicy(p retry.Policy) FetcherOption {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher with default settings.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		policy:      retry.DefaultPolicy(IsRetryable),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	client := *f.client
	client.Timeout = f.timeout
	f.client = &client

	if f.policy.Retryable == nil {
		f.policy.Retryable = IsRetryable
	}
	if f.policy.Logger == nil {
		f.policy.Logger = f.logger
	}

	return f
}

// Fetch returns the decoded text of the page at pageURL.
// Transient failures are retried; after the last attempt the final
// *NetworkError is returned.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	return retry.Do(ctx, f.policy, func(ctx context.Context) (string, error) {
		return f.fetchOnce(ctx, pageURL)
	})
}

// fetchOnce performs a single request attempt.
func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &NetworkError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Debug("unexpected response",
			"url", pageURL,
			"status", resp.StatusCode,
			"content_type", resp.Header.Get("Content-Type"),
		)
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return "", &NetworkError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", &NetworkError{URL: pageURL, Err: err}
	}

	return decode(body, resp.Header.Get("Content-Type")), nil
}

// setHeaders applies browser-like request headers.
func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// decode converts body to UTF-8 using the declared or sniffed charset.
// Undecodable input is returned as-is.
func decode(body []byte, contentType string) string {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return string(body)
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
