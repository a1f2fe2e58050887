// Package fetch implements the retrying upstream GET used by every willowcast
// upstream call. The retry envelope is deliberately uniform: any failure in an
// attempt — transport error, non-2xx status, body decode, or a caller-supplied
// validation step — waits a fixed delay and retries, up to a fixed budget.
package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/cricbox/willowcast/internal/httpclient"
	"github.com/cricbox/willowcast/internal/metrics"
)

const (
	DefaultMaxAttempts = 5
	DefaultDelay       = 3 * time.Second

	maxBodyBytes = 16 << 20 // 16 MiB cap on any upstream body
)

// ErrBudgetExhausted is returned once every attempt has failed. The last
// attempt's error is wrapped alongside so errors.Is sees both.
var ErrBudgetExhausted = errors.New("fetch: retry budget exhausted")

// Options carries per-call request shape. The zero value is a plain GET.
type Options struct {
	Header  http.Header
	Cookies []*http.Cookie
	Query   url.Values

	// Timeout bounds a single attempt. 0 means the client's own timeout.
	Timeout time.Duration

	// Validate runs on the decoded body inside the attempt loop. A non-nil
	// return is treated exactly like a transport failure: logged, counted,
	// and retried.
	Validate func(body []byte) error
}

// Fetcher performs HTTP GETs with a fixed retry budget and fixed inter-attempt
// delay. Safe for concurrent use.
type Fetcher struct {
	Client      *http.Client
	MaxAttempts int
	Delay       time.Duration
}

// New returns a Fetcher with the default budget (5 attempts, 3s apart) on the
// shared client.
func New() *Fetcher {
	return &Fetcher{Client: httpclient.Default(), MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// Fetch GETs rawURL, retrying until a 2xx response with a decodable body that
// passes opts.Validate, or until the budget runs out.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) ([]byte, error) {
	attempts := f.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	client := f.Client
	if client == nil {
		client = httpclient.Default()
	}

	target := rawURL
	if len(opts.Query) > 0 {
		sep := "?"
		if u, err := url.Parse(rawURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target = rawURL + sep + opts.Query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := f.attempt(ctx, client, target, opts)
		if err == nil {
			metrics.FetchAttempts.WithLabelValues("ok").Inc()
			return body, nil
		}
		lastErr = err
		metrics.FetchAttempts.WithLabelValues("error").Inc()
		log.Printf("fetch: attempt %d/%d for %s failed: %v", attempt, attempts, rawURL, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrBudgetExhausted, attempt, lastErr)
		}
		if attempt < attempts {
			delay := f.Delay
			if delay < 0 {
				delay = 0
			}
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w after %d attempts: %w", ErrBudgetExhausted, attempt, lastErr)
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrBudgetExhausted, attempts, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, client *http.Client, target string, opts Options) ([]byte, error) {
	attemptCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, br")
	}
	for _, c := range opts.Cookies {
		req.AddCookie(c)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	if opts.Validate != nil {
		if err := opts.Validate(body); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// decodeBody reads the response body, undoing gzip or brotli content encoding.
func decodeBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		defer gz.Close()
		r = gz
	case "br":
		r = brotli.NewReader(resp.Body)
	}
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
