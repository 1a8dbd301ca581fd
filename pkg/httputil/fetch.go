package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/geodetic-io/cartograph/pkg/cache"
	carterr "github.com/geodetic-io/cartograph/pkg/errors"
	"github.com/geodetic-io/cartograph/pkg/observability"
)

// maxSourceSize caps how much of a remote source Fetch will read. GeoJSON
// for a detailed world map runs to tens of megabytes; anything past this
// is more likely a misconfigured URL than map data.
const maxSourceSize = 256 << 20 // 256 MiB

// transientError marks a fetch failure worth another attempt: network
// errors, 5xx responses, and rate limits. Anything else (a missing file,
// a bad URL, an auth wall) will not get better by asking again.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	return errors.As(err, new(*transientError))
}

// Client fetches remote map sources with caching and retry.
type Client struct {
	http  *http.Client
	cache cache.Cache
	ttl   time.Duration

	// attempts and baseDelay shape the retry schedule for transient
	// failures; the delay doubles after each failed attempt.
	attempts  int
	baseDelay time.Duration
}

// NewClient creates a Client. A nil hc uses a default client with a 30
// second timeout; a nil c disables caching.
func NewClient(hc *http.Client, c cache.Cache, ttl time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:      hc,
		cache:     c,
		ttl:       ttl,
		attempts:  3,
		baseDelay: time.Second,
	}
}

// Fetch retrieves the resource at rawURL, serving from the cache when a
// fresh entry exists. Transient failures are retried with backoff; a 404
// maps to a FILE_NOT_FOUND error so callers can treat remote and local
// sources uniformly.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, carterr.New(carterr.ErrCodeFileNotFound, "invalid source URL: %s", rawURL)
	}

	key := cache.SourceKey(rawURL)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "source")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "source")

	delay := c.baseDelay
	var body []byte
	for attempt := 1; ; attempt++ {
		body, err = c.get(ctx, u, rawURL)
		if err == nil || attempt >= c.attempts || !isTransient(err) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "source", len(body))
	}
	return body, nil
}

// get performs a single GET and classifies the outcome for the retry loop.
func (c *Client) get(ctx context.Context, u *url.URL, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	observability.HTTP().OnRequest(ctx, http.MethodGet, u.Host, u.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
		if err != nil {
			return nil, &transientError{err: err}
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, carterr.New(carterr.ErrCodeFileNotFound, "source not found: %s", rawURL)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &transientError{err: fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)}
	default:
		return nil, carterr.New(carterr.ErrCodeInternal, "fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
}
