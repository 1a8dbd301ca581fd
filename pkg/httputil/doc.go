// Package httputil fetches remote map sources over HTTP.
//
// Map definitions may reference GeoJSON sources by URL instead of a local
// path. This package provides the [Client] those fetches go through:
//
//   - Responses are cached through a [cache.Cache], keyed by URL, so
//     repeated renders of the same definition do not refetch the source.
//   - Transient failures (network errors, 5xx responses, rate limits)
//     are retried with exponential backoff; a missing or forbidden
//     source fails immediately.
//
// Usage:
//
//	c := httputil.NewClient(nil, fileCache, 24*time.Hour)
//	data, err := c.Fetch(ctx, "https://example.com/countries.geojson")
//
// Fetches emit events through the observability hooks, so a server can
// count cache hits and upstream requests without this package depending
// on a metrics backend.
package httputil
