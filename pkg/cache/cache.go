// Package cache provides the byte caches the preview server and CLI use
// to avoid re-rendering unchanged maps.
//
// Three backends share one interface: FileCache for local CLI use,
// RedisCache for a shared server deployment, and NullCache to disable
// caching. Keys are derived from the map definition's content hash plus
// the render parameters, so any change to the definition naturally
// invalidates its entries.
package cache

import (
	"context"
	"time"
)

// Cache stores rendered artifacts keyed by content hash.
type Cache interface {
	// Get retrieves a value. A missing or expired key is (nil, false, nil);
	// the error is reserved for backend failures.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	// Set stores a value. A non-positive ttl stores without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// RenderKey builds the cache key for a rendered map: the definition's
// content hash plus the parameters that change the output.
func RenderKey(specHash string, width, height float64) string {
	return hashKey("render", specHash, width, height)
}

// SourceKey builds the cache key for a fetched remote source file.
func SourceKey(url string) string {
	return hashKey("source", url)
}
