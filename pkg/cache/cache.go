// Package cache stores layout results and rendered artifacts between runs.
//
// # Backends
//
//   - [NullCache]: never stores anything; used when caching is disabled.
//   - [FileCache]: one JSON file per entry under a directory; the CLI default.
//   - [RedisCache]: shared cache for several server instances.
//   - [MongoCache]: document store for long-lived layout archives.
//
// All backends implement [Cache] and are safe for concurrent use.
//
// # Keys
//
// A [Keyer] derives cache keys from content hashes. Layout keys hash the
// graph file and every option that can change the layout; artifact keys hash
// the layout key and the render settings. Keys never contain user input
// verbatim, so they are safe as file names and Redis keys alike.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any connections held by the cache.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey returns the key for the layout of a graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for one rendering of a layout.
	ArtifactKey(layoutKey string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists everything besides the graph that affects a layout.
type LayoutKeyOpts struct {
	// Options is the effective layout option set; it is hashed as JSON.
	Options any
	// Measurer names the text measurer, since it changes node sizes.
	Measurer string
}

// ArtifactKeyOpts lists everything that affects a rendered artifact.
type ArtifactKeyOpts struct {
	Format string
	Theme  string
	Scale  float64
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts.Options, opts.Measurer)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutKey, opts.Format, opts.Theme, opts.Scale)
}
