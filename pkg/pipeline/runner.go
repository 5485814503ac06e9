package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/cache"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs layout and render for g with caching. source names the graph
// in logs and hooks; it may be empty.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, source string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.NewString()
	logger := r.Logger.With("run", runID[:8])
	if source != "" {
		logger = logger.With("graph", source)
	}

	result := &Result{
		RunID: runID,
		Graph: g,
	}
	result.Stats.BlockCount = g.Len()
	result.Stats.EdgeCount = g.EdgeCount()

	// Stage 1: Layout
	observability.Pipeline().OnLayoutStart(ctx, source, g.Len())
	layoutStart := time.Now()
	res, hash, layoutHit, err := r.layout(ctx, g, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, source, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = res
	result.GraphHash = hash
	result.Stats.Attempts = res.Attempts
	result.CacheInfo.LayoutHit = layoutHit

	logger.Info("computed layout",
		"blocks", len(res.Nodes),
		"edges", len(res.Edges),
		"attempts", res.Attempts,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 2: Render
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes the layout of g with caching and returns
// cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (*layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	res, _, hit, err := r.layout(ctx, g, opts)
	return res, hit, err
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g *graph.Graph, opts Options) (*layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return res, err
}

// layout expects validated options. It returns the graph hash alongside the
// result.
func (r *Runner) layout(ctx context.Context, g *graph.Graph, opts Options) (*layout.Result, string, bool, error) {
	graphData, err := graph.Marshal(g)
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(graphData)
	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if res, ok := r.getLayout(ctx, cacheKey); ok {
			return res, graphHash, true, nil
		}
	}

	res, err := ComputeLayout(ctx, g, opts)
	if err != nil {
		return nil, graphHash, false, err
	}
	r.setLayout(ctx, cacheKey, res, opts.TTL)
	return res, graphHash, false, nil
}

// getLayout reads a cached layout. Document caches return the stored
// document directly; other caches hold the JSON encoding. Undecodable
// entries count as misses.
func (r *Runner) getLayout(ctx context.Context, key string) (*layout.Result, bool) {
	backend := cache.BackendName(r.Cache)
	var (
		res layout.Result
		hit bool
		err error
	)
	if dc, ok := r.Cache.(cache.DocumentCache); ok {
		hit, err = dc.GetDocument(ctx, key, &res)
	} else {
		var data []byte
		data, hit, err = r.Cache.Get(ctx, key)
		if err == nil && hit {
			var decoded *layout.Result
			decoded, err = layout.Unmarshal(data)
			if err == nil {
				res = *decoded
			}
		}
	}
	if err != nil {
		r.Logger.Debug("layout cache read failed", "backend", backend, "err", err)
		hit = false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, backend)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, backend)
	return &res, true
}

func (r *Runner) setLayout(ctx context.Context, key string, res *layout.Result, ttl time.Duration) {
	backend := cache.BackendName(r.Cache)
	if dc, ok := r.Cache.(cache.DocumentCache); ok {
		if err := dc.SetDocument(ctx, key, res, ttl); err != nil {
			r.Logger.Debug("layout cache write failed", "backend", backend, "err", err)
			return
		}
		observability.Cache().OnCacheSet(ctx, backend, 0)
		return
	}
	data, err := res.Marshal()
	if err != nil {
		return
	}
	r.set(ctx, key, data, ttl)
}

func (r *Runner) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	backend := cache.BackendName(r.Cache)
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "backend", backend, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, backend, len(data))
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *layout.Result, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	// Compute cache key from layout data
	layoutData, err := res.Marshal()
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)
	backend := cache.BackendName(r.Cache)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, backend)
				break
			}
			observability.Cache().OnCacheHit(ctx, backend)
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := Render(ctx, res, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		r.set(ctx, r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)), data, opts.TTL)
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res *layout.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
