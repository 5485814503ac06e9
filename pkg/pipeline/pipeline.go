// Package pipeline provides the load → layout → render pipeline for filter
// graphs.
//
// The CLI and the HTTP server both go through this package, so layouts are
// computed, cached and rendered the same way no matter where a request comes
// from.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a graph file (JSON or TOML) and validate block IDs
//  2. Layout: run the layout engine, or fetch its result from the cache
//  3. Render: produce artifacts (SVG, PNG, PDF, DOT, text, JSON)
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	g, err := pipeline.LoadGraph("scope.json")
//	result, err := runner.Execute(ctx, g, pipeline.Options{Formats: []string{"svg"}})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	res, err := runner.Layout(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, res, opts)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/cache"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/svg"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatText = "txt"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatText: true,
}

// DefaultScale is the PNG scale factor used when none is given.
const DefaultScale = 1.0

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Render options
	Formats     []string `json:"formats,omitempty"`
	Theme       string   `json:"theme,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Columns     bool     `json:"columns,omitempty"`     // Draw routing strips in SVG output
	Interactive bool     `json:"interactive,omitempty"` // Embed hover script in SVG output

	// Layout tuning. Zero fields take the engine defaults.
	Layout layout.Options `json:"layout"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	TTL    time.Duration `json:"-"`
	Logger *log.Logger   `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Graph is the input graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the graph's canonical JSON.
	GraphHash string

	// Layout is the finished layout.
	Layout *layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	BlockCount int
	EdgeCount  int
	Attempts   int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: %s)", format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTheme checks that a theme name is known.
func ValidateTheme(theme string) error {
	if _, ok := svg.ThemeByName(theme); !ok {
		return fmt.Errorf("invalid theme: %q (must be one of: light, dark)", theme)
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = svg.Light.Name
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Layout.Logger == nil {
		o.Layout.Logger = o.Logger
	}
	o.Layout.SetDefaults()

	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateTheme(o.Theme); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Options:  o.Layout,
		Measurer: fmt.Sprintf("%T%+v", o.Layout.Measurer, o.Layout.Measurer),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	theme := o.Theme
	if o.Columns {
		theme += "+columns"
	}
	if o.Interactive {
		theme += "+interactive"
	}
	return cache.ArtifactKeyOpts{
		Format: format,
		Theme:  theme,
		Scale:  o.Scale,
	}
}
