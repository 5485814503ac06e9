package pipeline

import (
	"context"
	stderrors "errors"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/cache"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/errors"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
)

const chainJSON = `{
  "blocks": [
    {"id": "CH1", "kind": "channel", "outputs": [{"name": "out", "type": "analog"}]},
    {"id": "lpf", "label": "Low pass", "inputs": [{"name": "in", "type": "analog", "source": {"entity": "CH1", "port": 0}}],
     "outputs": [{"name": "out", "type": "analog"}]},
    {"id": "fft", "inputs": [{"name": "in", "type": "analog", "source": {"entity": "lpf", "port": 0}}],
     "outputs": [{"name": "mag", "type": "analog"}]}
  ]
}`

const cycleJSON = `{
  "blocks": [
    {"id": "a", "inputs": [{"name": "in", "source": {"entity": "b", "port": 0}}], "outputs": [{"name": "out"}]},
    {"id": "b", "inputs": [{"name": "in", "source": {"entity": "a", "port": 0}}], "outputs": [{"name": "out"}]}
  ]
}`

func chain(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := ParseGraph([]byte(chainJSON), GraphJSON)
	if err != nil {
		t.Fatalf("ParseGraph: %v", err)
	}
	return g
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"txt", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateTheme(t *testing.T) {
	for theme, wantErr := range map[string]bool{"light": false, "dark": false, "Dark": false, "neon": true} {
		if err := ValidateTheme(theme); (err != nil) != wantErr {
			t.Errorf("ValidateTheme(%q) error = %v, wantErr %v", theme, err, wantErr)
		}
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Theme != "light" || opts.Scale != DefaultScale {
		t.Errorf("Theme/Scale = %q/%v", opts.Theme, opts.Scale)
	}
	if opts.Layout.MaxAttempts != layout.DefaultMaxAttempts || opts.Layout.Logger == nil {
		t.Errorf("layout defaults not applied: %+v", opts.Layout)
	}

	// Second call should be idempotent
	before := opts.Layout
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if opts.Layout.RoutingWidth != before.RoutingWidth || len(opts.Formats) != 1 {
		t.Error("options changed on second call")
	}

	bad := Options{Formats: []string{"gif"}}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("invalid format should fail")
	}

	degenerate := Options{Layout: layout.Options{LaneStep: 1e-20}}
	err := degenerate.ValidateAndSetDefaults()
	if !stderrors.Is(err, layout.ErrInvalidOptions) {
		t.Errorf("tiny lane step: err = %v, want ErrInvalidOptions", err)
	}
	if got := errors.GetCode(Classify(err)); got != errors.ErrCodeInvalidInput {
		t.Errorf("tiny lane step: code = %q, want %q", got, errors.ErrCodeInvalidInput)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	a := Options{Theme: "light"}
	b := Options{Theme: "light", Columns: true}
	if a.ArtifactKeyOpts("svg") == b.ArtifactKeyOpts("svg") {
		t.Error("Columns should change the artifact key options")
	}
}

func TestParseGraph(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		code   errors.Code
	}{
		{"json", chainJSON, GraphJSON, ""},
		{"toml", "[[blocks]]\nid = \"CH1\"\nkind = \"channel\"\n", GraphTOML, ""},
		{"cycle left for the engine", cycleJSON, GraphJSON, ""},
		{"bad id", `{"blocks": [{"id": "-x"}]}`, GraphJSON, errors.ErrCodeInvalidID},
		{"dangling source", `{"blocks": [{"id": "a", "inputs": [{"name": "in", "source": {"entity": "zz", "port": 0}}]}]}`, GraphJSON, errors.ErrCodeNotFound},
		{"bad port", `{"blocks": [{"id": "a"}, {"id": "b", "inputs": [{"name": "in", "source": {"entity": "a", "port": 3}}]}]}`, GraphJSON, errors.ErrCodeInvalidGraph},
		{"malformed", `{"blocks": [`, GraphJSON, errors.ErrCodeInvalidGraph},
		{"unknown kind", `{"blocks": [{"id": "a", "kind": "oscilloscope"}]}`, GraphJSON, errors.ErrCodeInvalidGraph},
		{"unknown format", chainJSON, "yaml", errors.ErrCodeInvalidFormat},
		{"physical input", `{"blocks": [{"id": "CH1", "kind": "channel", "outputs": [{"name": "out"}]}, {"id": "CH2", "kind": "channel", "inputs": [{"name": "ext", "source": {"entity": "CH1", "port": 0}}]}]}`, GraphJSON, errors.ErrCodeIncompatiblePort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGraph([]byte(tt.data), tt.format)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("ParseGraph: %v", err)
				}
				return
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestLoadGraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.json")
	if err := os.WriteFile(path, []byte(chainJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := LoadGraph(path)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if g.Len() != 3 || g.EdgeCount() != 2 {
		t.Errorf("got %d blocks, %d edges", g.Len(), g.EdgeCount())
	}

	if _, err := LoadGraph(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
	if _, err := LoadGraph(filepath.Join(dir, "graph.yaml")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad extension: %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want errors.Code
	}{
		{fmt.Errorf("x: %w", layout.ErrCycle), errors.ErrCodeGraphCycle},
		{graph.ErrCycle, errors.ErrCodeGraphCycle},
		{layout.ErrRetryLimit, errors.ErrCodeRoutingLimit},
		{graph.ErrIncompatible, errors.ErrCodeIncompatiblePort},
		{graph.ErrPhysicalInput, errors.ErrCodeIncompatiblePort},
		{graph.ErrUnknownBlock, errors.ErrCodeNotFound},
		{graph.ErrPortRange, errors.ErrCodeInvalidGraph},
		{layout.ErrReadOnly, errors.ErrCodeUnsupported},
		{fmt.Errorf("invalid options: %w", layout.ErrInvalidOptions), errors.ErrCodeInvalidInput},
		{context.DeadlineExceeded, errors.ErrCodeTimeout},
		{fmt.Errorf("boom"), errors.ErrCodeInternal},
		{errors.New(errors.ErrCodeInvalidID, "kept"), errors.ErrCodeInvalidID},
	}
	for _, tt := range tests {
		if got := errors.GetCode(Classify(tt.err)); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestComputeLayout(t *testing.T) {
	res, err := ComputeLayout(context.Background(), chain(t), Options{})
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	if len(res.Nodes) != 3 || len(res.Edges) != 2 {
		t.Errorf("got %d nodes, %d edges", len(res.Nodes), len(res.Edges))
	}

	g, err := ParseGraph([]byte(cycleJSON), GraphJSON)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ComputeLayout(context.Background(), g, Options{}); !errors.Is(err, errors.ErrCodeGraphCycle) {
		t.Errorf("cycle: got %v, want GRAPH_CYCLE", err)
	}
}

func TestRender(t *testing.T) {
	res, err := ComputeLayout(context.Background(), chain(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := Render(context.Background(), res, Options{
		Formats: []string{FormatSVG, FormatJSON, FormatDOT, FormatText},
		Theme:   "dark",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	checks := map[string]string{
		FormatSVG:  "<svg",
		FormatJSON: `"nodes"`,
		FormatDOT:  "digraph G",
		FormatText: "fft",
	}
	for format, want := range checks {
		if !strings.Contains(string(artifacts[format]), want) {
			t.Errorf("%s artifact missing %q", format, want)
		}
	}
}

func TestRunnerCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()

	ctx := context.Background()
	opts := Options{Formats: []string{FormatJSON, FormatText}}

	first, err := r.Execute(ctx, chain(t), "chain.json", opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}
	if first.RunID == "" || first.GraphHash == "" {
		t.Error("RunID and GraphHash should be set")
	}

	second, err := r.Execute(ctx, chain(t), "chain.json", opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if string(first.Artifacts[FormatText]) != string(second.Artifacts[FormatText]) {
		t.Error("cached artifact differs")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, chain(t), "chain.json", opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass the cache: %+v", third.CacheInfo)
	}

	// Different layout options produce a different key.
	opts = Options{Formats: []string{FormatJSON}, Layout: layout.Options{RoutingWidth: 80}}
	fourth, err := r.Execute(ctx, chain(t), "chain.json", opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fourth.CacheInfo.LayoutHit {
		t.Error("changed options should miss the layout cache")
	}
}

// docCache is an in-memory DocumentCache.
type docCache struct {
	cache.Cache
	mu   sync.Mutex
	docs map[string][]byte
	sets int
}

func (c *docCache) GetDocument(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, out)
}

func (c *docCache) SetDocument(_ context.Context, key string, doc any, _ time.Duration) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[key] = data
	c.sets++
	return nil
}

func TestRunnerDocumentCache(t *testing.T) {
	dc := &docCache{Cache: cache.NewNullCache(), docs: map[string][]byte{}}
	r := NewRunner(dc, nil, nil)
	ctx := context.Background()

	res1, hit, err := r.LayoutWithCacheInfo(ctx, chain(t), Options{})
	if err != nil || hit {
		t.Fatalf("first layout: hit=%v err=%v", hit, err)
	}
	if dc.sets != 1 {
		t.Errorf("SetDocument called %d times, want 1", dc.sets)
	}
	res2, hit, err := r.LayoutWithCacheInfo(ctx, chain(t), Options{})
	if err != nil || !hit {
		t.Fatalf("second layout: hit=%v err=%v", hit, err)
	}
	if len(res2.Nodes) != len(res1.Nodes) || res2.Bounds != res1.Bounds {
		t.Error("document round trip changed the layout")
	}
}

func TestRunnerLayoutError(t *testing.T) {
	g, err := ParseGraph([]byte(cycleJSON), GraphJSON)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(nil, nil, nil)
	_, err = r.Execute(context.Background(), g, "", Options{})
	if !errors.Is(err, errors.ErrCodeGraphCycle) {
		t.Errorf("got %v, want GRAPH_CYCLE", err)
	}
}
