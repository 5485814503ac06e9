package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/cache"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/errors"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/pipeline"
)

// graphRequest is the part shared by every POST body.
type graphRequest struct {
	Graph     json.RawMessage `json:"graph,omitempty"`
	GraphTOML string          `json:"graph_toml,omitempty"`
	Options   *layout.Options `json:"options,omitempty"`
	Theme     string          `json:"theme,omitempty"`
	Refresh   bool            `json:"refresh,omitempty"`
}

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	graphRequest
	Formats     []string `json:"formats,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Columns     bool     `json:"columns,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`
}

// LayoutResponse is the body returned by POST /v1/layout. Artifacts are
// base64 encoded by encoding/json.
type LayoutResponse struct {
	RunID     string            `json:"run_id"`
	GraphHash string            `json:"graph_hash"`
	Layout    *layout.Result    `json:"layout"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
	Cached    bool              `json:"cached"`
}

// HitTestRequest is the body of POST /v1/hittest.
type HitTestRequest struct {
	graphRequest
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HitTestResponse reports what lies under the point. Fields are omitted
// when nothing of that kind was hit.
type HitTestResponse struct {
	Node string          `json:"node,omitempty"`
	Port *layout.PortHit `json:"port,omitempty"`
	Path *PathHit        `json:"path,omitempty"`
}

// PathHit identifies a routed edge.
type PathHit struct {
	Index int          `json:"index"`
	From  graph.Source `json:"from"`
	To    graph.Source `json:"to"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	g, err := req.parseGraph()
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	opts := s.options(req.graphRequest)
	opts.Scale = req.Scale
	opts.Columns = req.Columns
	opts.Interactive = req.Interactive

	resp := LayoutResponse{}
	if len(req.Formats) == 0 {
		// Layout only.
		if err := opts.ValidateAndSetDefaults(); err != nil {
			writeError(w, r, s.logger, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options"))
			return
		}
		res, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), g, opts)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		resp.Layout, resp.Cached = res, hit
		resp.RunID = RequestID(r.Context())
	} else {
		opts.Formats = req.Formats
		if err := pipeline.ValidateFormats(opts.Formats); err != nil {
			writeError(w, r, s.logger, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid formats"))
			return
		}
		result, err := s.runner.Execute(r.Context(), g, RequestID(r.Context()), opts)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		resp.RunID = result.RunID
		resp.GraphHash = result.GraphHash
		resp.Layout = result.Layout
		resp.Artifacts = result.Artifacts
		resp.Cached = result.CacheInfo.LayoutHit
	}
	if resp.GraphHash == "" {
		if data, err := graph.Marshal(g); err == nil {
			resp.GraphHash = cache.Hash(data)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatText: "text/plain; charset=utf-8",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, r, s.logger, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid format"))
		return
	}
	var req LayoutRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	g, err := req.parseGraph()
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	opts := s.options(req.graphRequest)
	opts.Formats = []string{format}
	opts.Scale = req.Scale
	opts.Columns = req.Columns
	opts.Interactive = req.Interactive
	result, err := s.runner.Execute(r.Context(), g, RequestID(r.Context()), opts)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func (s *Server) handleHitTest(w http.ResponseWriter, r *http.Request) {
	var req HitTestRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	g, err := req.parseGraph()
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	opts := s.options(req.graphRequest)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, r, s.logger, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options"))
		return
	}
	res, err := s.runner.Layout(r.Context(), g, opts)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	var resp HitTestResponse
	if id, ok := res.HitTestNode(req.X, req.Y); ok {
		resp.Node = id
	}
	if hit, ok := res.HitTestPort(req.X, req.Y); ok {
		resp.Port = &hit
	}
	if i, ok := res.HitTestPath(req.X, req.Y); ok {
		e := res.Edges[i]
		resp.Path = &PathHit{Index: i, From: e.From, To: e.To}
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads a JSON body, enforcing the size limit.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode body")
	}
	return nil
}

func (req graphRequest) parseGraph() (*graph.Graph, error) {
	switch {
	case len(req.Graph) > 0 && req.GraphTOML != "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "give either graph or graph_toml, not both")
	case len(req.Graph) > 0:
		return pipeline.ParseGraph(req.Graph, pipeline.GraphJSON)
	case req.GraphTOML != "":
		return pipeline.ParseGraph([]byte(req.GraphTOML), pipeline.GraphTOML)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "missing graph")
	}
}

// options merges request options over the server defaults.
func (s *Server) options(req graphRequest) pipeline.Options {
	lo := s.cfg.Layout
	if req.Options != nil {
		lo = req.Options.Fill(s.cfg.Layout)
	}
	lo.Logger = nil
	theme := req.Theme
	if theme == "" {
		theme = s.cfg.Theme
	}
	return pipeline.Options{
		Layout:  lo,
		Theme:   theme,
		Refresh: req.Refresh,
	}
}

