package pipeline

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/errors"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
)

// Graph file formats accepted by [ParseGraph].
const (
	GraphJSON = "json"
	GraphTOML = "toml"
)

// LoadGraph reads and validates a graph file. The format follows the file
// extension.
func LoadGraph(path string) (*graph.Graph, error) {
	if err := errors.ValidateGraphFilename(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", path)
		}
		return nil, fmt.Errorf("read graph: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	g, err := ParseGraph(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseGraph decodes a graph in the given format ("json" or "toml") and
// validates every block ID and connection.
func ParseGraph(data []byte, format string) (*graph.Graph, error) {
	var (
		g   *graph.Graph
		err error
	)
	switch format {
	case GraphJSON, "":
		g, err = graph.ReadJSON(bytes.NewReader(data))
	case GraphTOML:
		g, err = graph.ReadTOML(bytes.NewReader(data))
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode graph")
	}

	for _, b := range g.Blocks() {
		if err := errors.ValidateEntityID(b.ID()); err != nil {
			return nil, err
		}
	}
	// Cycles are left for the layout engine, which reports the stalled blocks.
	if err := g.Validate(); err != nil && !stderrors.Is(err, graph.ErrCycle) {
		return nil, Classify(err)
	}
	return g, nil
}
