package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// File is the canonical serialization format for graphs. It is used for
// graph files on disk, API requests, and cache keys.
type File struct {
	Blocks []BlockSpec `json:"blocks" toml:"blocks"`
}

// BlockSpec is the serialized form of a [Block].
type BlockSpec struct {
	ID       string       `json:"id" toml:"id"`
	Kind     string       `json:"kind,omitempty" toml:"kind,omitempty"`
	Label    string       `json:"label,omitempty" toml:"label,omitempty"`
	Physical *bool        `json:"physical,omitempty" toml:"physical,omitempty"`
	Inputs   []InputSpec  `json:"inputs,omitempty" toml:"inputs,omitempty"`
	Outputs  []OutputSpec `json:"outputs,omitempty" toml:"outputs,omitempty"`
}

// InputSpec is the serialized form of an [Input].
type InputSpec struct {
	Name   string  `json:"name" toml:"name"`
	Type   string  `json:"type,omitempty" toml:"type,omitempty"`
	Source *Source `json:"source,omitempty" toml:"source,omitempty"`
}

// OutputSpec is the serialized form of an [Output].
type OutputSpec struct {
	Name string `json:"name" toml:"name"`
	Type string `json:"type,omitempty" toml:"type,omitempty"`
}

// ToFile converts g to its serialization format, preserving block order.
func ToFile(g *Graph) File {
	f := File{Blocks: make([]BlockSpec, 0, g.Len())}
	for _, b := range g.Blocks() {
		spec := BlockSpec{
			ID:    b.id,
			Kind:  b.kind.String(),
			Label: b.label,
		}
		if b.physical != (b.kind == KindChannel) {
			p := b.physical
			spec.Physical = &p
		}
		for _, in := range b.inputs {
			is := InputSpec{Name: in.Name, Type: string(in.Type)}
			if in.Source != nil {
				s := *in.Source
				is.Source = &s
			}
			spec.Inputs = append(spec.Inputs, is)
		}
		for _, out := range b.outputs {
			spec.Outputs = append(spec.Outputs, OutputSpec{Name: out.Name, Type: string(out.Type)})
		}
		f.Blocks = append(f.Blocks, spec)
	}
	return f
}

// FromFile builds a graph from its serialization format. References between
// blocks are not validated; call [Graph.Validate] for that.
func FromFile(f File) (*Graph, error) {
	g := New()
	for _, spec := range f.Blocks {
		kind, err := ParseKind(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", spec.ID, err)
		}
		b := NewBlock(spec.ID, kind).WithLabel(spec.Label)
		if spec.Physical != nil {
			b.WithPhysical(*spec.Physical)
		}
		for i, in := range spec.Inputs {
			b.AddInput(in.Name, PortType(in.Type))
			if in.Source != nil {
				if err := b.SetSource(i, *in.Source); err != nil {
					return nil, fmt.Errorf("block %s input %d: %w", spec.ID, i, err)
				}
			}
		}
		for _, out := range spec.Outputs {
			b.AddOutput(out.Name, PortType(out.Type))
		}
		if err := g.AddBlock(b); err != nil {
			return nil, fmt.Errorf("block %s: %w", spec.ID, err)
		}
	}
	return g, nil
}

// Marshal encodes g as indented JSON. The output is deterministic, so it is
// suitable for content hashing.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a graph.
func Unmarshal(data []byte) (*Graph, error) {
	return ReadJSON(bytes.NewReader(data))
}

// WriteJSON writes g as indented JSON to w.
func WriteJSON(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToFile(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON graph from r.
func ReadJSON(r io.Reader) (*Graph, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromFile(f)
}

// WriteTOML writes g as TOML to w.
func WriteTOML(g *Graph, w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(ToFile(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadTOML decodes a TOML graph from r. Blocks are written as an array of
// tables:
//
//	[[blocks]]
//	id = "CH1"
//	kind = "channel"
//	outputs = [{ name = "out", type = "analog" }]
func ReadTOML(r io.Reader) (*Graph, error) {
	var f File
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromFile(f)
}

// ReadFile reads a graph file. Files ending in .toml are decoded as TOML,
// everything else as JSON.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if isTOML(path) {
		return ReadTOML(f)
	}
	return ReadJSON(f)
}

// WriteFile writes g to path, choosing the format from the extension.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if isTOML(path) {
		return WriteTOML(g, f)
	}
	return WriteJSON(g, f)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
