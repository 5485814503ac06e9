package graph

import (
	"fmt"
	"strings"
)

// Kind classifies an entity. The layout engine uses it only to decide
// placement order; everything else goes through the [Entity] methods.
type Kind int

const (
	// KindFilter is a processing block that consumes and produces signals.
	KindFilter Kind = iota
	// KindChannel is a physical acquisition channel.
	KindChannel
	// KindTrigger is an instrument trigger.
	KindTrigger
	// KindExport is a sink that consumes signals and produces none.
	KindExport
)

var kindNames = map[Kind]string{
	KindFilter:  "filter",
	KindChannel: "channel",
	KindTrigger: "trigger",
	KindExport:  "export",
}

// String returns the lower-case name used in graph files.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Primary reports whether entities of this kind are placed before all others
// within a column.
func (k Kind) Primary() bool { return k == KindChannel }

// ParseKind converts a graph-file kind name to a Kind. The empty string maps
// to KindFilter.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindFilter, nil
	}
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// PortType describes what flows through a port. It is used by the
// compatibility check and for presentation, never for layout.
type PortType string

const (
	PortAny      PortType = ""
	PortAnalog   PortType = "analog"
	PortDigital  PortType = "digital"
	PortProtocol PortType = "protocol"
	PortScalar   PortType = "scalar"
)

// Accepts reports whether an input of type t can be fed from an output of
// type src. PortAny on either side matches everything.
func (t PortType) Accepts(src PortType) bool {
	return t == PortAny || src == PortAny || t == src
}

// Source identifies one output of one entity: the signal an input consumes.
type Source struct {
	Entity string `json:"entity" toml:"entity" bson:"entity"`
	Port   int    `json:"port" toml:"port" bson:"port"`
}

// String formats the source as "entity.port".
func (s Source) String() string { return fmt.Sprintf("%s.%d", s.Entity, s.Port) }

// Entity is the read-only view of one graph element that the layout engine
// consumes. Implementations must return stable, unique IDs.
type Entity interface {
	ID() string
	Kind() Kind
	Label() string

	InputCount() int
	// Input returns the source feeding input i, or false if it is unconnected.
	Input(i int) (Source, bool)
	InputName(i int) string
	InputType(i int) PortType

	OutputCount() int
	OutputName(i int) string
	OutputType(i int) PortType

	// IsPhysicallySourced reports whether the entity has no upstream data
	// dependency by construction, like a hardware channel.
	IsPhysicallySourced() bool
}

// View enumerates the entities of a graph.
type View interface {
	// Entities returns every entity in a stable order.
	Entities() []Entity
	// Entity looks up an entity by ID.
	Entity(id string) (Entity, bool)
}

// Editor is a View whose inputs can be rewired interactively.
type Editor interface {
	View
	// CanConnect returns nil if input port of dst may be fed from src.
	CanConnect(dst string, port int, src Source) error
	// Connect sets the source of input port of dst. It runs CanConnect first.
	Connect(dst string, port int, src Source) error
	// Disconnect clears the source of input port of dst.
	Disconnect(dst string, port int) error
}
