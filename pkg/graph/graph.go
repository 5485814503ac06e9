package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidID is returned by [Graph.AddBlock] when the block ID is empty.
	ErrInvalidID = errors.New("block ID must not be empty")

	// ErrDuplicateID is returned by [Graph.AddBlock] when a block with the
	// same ID already exists.
	ErrDuplicateID = errors.New("duplicate block ID")

	// ErrUnknownBlock is returned when an operation names a block that is
	// not in the graph.
	ErrUnknownBlock = errors.New("unknown block")

	// ErrPortRange is returned when a port index is out of range.
	ErrPortRange = errors.New("port index out of range")

	// ErrIncompatible is returned by [Graph.CanConnect] when the output type
	// cannot feed the input type.
	ErrIncompatible = errors.New("incompatible port types")

	// ErrPhysicalInput is returned when a source is attached to an input of
	// a physically sourced block. Such blocks have no upstream data.
	ErrPhysicalInput = errors.New("physically sourced block takes no inputs")

	// ErrCycle is returned when a connection or a loaded graph contains a
	// dependency cycle.
	ErrCycle = errors.New("graph contains a cycle")

	// ErrUnknownKind is returned by [ParseKind] for unrecognized kind names.
	ErrUnknownKind = errors.New("unknown entity kind")
)

// Graph is an in-memory [Editor] built from blocks. Entities are reported in
// insertion order so layouts built from the same file are reproducible.
type Graph struct {
	blocks map[string]*Block
	order  []string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{blocks: make(map[string]*Block)}
}

// AddBlock adds b to the graph. Inputs may reference blocks that are added
// later; [Graph.Validate] checks references once the graph is complete.
func (g *Graph) AddBlock(b *Block) error {
	if b == nil || b.id == "" {
		return ErrInvalidID
	}
	if _, exists := g.blocks[b.id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, b.id)
	}
	g.blocks[b.id] = b
	g.order = append(g.order, b.id)
	return nil
}

// RemoveBlock deletes the block and disconnects every input it fed.
func (g *Graph) RemoveBlock(id string) error {
	if _, ok := g.blocks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, id)
	}
	delete(g.blocks, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	for _, b := range g.blocks {
		for i := range b.inputs {
			if src := b.inputs[i].Source; src != nil && src.Entity == id {
				b.inputs[i].Source = nil
			}
		}
	}
	return nil
}

// Block returns the block with the given ID.
func (g *Graph) Block(id string) (*Block, bool) {
	b, ok := g.blocks[id]
	return b, ok
}

// Blocks returns all blocks in insertion order.
func (g *Graph) Blocks() []*Block {
	out := make([]*Block, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.blocks[id])
	}
	return out
}

// Len returns the number of blocks.
func (g *Graph) Len() int { return len(g.order) }

// Entities implements [View].
func (g *Graph) Entities() []Entity {
	out := make([]Entity, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.blocks[id])
	}
	return out
}

// Entity implements [View].
func (g *Graph) Entity(id string) (Entity, bool) {
	b, ok := g.blocks[id]
	if !ok {
		return nil, false
	}
	return b, true
}

// EdgeCount returns the number of connected inputs.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, b := range g.blocks {
		for _, in := range b.inputs {
			if in.Source != nil {
				n++
			}
		}
	}
	return n
}

// CanConnect reports whether input port of dst may be fed from src. The
// check covers existence, port ranges, physically sourced destinations, port
// type compatibility and cycles.
func (g *Graph) CanConnect(dst string, port int, src Source) error {
	d, ok := g.blocks[dst]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, dst)
	}
	s, ok := g.blocks[src.Entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, src.Entity)
	}
	if port < 0 || port >= d.InputCount() {
		return fmt.Errorf("%w: %s input %d", ErrPortRange, dst, port)
	}
	if d.IsPhysicallySourced() {
		return fmt.Errorf("%w: %s", ErrPhysicalInput, dst)
	}
	if src.Port < 0 || src.Port >= s.OutputCount() {
		return fmt.Errorf("%w: %s output %d", ErrPortRange, src.Entity, src.Port)
	}
	if in, out := d.InputType(port), s.OutputType(src.Port); !in.Accepts(out) {
		return fmt.Errorf("%w: %s cannot feed %s", ErrIncompatible, out, in)
	}
	if dst == src.Entity || g.dependsOn(src.Entity, dst) {
		return fmt.Errorf("%w: %s would consume its own output", ErrCycle, dst)
	}
	return nil
}

// Connect implements [Editor].
func (g *Graph) Connect(dst string, port int, src Source) error {
	if err := g.CanConnect(dst, port, src); err != nil {
		return err
	}
	return g.blocks[dst].SetSource(port, src)
}

// Disconnect implements [Editor].
func (g *Graph) Disconnect(dst string, port int) error {
	d, ok := g.blocks[dst]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, dst)
	}
	return d.ClearSource(port)
}

// dependsOn reports whether a transitively consumes any output of b.
func (g *Graph) dependsOn(a, b string) bool {
	seen := make(map[string]bool)
	stack := []string{a}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		blk, ok := g.blocks[id]
		if !ok {
			continue
		}
		for _, in := range blk.inputs {
			if in.Source == nil {
				continue
			}
			if in.Source.Entity == b {
				return true
			}
			stack = append(stack, in.Source.Entity)
		}
	}
	return false
}

// Validate checks that every connected input references an existing block
// and output port, that no physically sourced block has a connected input,
// and that the graph is acyclic.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		b := g.blocks[id]
		for i, in := range b.inputs {
			if in.Source == nil {
				continue
			}
			if b.IsPhysicallySourced() {
				return fmt.Errorf("%s input %d: %w", id, i, ErrPhysicalInput)
			}
			s, ok := g.blocks[in.Source.Entity]
			if !ok {
				return fmt.Errorf("%s input %d: %w: %s", id, i, ErrUnknownBlock, in.Source.Entity)
			}
			if in.Source.Port < 0 || in.Source.Port >= s.OutputCount() {
				return fmt.Errorf("%s input %d: %w: %s", id, i, ErrPortRange, in.Source)
			}
		}
	}
	if cyc := g.FindCycle(); len(cyc) > 0 {
		return fmt.Errorf("%w: %v", ErrCycle, cyc)
	}
	return nil
}
