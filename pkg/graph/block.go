package graph

// Input is one input port of a [Block].
type Input struct {
	Name   string
	Type   PortType
	Source *Source // nil when unconnected
}

// Output is one output port of a [Block].
type Output struct {
	Name string
	Type PortType
}

// Block is the in-memory [Entity] used by [Graph]. Build one with [NewBlock]
// and the chained With/Add methods:
//
//	fft := graph.NewBlock("fft", graph.KindFilter).
//		AddInput("in", graph.PortAnalog).
//		AddOutput("spectrum", graph.PortAnalog)
type Block struct {
	id       string
	kind     Kind
	label    string
	physical bool
	inputs   []Input
	outputs  []Output
}

// NewBlock creates a block with the given ID and kind. Channels are
// physically sourced by default.
func NewBlock(id string, kind Kind) *Block {
	return &Block{id: id, kind: kind, physical: kind == KindChannel}
}

// WithLabel sets the display label. An empty label displays the ID.
func (b *Block) WithLabel(label string) *Block {
	b.label = label
	return b
}

// WithPhysical overrides whether the block is physically sourced.
func (b *Block) WithPhysical(physical bool) *Block {
	b.physical = physical
	return b
}

// AddInput appends an unconnected input port.
func (b *Block) AddInput(name string, t PortType) *Block {
	b.inputs = append(b.inputs, Input{Name: name, Type: t})
	return b
}

// AddOutput appends an output port.
func (b *Block) AddOutput(name string, t PortType) *Block {
	b.outputs = append(b.outputs, Output{Name: name, Type: t})
	return b
}

// SetSource connects input i to src without any validation. It returns
// ErrPortRange if i is out of range. Use [Graph.Connect] for checked edits.
func (b *Block) SetSource(i int, src Source) error {
	if i < 0 || i >= len(b.inputs) {
		return ErrPortRange
	}
	s := src
	b.inputs[i].Source = &s
	return nil
}

// ClearSource disconnects input i.
func (b *Block) ClearSource(i int) error {
	if i < 0 || i >= len(b.inputs) {
		return ErrPortRange
	}
	b.inputs[i].Source = nil
	return nil
}

func (b *Block) ID() string { return b.id }
func (b *Block) Kind() Kind { return b.kind }
func (b *Block) Label() string {
	if b.label != "" {
		return b.label
	}
	return b.id
}

func (b *Block) InputCount() int { return len(b.inputs) }

func (b *Block) Input(i int) (Source, bool) {
	if i < 0 || i >= len(b.inputs) || b.inputs[i].Source == nil {
		return Source{}, false
	}
	return *b.inputs[i].Source, true
}

func (b *Block) InputName(i int) string {
	if i < 0 || i >= len(b.inputs) {
		return ""
	}
	return b.inputs[i].Name
}

func (b *Block) InputType(i int) PortType {
	if i < 0 || i >= len(b.inputs) {
		return PortAny
	}
	return b.inputs[i].Type
}

func (b *Block) OutputCount() int { return len(b.outputs) }

func (b *Block) OutputName(i int) string {
	if i < 0 || i >= len(b.outputs) {
		return ""
	}
	return b.outputs[i].Name
}

func (b *Block) OutputType(i int) PortType {
	if i < 0 || i >= len(b.outputs) {
		return PortAny
	}
	return b.outputs[i].Type
}

func (b *Block) IsPhysicallySourced() bool { return b.physical }

var _ Entity = (*Block)(nil)
