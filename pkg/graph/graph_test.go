package graph

import (
	"errors"
	"testing"
)

func channel(id string) *Block {
	return NewBlock(id, KindChannel).AddOutput("out", PortAnalog)
}

func filter(id string, inputs int) *Block {
	b := NewBlock(id, KindFilter).AddOutput("out", PortAnalog)
	for i := 0; i < inputs; i++ {
		b.AddInput("in", PortAnalog)
	}
	return b
}

func mustAdd(t *testing.T, g *Graph, blocks ...*Block) {
	t.Helper()
	for _, b := range blocks {
		if err := g.AddBlock(b); err != nil {
			t.Fatalf("AddBlock(%s): %v", b.ID(), err)
		}
	}
}

func TestAddBlock(t *testing.T) {
	g := New()
	mustAdd(t, g, channel("CH1"))

	if err := g.AddBlock(NewBlock("", KindFilter)); !errors.Is(err, ErrInvalidID) {
		t.Errorf("empty ID: err = %v, want ErrInvalidID", err)
	}
	if err := g.AddBlock(channel("CH1")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate: err = %v, want ErrDuplicateID", err)
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestEntitiesPreserveInsertionOrder(t *testing.T) {
	g := New()
	mustAdd(t, g, filter("z", 0), channel("a"), filter("m", 0))

	var got []string
	for _, e := range g.Entities() {
		got = append(got, e.ID())
	}
	want := []string{"z", "a", "m"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Entities() order = %v, want %v", got, want)
		}
	}
}

func TestBlockEntity(t *testing.T) {
	b := NewBlock("fft", KindFilter).
		WithLabel("FFT").
		AddInput("in", PortAnalog).
		AddOutput("spectrum", PortAnalog)

	if b.Label() != "FFT" {
		t.Errorf("Label() = %q, want FFT", b.Label())
	}
	if _, ok := b.Input(0); ok {
		t.Error("Input(0) should be unconnected")
	}
	if _, ok := b.Input(5); ok {
		t.Error("Input(5) should be out of range")
	}
	if err := b.SetSource(0, Source{Entity: "CH1"}); err != nil {
		t.Fatalf("SetSource: %v", err)
	}
	if src, ok := b.Input(0); !ok || src.Entity != "CH1" || src.Port != 0 {
		t.Errorf("Input(0) = %v, %v", src, ok)
	}
	if err := b.SetSource(1, Source{}); !errors.Is(err, ErrPortRange) {
		t.Errorf("SetSource(1) err = %v, want ErrPortRange", err)
	}
	if b.IsPhysicallySourced() {
		t.Error("filters are not physically sourced")
	}
	if !channel("CH1").IsPhysicallySourced() {
		t.Error("channels are physically sourced")
	}
	if NewBlock("x", KindFilter).Label() != "x" {
		t.Error("Label() should default to the ID")
	}
}

func TestCanConnect(t *testing.T) {
	g := New()
	mustAdd(t, g,
		channel("CH1"),
		NewBlock("dig", KindChannel).AddOutput("out", PortDigital),
		channel("CH3").AddInput("ext", PortAnalog),
		filter("a", 1),
		filter("b", 1),
	)
	if err := g.Connect("a", 0, Source{Entity: "CH1"}); err != nil {
		t.Fatalf("Connect a: %v", err)
	}
	if err := g.Connect("b", 0, Source{Entity: "a"}); err != nil {
		t.Fatalf("Connect b: %v", err)
	}

	tests := []struct {
		name string
		dst  string
		port int
		src  Source
		want error
	}{
		{"valid rewire", "b", 0, Source{Entity: "CH1"}, nil},
		{"unknown dst", "nope", 0, Source{Entity: "CH1"}, ErrUnknownBlock},
		{"unknown src", "a", 0, Source{Entity: "nope"}, ErrUnknownBlock},
		{"input range", "a", 3, Source{Entity: "CH1"}, ErrPortRange},
		{"output range", "a", 0, Source{Entity: "CH1", Port: 2}, ErrPortRange},
		{"type mismatch", "a", 0, Source{Entity: "dig"}, ErrIncompatible},
		{"physically sourced dst", "CH3", 0, Source{Entity: "a"}, ErrPhysicalInput},
		{"self loop", "a", 0, Source{Entity: "a"}, ErrCycle},
		{"closes cycle", "a", 0, Source{Entity: "b"}, ErrCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CanConnect(tt.dst, tt.port, tt.src)
			if tt.want == nil {
				if err != nil {
					t.Errorf("CanConnect() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("CanConnect() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRemoveBlockDisconnectsConsumers(t *testing.T) {
	g := New()
	mustAdd(t, g, channel("CH1"), filter("a", 1))
	if err := g.Connect("a", 0, Source{Entity: "CH1"}); err != nil {
		t.Fatal(err)
	}
	if err := g.RemoveBlock("CH1"); err != nil {
		t.Fatal(err)
	}
	b, _ := g.Block("a")
	if _, ok := b.Input(0); ok {
		t.Error("input should be disconnected after its source is removed")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
	if err := g.RemoveBlock("CH1"); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("second remove err = %v, want ErrUnknownBlock", err)
	}
}

func TestValidate(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		g := New()
		mustAdd(t, g, channel("CH1"), filter("a", 1))
		_ = g.Connect("a", 0, Source{Entity: "CH1"})
		if err := g.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("dangling", func(t *testing.T) {
		g := New()
		a := filter("a", 1)
		_ = a.SetSource(0, Source{Entity: "ghost"})
		mustAdd(t, g, a)
		if err := g.Validate(); !errors.Is(err, ErrUnknownBlock) {
			t.Errorf("Validate() = %v, want ErrUnknownBlock", err)
		}
	})

	t.Run("physically sourced input", func(t *testing.T) {
		g := New()
		ch := channel("CH2").AddInput("ext", PortAnalog)
		_ = ch.SetSource(0, Source{Entity: "CH1"})
		mustAdd(t, g, channel("CH1"), ch)
		if err := g.Validate(); !errors.Is(err, ErrPhysicalInput) {
			t.Errorf("Validate() = %v, want ErrPhysicalInput", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		g := New()
		a, b, c := filter("a", 1), filter("b", 1), filter("c", 1)
		_ = a.SetSource(0, Source{Entity: "c"})
		_ = b.SetSource(0, Source{Entity: "a"})
		_ = c.SetSource(0, Source{Entity: "b"})
		mustAdd(t, g, a, b, c)

		if err := g.Validate(); !errors.Is(err, ErrCycle) {
			t.Errorf("Validate() = %v, want ErrCycle", err)
		}
		if cyc := g.FindCycle(); len(cyc) != 3 {
			t.Errorf("FindCycle() = %v, want 3 blocks", cyc)
		}
	})
}

func TestFindCycleAcyclic(t *testing.T) {
	//   CH1
	//  /   \
	// a     b
	//  \   /
	//    c
	g := New()
	c := filter("c", 2)
	mustAdd(t, g, channel("CH1"), filter("a", 1), filter("b", 1), c)
	_ = g.Connect("a", 0, Source{Entity: "CH1"})
	_ = g.Connect("b", 0, Source{Entity: "CH1"})
	_ = g.Connect("c", 0, Source{Entity: "a"})
	_ = g.Connect("c", 1, Source{Entity: "b"})

	if cyc := g.FindCycle(); cyc != nil {
		t.Errorf("FindCycle() = %v, want nil", cyc)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		err  bool
	}{
		{"", KindFilter, false},
		{"channel", KindChannel, false},
		{"Trigger", KindTrigger, false},
		{"export", KindExport, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseKind(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !KindChannel.Primary() || KindFilter.Primary() {
		t.Error("only channels are primary")
	}
}

func TestPortTypeAccepts(t *testing.T) {
	if !PortAnalog.Accepts(PortAnalog) {
		t.Error("analog should accept analog")
	}
	if PortAnalog.Accepts(PortDigital) {
		t.Error("analog should reject digital")
	}
	if !PortAny.Accepts(PortDigital) || !PortDigital.Accepts(PortAny) {
		t.Error("any should match everything")
	}
}
