package layout

import (
	"math"
	"testing"
)

func TestRoutingColumnChannels(t *testing.T) {
	tests := []struct {
		name        string
		left, right float64
		step        float64
		want        []float64
	}{
		{"default width", 100, 140, 10, []float64{110, 120, 130}},
		{"uneven width", 0, 25, 10, []float64{10}},
		{"too narrow", 0, 10, 10, nil},
		{"zero step", 0, 40, 0, nil},
		{"half step", 0, 20, 5, []float64{5, 10, 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRoutingColumn(tt.left, tt.right, tt.step)
			if c.Capacity() != len(tt.want) {
				t.Fatalf("Capacity() = %d, want %d", c.Capacity(), len(tt.want))
			}
			for i, want := range tt.want {
				x, ok := c.Allocate(Signal{Node: Handle(i)})
				if !ok || x != want {
					t.Errorf("Allocate #%d = %v, %v; want %v", i, x, ok, want)
				}
			}
			if _, ok := c.Allocate(Signal{Node: -1}); ok {
				t.Error("Allocate should fail once channels are exhausted")
			}
		})
	}
}

func TestRoutingColumnCapsChannels(t *testing.T) {
	tests := []struct {
		name        string
		left, right float64
		step        float64
		want        int
	}{
		{"tiny step", 0, 40, 1e-9, MaxChannelsPerColumn},
		{"huge width", 0, 1e15, 10, MaxChannelsPerColumn},
		{"infinite width", 0, math.Inf(1), 10, MaxChannelsPerColumn},
		{"nan step", 0, 40, math.NaN(), 0},
		{"infinite step", 0, 40, math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewRoutingColumn(tt.left, tt.right, tt.step).Capacity(); got != tt.want {
				t.Errorf("Capacity() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRoutingColumnSharesChannelPerSignal(t *testing.T) {
	c := NewRoutingColumn(0, 40, 10)
	a := Signal{Node: 1, Port: 0}
	b := Signal{Node: 1, Port: 1}

	xa, _ := c.Allocate(a)
	xb, _ := c.Allocate(b)
	again, _ := c.Allocate(a)

	if xa == xb {
		t.Errorf("different ports of one node got the same channel %v", xa)
	}
	if again != xa {
		t.Errorf("second Allocate(a) = %v, want %v", again, xa)
	}
	if c.Allocated() != 2 {
		t.Errorf("Allocated() = %d, want 2", c.Allocated())
	}
	if x, ok := c.Channel(b); !ok || x != xb {
		t.Errorf("Channel(b) = %v, %v", x, ok)
	}
	if _, ok := c.Channel(Signal{Node: 9}); ok {
		t.Error("Channel of an unrouted signal should miss")
	}
}
