// Package graph describes the signal-processing graph that the layout engine
// visualizes.
//
// # Overview
//
// The layout engine never owns the graph it draws. It only needs a read-only
// view of each entity: its identity, its kind, its port labels, and where each
// of its inputs is connected. That view is the [Entity] interface, and a set
// of entities is a [View]. Hosts that allow interactive rewiring additionally
// implement [Editor], whose [Editor.CanConnect] is the host's own
// compatibility check.
//
// This package also ships [Graph], an in-memory implementation built from
// [Block] values, together with JSON and TOML file formats:
//
//	{
//	  "blocks": [
//	    {"id": "CH1", "kind": "channel", "outputs": [{"name": "out", "type": "analog"}]},
//	    {"id": "fft", "kind": "filter",
//	     "inputs": [{"name": "in", "type": "analog", "source": {"entity": "CH1", "port": 0}}],
//	     "outputs": [{"name": "spectrum", "type": "analog"}]}
//	  ]
//	}
//
// # Entity Kinds
//
//   - [KindChannel]: a physical acquisition channel. Physically sourced, no inputs.
//   - [KindTrigger]: an instrument trigger; may consume channels.
//   - [KindFilter]: a processing block.
//   - [KindExport]: a sink that writes data somewhere.
//
// Channels are the "primary" kind: the layout engine places them first in
// each column so the most important row stays stable.
//
// # Cycles
//
// [Graph.Connect] refuses connections that would close a cycle. Graphs loaded
// from files, or built with [Block.SetSource], are not checked until
// [Graph.Validate] runs, so callers can construct cyclic graphs on purpose.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use.
package graph
