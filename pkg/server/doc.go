// Package server exposes the layout pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz               liveness check
//	POST /v1/layout             layout a graph, optionally rendering artifacts
//	POST /v1/render/{format}    layout a graph and return one artifact raw
//	POST /v1/hittest            layout a graph and pick the item under a point
//
// Request bodies carry the graph either as a JSON object ("graph") or as
// TOML text ("graph_toml"), plus optional layout options. Every response
// carries an X-Request-ID header. Errors are JSON objects with a machine
// readable code:
//
//	{"code": "GRAPH_CYCLE", "message": "graph contains a cycle: ..."}
package server
