// Package server holds the calsync application container and the HTTP
// servers that expose it.
//
// # Key Components
//
// ServerContext owns the store, the cache and the services built on them
// (calendar manager, event orchestrator, location service). REST handlers
// and MCP tools reach the services through it.
//
// HTTPServer serves one mux router carrying:
//   - the REST API under /api
//   - the MCP streamable HTTP endpoint at /mcp
//   - health probes at /healthz, /readyz and /healthz/detailed
//
// MetricsServer exposes Prometheus metrics on a dedicated port so that
// operational data stays off the application listener.
package server
