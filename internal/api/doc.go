// Package api hosts the HTTP server, middleware, and handlers for the
// gateway. Notable routes:
//   - GET / for the static service descriptor.
//   - GET/POST/OPTIONS /api for the JSON fetch surface (CORS-enabled).
//   - /mcp and /sse for the MCP transports, rate-limit gated.
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
