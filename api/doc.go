// Package api serves the engine's operational HTTP surface.
//
// The api package provides:
//   - Read-only session inspection endpoints for operators
//   - A liveness endpoint for orchestration probes
//   - The Prometheus metrics endpoint
//
// The surface is intentionally read-only: every game mutation travels the
// binary protocol through the router, so operators can observe sessions
// without a second write path to keep consistent.
//
// Endpoints:
//
//	GET /healthz              liveness
//	GET /api/sessions         list live sessions
//	GET /api/sessions/{id}    one session in detail
//	GET /metrics              Prometheus exposition
package api
