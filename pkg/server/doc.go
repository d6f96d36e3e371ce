// Package server provides the HTTP API for the Saturn cost-governance
// engine.
//
// # Overview
//
// The server exposes the engine to callers that execute operations
// elsewhere and consult Saturn for admission and accounting:
//
//	POST /v1/admission          admission check for a projected cost
//	POST /v1/operations         report a completed operation (track + enforce)
//	GET  /v1/budget/status      current budget status across all rules
//	GET  /v1/budget/summary     cost summary over a window
//	GET  /v1/violations         list budget violations
//	POST /v1/violations/resolve mark a violation resolved
//	GET  /v1/history            aggregated cost history
//	GET  /v1/trends             period-over-period cost trends
//	GET  /v1/anomalies          statistical cost anomalies
//	GET  /health                liveness probe
//	GET  /metrics               Prometheus metrics
//
// Callers report projected costs from their own dry runs; the server
// admits or denies against the shared budget and records actual
// consumption when operations complete.
//
// Requests pass through a middleware chain (recovery, request ID,
// logging) before reaching handlers. All bodies are JSON.
package server
