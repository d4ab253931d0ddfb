// Package api exposes the admin HTTP surface of the authorization node:
// an authorization check endpoint, role cache management, and health and
// metrics endpoints.
//
// # Endpoints
//
//	POST /api/v1/authorize          — compute an access decision
//	POST /api/v1/cache/roles/clear  — drop cached roles (all, or by name)
//	GET  /api/v1/roles              — list role names defined in storage
//	GET  /healthz                   — liveness probe
//	GET  /metrics                   — Prometheus metrics
//
// Clearing the cache is idempotent: repeating a clear, or naming roles that
// are not cached, is harmless.
package api
