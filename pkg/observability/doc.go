// Package observability provides Prometheus metrics for the authorization
// core: decision outcomes, role cache behavior, and role compilation cost,
// plus HTTP metrics for the administrative surface.
package observability
