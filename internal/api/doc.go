// Package api hosts the HTTP server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/search to run an aggregated multi-source search.
//   - GET /v1/records and POST /v1/records/{id}/status for review workflow.
package api
