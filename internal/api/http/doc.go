// Package http serves the tool registry over JSON/HTTP.
//
// Routes:
//   - GET  /, /health: liveness and registry stats
//   - GET  /services, POST /services/discover: service listing and intent search
//   - GET  /tools, GET /tools/:id: tool definitions, fuzzy-filtered with ?q=
//   - POST /tools/:id: execute with the body as params
//   - POST /services/execute: execute {"tool_id", "params"}
//   - GET  /metrics, /metrics/json: Prometheus exposition and running totals
//
// Every execution answers with a types.Result. Failure kinds map onto
// statuses: path_restricted 403, not_found 404, already_exists and
// not_unique 409, invalid_argument 400, io_error 500.
package http
