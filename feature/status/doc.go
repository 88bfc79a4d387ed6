// Package status exposes the running watch over HTTP.
//
// # HTTP Endpoints
//
//   - GET /status : roots, watch state, last full sync, event counters.
//   - POST /sync : forces a full sync; concurrent requests share one run.
//   - GET /check : drift report of the output tree (missing, stale, orphan).
//   - GET /resolve?path= : tier and output location of a path.
package status
