// Package server exposes the solver over HTTP.
//
// Routes:
//
//	POST /v1/solve       {"cipherText": "..."} -> solve report
//	POST /v1/decode      {"cipherText", "rows", "order"} -> one reading
//	GET  /v1/dimensions  ?length=N -> grid shapes
//	GET  /healthz        liveness
//	GET  /metrics        Prometheus exposition
package server
