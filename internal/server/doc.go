// Package server assembles the HTTP stack shared by 'scaffold serve' and
// 'scaffold dev': a chi router with request IDs, panic recovery, request
// logging, Prometheus metrics and OpenTelemetry tracing in front of the
// mounted application, plus /healthz and /metrics.
//
// Run serves a handler until its context is cancelled and then shuts the
// listener down gracefully.
package server
