// Package middleware provides net/http middleware for scaffold servers.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request metrics
//   - Structured request logging with log/slog
//
// All middleware share the func(http.Handler) http.Handler shape, so they
// compose with chi:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Logging(logger))
//	r.Use(middleware.Metrics())
//	r.Use(middleware.Tracing(middleware.WithTracerName("my-site")))
//
// # Route Labels
//
// Request paths are unbounded, so metrics and spans are labelled with the
// name of the route that handled the request instead. The outermost
// middleware installs a holder in the request context; the page handler
// fills it with SetRouteName once the route table has been consulted.
// Requests that never reach a route are labelled "unmatched".
//
// # Prometheus Metrics
//
//   - scaffold_http_requests_total: requests by route, method and status
//   - scaffold_http_request_duration_seconds: latency histogram by route
//   - scaffold_http_requests_in_flight: requests currently being served
//   - scaffold_builds_total: dev server rebuilds by result
//
// Expose them with promhttp:
//
//	r.Handle("/metrics", promhttp.Handler())
package middleware
