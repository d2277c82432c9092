// Package middleware holds the HTTP middleware chain of the query API:
// request IDs, structured request logging, panic recovery, rate limiting,
// CORS, OpenTelemetry instrumentation and request validation.
package middleware
