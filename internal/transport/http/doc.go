// Package http exposes the masters over a read-mostly JSON API.
//
// Handlers stay thin: they parse and validate the request, call a service
// and render the result with go-chi/render. Every failure goes through
// errors.ErrorHandler and is answered as RFC 7807 problem details.
//
// Routes:
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/stats
//	GET  /api/masters/{kind}?mpn=
//	GET  /api/summary/{kind}
//	GET  /api/parts/random?count=&min_price=&max_manufacturers=
//	GET  /api/processing-log?limit=
//	POST /api/rescan
//	POST /api/export
//	GET  /ws
//	GET  /metrics
package http
