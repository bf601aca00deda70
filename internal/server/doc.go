// Package server hosts the Fiber HTTP service for inkhub: the middleware chain
// (recover, request ID, access log), the {code, msg, data} response envelope,
// the mapping from domain errors to HTTP status codes, and the shared upstream
// HTTP client used by the GitHub store. Route handlers live in server/routes
// and receive their dependencies explicitly.
package server
