// Package httpserver serves the stmctl admin endpoints.
//
//   - server.go: http.Server lifecycle
//   - router.go: route table and middleware wiring
//   - middleware.go: request ID, panic recovery, access log, rate limit
//
// Handlers live in the handler subpackage.
package httpserver
