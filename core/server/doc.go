// Package server holds the HTTP server configuration.
//
// The start command builds the fiber app from it: listen port, the API key
// checked by the auth middleware, the graceful shutdown bound and the path of
// the prometheus endpoint.
package server
