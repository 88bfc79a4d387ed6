// Package server holds the HTTP status server configuration.
//
// The server only runs during `watch` and only when enabled. The cmd package owns
// the fiber app; this package defines the port, the API key and the enable switch.
package server
