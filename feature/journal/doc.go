// Package journal serves the reconcile journal over HTTP.
//
//   - GET /journal?limit= : most recent entries, newest first.
//
// The feature is only enabled when the journal database is configured.
package journal
