// Package history persists fingerprint events to a local SQLite store.
//
// The store is a lightweight audit trail: every controller event the
// bridge observes is recorded with its correlation ID and a JSON detail
// blob, retrievable newest-first through the diagnostics API. Retention
// is bounded by periodic pruning.
package history
