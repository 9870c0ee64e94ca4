// Package metrics exposes prometheus collectors for the sync engine.
//
// A Collector counts applied fetches, state transitions, gap fill outcomes
// and reconciler outcomes, and carries an HTTP middleware for request counts
// and latency. Collectors are registered on an injected registry so tests
// can use a fresh one.
package metrics
