// Package store is the Local Store collaborator of the sync engine.
//
// It owns every reconciled entity by ID. Relationships between entities are
// identifier edges (a post's AuthorID, RepostOfID, QuoteOfID) and explicit
// relation tables (viewer edges, media, mentions); there are no owning
// references between records.
//
// # Unit of work
//
// A reconcile pass collects every write for one top-level entity into a
// Changes value and hands it to Store.Commit, which applies it atomically:
// either all records of the pass become visible or none do.
//
// # Implementations
//
//   - GormStore: backed by any gorm dialect (sqlite, mysql, postgres).
//   - MemoryStore: a map-backed store for tests and dry runs.
//
// Both are expected to be driven by a single logical writer. Reads are safe
// from any goroutine.
package store
