// Package integrity provides health checks of the sync engine's backends.
//
// # Checks Provided
//
//   - Schema: every table and column of the local store exists in the connected database.
//   - Archive: the skipped page bucket exists; archived pages are counted per feed.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/archive : Runs the archive check (supports ?fix=true).
package integrity
