// Package reconcile upserts decoded remote entities into the local store.
//
// A reconcile pass walks one top-level entity post-order: embedded authors,
// repost targets and quote targets are reconciled before the record that
// references them, so a child row always exists before its parent points at it.
// All writes of a pass are staged in a store.Changes set and committed together.
//
// # Merge policy
//
// Every record carries the freshness (observation time) of the last merge that
// touched it. An incoming payload is merged only when its freshness is strictly
// newer, which makes replays and out-of-order arrivals no-ops:
//
//	r := reconcile.New(st, log)
//	res, err := r.Reconcile(ctx, post, fetchedAt, &viewerID)
//
// Only fields present in the payload (non-nil) are applied. Metrics merge per
// counter. Media and mentions are replaced as a whole when the payload carries
// them. Viewer-relative edges are written only when a viewer is supplied.
//
// # Cycles
//
// Repost and quote chains are followed up to Options.MaxDepth levels. An ID that
// reappears while it is still being reconciled higher up the chain is wired by
// identifier and not reconciled again.
package reconcile
