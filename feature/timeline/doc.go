// Package timeline drives paginated feeds on top of the reconciler.
//
// A Feed owns an Accumulator (ordered, duplicate-free identifiers), a cursor and
// a pagination state machine:
//
//	Initial --activate--> Reset --begin--> Loading
//	Loading --more--> Idle      Loading --last--> NoMore     Loading --failed--> Fail
//	Idle --load--> Loading      Fail --retry/load--> Loading
//	Idle, Fail, NoMore, Loading --reset--> Reset
//
// Transitions are table driven; anything else is rejected with a *TransitionError.
// Each Reset bumps a generation counter and cancels the in-flight fetch, so a
// response that arrives late is discarded instead of being applied to the fresh
// accumulator.
//
// FillGap runs a secondary Loading -> Success/Fail machine per anchor item. A
// rate-limited primary fetch switches the instance to the fallback fetcher for
// the rest of its life.
//
// Consumers read state through observable values rather than callbacks:
//
//	snap, version := feed.Snapshot().Load()
//	proj, _, err := feed.Projection().Wait(ctx, lastSeen)
//
// Projections are recomputed at most once per debounce window and preserve the
// accumulator order, skipping ids the store does not hold yet.
package timeline
