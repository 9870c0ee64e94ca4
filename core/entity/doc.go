// Package entity defines the decoded shape of remote social-graph objects.
//
// Entities are what remote fetchers produce and what the reconcile engine
// consumes. They are intentionally partial: every mergeable field is a pointer
// (or a nil slice) so that "absent in this payload" can be told apart from
// "present and empty". List endpoints routinely omit fields that detail
// endpoints populate, and the reconcile engine only applies what is present.
//
// # Kinds
//
//   - Post: a status, tweet or toot. May embed its Author, a RepostOf and a QuoteOf.
//   - Account: a user profile with optional viewer-relative Relationship flags.
//
// Both implement the Entity interface so a page may carry either kind.
package entity
