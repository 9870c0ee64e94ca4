package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by lookups for identifiers the store does not hold.
	ErrNotFound = errors.New("not found")

	// ErrCommit wraps every failure to apply a Changes set.
	ErrCommit = errors.New("store commit failed")
)

// Store is the keyed, queryable persistence layer the engine writes through.
type Store interface {
	// FindPost returns a copy of the post record, or ErrNotFound.
	FindPost(ctx context.Context, id string) (*PostRecord, error)

	// FindAccount returns a copy of the account record, or ErrNotFound.
	FindAccount(ctx context.Context, id string) (*AccountRecord, error)

	// PostsByID returns the subset of ids the store holds, keyed by id.
	PostsByID(ctx context.Context, ids []string) (map[string]*PostRecord, error)

	// AccountsByID returns the subset of ids the store holds, keyed by id.
	AccountsByID(ctx context.Context, ids []string) (map[string]*AccountRecord, error)

	// Media returns the ordered attachments of a post.
	Media(ctx context.Context, postID string) ([]MediaRecord, error)

	// Mentions returns the ordered mentions of a post.
	Mentions(ctx context.Context, postID string) ([]MentionRecord, error)

	// HasEdge reports whether the viewer edge exists.
	HasEdge(ctx context.Context, edge EdgeRecord) (bool, error)

	// Commit applies all changes atomically. Failures wrap ErrCommit.
	Commit(ctx context.Context, changes *Changes) error
}

// Changes collects the writes of one reconcile pass.
//
// Records put into Changes are visible to later lookups of the same pass
// through Post and Account, which lets the reconciler reuse in-flight records.
type Changes struct {
	posts        map[string]*PostRecord
	postOrder    []string
	accounts     map[string]*AccountRecord
	accountOrder []string
	media        map[string][]MediaRecord
	mentions     map[string][]MentionRecord
	edges        map[EdgeRecord]bool
	edgeOrder    []EdgeRecord
}

// NewChanges returns an empty change set.
func NewChanges() *Changes {
	return &Changes{
		posts:    make(map[string]*PostRecord),
		accounts: make(map[string]*AccountRecord),
		media:    make(map[string][]MediaRecord),
		mentions: make(map[string][]MentionRecord),
		edges:    make(map[EdgeRecord]bool),
	}
}

// PutPost stages a post record for upsert.
func (c *Changes) PutPost(r *PostRecord) {
	if _, ok := c.posts[r.ID]; !ok {
		c.postOrder = append(c.postOrder, r.ID)
	}
	c.posts[r.ID] = r
}

// PutAccount stages an account record for upsert.
func (c *Changes) PutAccount(r *AccountRecord) {
	if _, ok := c.accounts[r.ID]; !ok {
		c.accountOrder = append(c.accountOrder, r.ID)
	}
	c.accounts[r.ID] = r
}

// Post returns a staged post record.
func (c *Changes) Post(id string) (*PostRecord, bool) {
	r, ok := c.posts[id]
	return r, ok
}

// Account returns a staged account record.
func (c *Changes) Account(id string) (*AccountRecord, bool) {
	r, ok := c.accounts[id]
	return r, ok
}

// ReplaceMedia stages the full attachment list of a post.
func (c *Changes) ReplaceMedia(postID string, media []MediaRecord) {
	c.media[postID] = media
}

// ReplaceMentions stages the full mention list of a post.
func (c *Changes) ReplaceMentions(postID string, mentions []MentionRecord) {
	c.mentions[postID] = mentions
}

// SetEdge stages the presence or absence of a viewer edge.
func (c *Changes) SetEdge(edge EdgeRecord, present bool) {
	if _, ok := c.edges[edge]; !ok {
		c.edgeOrder = append(c.edgeOrder, edge)
	}
	c.edges[edge] = present
}

// Empty reports whether the change set holds no writes.
func (c *Changes) Empty() bool {
	return len(c.posts) == 0 && len(c.accounts) == 0 && len(c.media) == 0 &&
		len(c.mentions) == 0 && len(c.edges) == 0
}

// Posts returns staged posts in staging order.
func (c *Changes) Posts() []*PostRecord {
	out := make([]*PostRecord, 0, len(c.postOrder))
	for _, id := range c.postOrder {
		out = append(out, c.posts[id])
	}
	return out
}

// Accounts returns staged accounts in staging order.
func (c *Changes) Accounts() []*AccountRecord {
	out := make([]*AccountRecord, 0, len(c.accountOrder))
	for _, id := range c.accountOrder {
		out = append(out, c.accounts[id])
	}
	return out
}

// MediaSets returns staged attachment replacements keyed by post id.
func (c *Changes) MediaSets() map[string][]MediaRecord {
	return c.media
}

// MentionSets returns staged mention replacements keyed by post id.
func (c *Changes) MentionSets() map[string][]MentionRecord {
	return c.mentions
}

// Edges calls fn for each staged edge in staging order.
func (c *Changes) Edges(fn func(edge EdgeRecord, present bool)) {
	for _, e := range c.edgeOrder {
		fn(e, c.edges[e])
	}
}
