package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	mu       sync.RWMutex
	posts    map[string]*PostRecord
	accounts map[string]*AccountRecord
	media    map[string][]MediaRecord
	mentions map[string][]MentionRecord
	edges    map[EdgeRecord]struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:    make(map[string]*PostRecord),
		accounts: make(map[string]*AccountRecord),
		media:    make(map[string][]MediaRecord),
		mentions: make(map[string][]MentionRecord),
		edges:    make(map[EdgeRecord]struct{}),
	}
}

func (s *MemoryStore) FindPost(ctx context.Context, id string) (*PostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(r), nil
}

func (s *MemoryStore) FindAccount(ctx context.Context, id string) (*AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(r), nil
}

func (s *MemoryStore) PostsByID(ctx context.Context, ids []string) (map[string]*PostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*PostRecord, len(ids))
	for _, id := range ids {
		if r, ok := s.posts[id]; ok {
			out[id] = clonePost(r)
		}
	}
	return out, nil
}

func (s *MemoryStore) AccountsByID(ctx context.Context, ids []string) (map[string]*AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*AccountRecord, len(ids))
	for _, id := range ids {
		if r, ok := s.accounts[id]; ok {
			out[id] = cloneAccount(r)
		}
	}
	return out, nil
}

func (s *MemoryStore) Media(ctx context.Context, postID string) ([]MediaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.media[postID]), nil
}

func (s *MemoryStore) Mentions(ctx context.Context, postID string) ([]MentionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MentionRecord, len(s.mentions[postID]))
	for i, m := range s.mentions[postID] {
		m.UserID = cloneString(m.UserID)
		out[i] = m
	}
	return out, nil
}

func (s *MemoryStore) HasEdge(ctx context.Context, edge EdgeRecord) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[edge]
	return ok, nil
}

// Commit applies the change set under the write lock.
func (s *MemoryStore) Commit(ctx context.Context, changes *Changes) error {
	if err := ctx.Err(); err != nil {
		return commitError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range changes.Posts() {
		s.posts[r.ID] = clonePost(r)
	}
	for _, r := range changes.Accounts() {
		s.accounts[r.ID] = cloneAccount(r)
	}
	for postID, media := range changes.MediaSets() {
		s.media[postID] = slices.Clone(media)
	}
	for postID, mentions := range changes.MentionSets() {
		s.mentions[postID] = slices.Clone(mentions)
	}
	changes.Edges(func(edge EdgeRecord, present bool) {
		if present {
			s.edges[edge] = struct{}{}
		} else {
			delete(s.edges, edge)
		}
	})
	return nil
}

// Counts returns the number of stored posts and accounts.
func (s *MemoryStore) Counts() (posts, accounts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts), len(s.accounts)
}
