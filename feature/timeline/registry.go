package timeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrFeedNotFound is returned for unknown feed identifiers.
var ErrFeedNotFound = errors.New("feed not found")

// Registry holds the live feeds of a process, keyed by id.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]*Feed
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]*Feed)}
}

// Add registers f. Identifiers must be unique. Pages committed by f refresh
// the projections of the other registered feeds, which share the store.
func (r *Registry) Add(f *Feed) error {
	r.mu.Lock()
	if _, ok := r.feeds[f.ID()]; ok {
		r.mu.Unlock()
		return fmt.Errorf("feed %q already registered", f.ID())
	}
	r.feeds[f.ID()] = f
	r.mu.Unlock()
	f.OnCommit(r.invalidateOthers)
	return nil
}

// invalidateOthers schedules a projection recompute on every feed but from.
func (r *Registry) invalidateOthers(from string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, f := range r.feeds {
		if id != from {
			f.proj.Invalidate()
		}
	}
}

// Get returns the feed with id.
func (r *Registry) Get(id string) (*Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.feeds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFeedNotFound, id)
	}
	return f, nil
}

// Snapshots returns the state of every feed, ordered by id.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	feeds := make([]*Feed, 0, len(r.feeds))
	for _, f := range r.feeds {
		feeds = append(feeds, f)
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(feeds))
	for _, f := range feeds {
		s, _ := f.Snapshot().Load()
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feed < out[j].Feed })
	return out
}

// Remove tears down and unregisters the feed with id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	f, ok := r.feeds[id]
	delete(r.feeds, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrFeedNotFound, id)
	}
	f.Teardown()
	return nil
}

// Close tears down every feed.
func (r *Registry) Close() {
	r.mu.Lock()
	feeds := r.feeds
	r.feeds = make(map[string]*Feed)
	r.mu.Unlock()
	for _, f := range feeds {
		f.Teardown()
	}
}
