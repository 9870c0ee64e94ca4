package timeline

import (
	"slices"
	"sync"
)

// InsertMode selects where a loaded page lands in the accumulator.
type InsertMode string

const (
	// InsertAppend adds pages at the tail, for feeds paged from newest to oldest.
	InsertAppend InsertMode = "append"
	// InsertPrepend adds pages at the head, for feeds paged from oldest to newest.
	InsertPrepend InsertMode = "prepend"
)

// Accumulator is the ordered, duplicate-free membership list of one feed.
// It stores identifiers only; entities are resolved from the store on projection.
type Accumulator struct {
	mu    sync.Mutex
	ids   []string
	index map[string]struct{}
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{index: make(map[string]struct{})}
}

// Append adds ids not already present at the tail, in input order. It returns the added ids.
func (a *Accumulator) Append(ids []string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	added := a.fresh(ids)
	a.ids = append(a.ids, added...)
	return added
}

// Prepend adds ids not already present at the head, keeping their input order.
// It returns the added ids.
func (a *Accumulator) Prepend(ids []string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	added := a.fresh(ids)
	if len(added) > 0 {
		a.ids = append(slices.Clone(added), a.ids...)
	}
	return added
}

// InsertAfter splices ids not already present right after anchor.
func (a *Accumulator) InsertAfter(anchor string, ids []string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pos := slices.Index(a.ids, anchor)
	if pos < 0 {
		return nil, ErrUnknownAnchor
	}
	added := a.fresh(ids)
	if len(added) > 0 {
		a.ids = slices.Insert(a.ids, pos+1, added...)
	}
	return added, nil
}

// Add inserts ids according to mode.
func (a *Accumulator) Add(mode InsertMode, ids []string) []string {
	if mode == InsertPrepend {
		return a.Prepend(ids)
	}
	return a.Append(ids)
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ids = nil
	a.index = make(map[string]struct{})
}

// Current returns a copy of the ordered identifiers.
func (a *Accumulator) Current() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.ids)
}

// Contains reports whether id is a member.
func (a *Accumulator) Contains(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.index[id]
	return ok
}

// Len returns the number of members.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids)
}

// Index returns the position of id or -1.
func (a *Accumulator) Index(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.index[id]; !ok {
		return -1
	}
	return slices.Index(a.ids, id)
}

// fresh filters ids to unseen ones, in order, and marks them seen. Caller holds mu.
func (a *Accumulator) fresh(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := a.index[id]; ok {
			continue
		}
		a.index[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
