package timeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"feedsync/core/entity"
	"feedsync/core/reconcile"
	"feedsync/core/store"
	"feedsync/feature/remote"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// step is one scripted fetch outcome. A non-nil release channel holds the
// response back until it is closed, regardless of cancellation. A non-nil
// started channel is closed once the step is taken by a fetch.
type step struct {
	page    remote.Page
	err     error
	release chan struct{}
	started chan struct{}
}

// held returns a step whose response waits for release, and the channel
// closed when a fetch has taken it.
func held(p remote.Page, release chan struct{}) (step, chan struct{}) {
	started := make(chan struct{})
	return step{page: p, release: release, started: started}, started
}

func awaitStarted(t *testing.T, started chan struct{}) {
	t.Helper()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never started")
	}
}

type scriptedFetcher struct {
	mu      sync.Mutex
	steps   []step
	cursors []remote.Cursor
}

func newScriptedFetcher(steps ...step) *scriptedFetcher {
	return &scriptedFetcher{steps: steps}
}

func (s *scriptedFetcher) Fetch(_ context.Context, cursor remote.Cursor, _ int) (remote.Page, error) {
	s.mu.Lock()
	s.cursors = append(s.cursors, cursor)
	if len(s.steps) == 0 {
		s.mu.Unlock()
		return remote.Page{}, nil
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	s.mu.Unlock()

	if st.started != nil {
		close(st.started)
	}
	if st.release != nil {
		<-st.release
	}
	return st.page, st.err
}

func (s *scriptedFetcher) calls() []remote.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.Cursor(nil), s.cursors...)
}

func posts(ids ...string) []entity.Entity {
	out := make([]entity.Entity, len(ids))
	for i, id := range ids {
		out[i] = &entity.Post{ID: id, Text: entity.String("post " + id), AuthorID: entity.String("author")}
	}
	return out
}

func page(next string, ids ...string) step {
	p := remote.Page{Entities: posts(ids...)}
	if next != "" {
		p.Next = remote.Cursor{Token: next}
		p.HasMore = true
	}
	return step{page: p}
}

func failure(kind remote.Kind) step {
	return step{err: &remote.Error{Kind: kind, Backend: "test", Err: fmt.Errorf("scripted %s", kind)}}
}

func newTestFeed(t *testing.T, st store.Store, fetcher remote.Fetcher, configure func(*FeedOptions)) *Feed {
	t.Helper()
	if st == nil {
		st = store.NewMemoryStore()
	}
	opts := FeedOptions{
		ID:             "home",
		Fetcher:        fetcher,
		Reconciler:     reconcile.New(st, zap.NewNop()),
		Store:          st,
		RetryDelay:     5 * time.Millisecond,
		RateLimitDelay: 5 * time.Millisecond,
		Debounce:       time.Millisecond,
	}
	if configure != nil {
		configure(&opts)
	}
	f, err := NewFeed(opts)
	require.NoError(t, err)
	t.Cleanup(f.Teardown)
	return f
}

// waitFor blocks until the feed snapshot satisfies cond.
func waitFor(t *testing.T, f *Feed, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, version := f.Snapshot().Load()
	for !cond(s) {
		var err error
		s, version, err = f.Snapshot().Wait(ctx, version)
		require.NoError(t, err, "last snapshot: %+v", s)
	}
	return s
}

func inState(state State) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.State == state }
}

// failingStore rejects every commit.
type failingStore struct {
	*store.MemoryStore
}

func (s failingStore) Commit(context.Context, *store.Changes) error {
	return fmt.Errorf("%w: disk full", store.ErrCommit)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, feed string, body []byte) (string, error) {
	args := m.Called(ctx, feed, body)
	return args.String(0), args.Error(1)
}

type recordingObserver struct {
	mu          sync.Mutex
	fetches     []string
	transitions []string
	gaps        []string
}

func (o *recordingObserver) FetchCompleted(feed, kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches = append(o.fetches, feed+":"+kind)
}

func (o *recordingObserver) Transitioned(feed string, from, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, string(from)+">"+string(to))
}

func (o *recordingObserver) GapCompleted(feed string, state GapState, fallback bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gaps = append(o.gaps, fmt.Sprintf("%s:%t", state, fallback))
}

func (o *recordingObserver) snapshot() (fetches, transitions, gaps []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.fetches...), append([]string(nil), o.transitions...), append([]string(nil), o.gaps...)
}
