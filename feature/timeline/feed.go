package timeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"feedsync/core/entity"
	"feedsync/core/reconcile"
	"feedsync/core/store"
	"feedsync/feature/remote"

	"go.uber.org/zap"
)

// Default delays between automatic retries.
const (
	DefaultRetryDelay     = 3 * time.Second
	DefaultRateLimitDelay = 60 * time.Second
	DefaultPageSize       = 20
)

// errorKindCommit labels store commit failures in snapshots and metrics.
const errorKindCommit = "store_commit"

// Observer receives engine outcomes, typically for metrics.
type Observer interface {
	// FetchCompleted is called once per applied fetch; kind is empty on success.
	FetchCompleted(feed string, kind string)
	Transitioned(feed string, from, to State)
	GapCompleted(feed string, state GapState, fallback bool)
}

// PageArchive keeps the raw body of pages that could not be decoded.
type PageArchive interface {
	Archive(ctx context.Context, feed string, body []byte) (string, error)
}

// Snapshot is the externally visible state of a feed.
type Snapshot struct {
	Feed       string        `json:"feed"`
	State      State         `json:"state"`
	Generation uint64        `json:"generation"`
	Cursor     remote.Cursor `json:"cursor"`
	HasMore    bool          `json:"has_more"`
	Items      int           `json:"items"`
	Retries    int           `json:"retries"`
	LastError  string        `json:"last_error,omitempty"`
	ErrorKind  string        `json:"error_kind,omitempty"`
	Gaps       []GapSnapshot `json:"gaps"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// FeedOptions configures a Feed.
type FeedOptions struct {
	ID   string
	Kind entity.Kind

	Fetcher remote.Fetcher
	// Fallback serves gap fills once the primary fetcher is rate limited. Optional.
	Fallback remote.Fetcher

	Reconciler *reconcile.Reconciler
	Store      store.Store
	ViewerID   *string

	PageSize       int
	Insert         InsertMode
	RetryDelay     time.Duration
	RateLimitDelay time.Duration
	// MaxAutoRetries caps consecutive automatic retries. Zero means one retry,
	// a negative value disables automatic retries.
	MaxAutoRetries int

	Debounce  time.Duration
	Filter    Filter
	Publisher Publisher
	Archive   PageArchive
	Observer  Observer
	Logger    *zap.Logger
	// Now assigns freshness to fetched pages.
	Now func() time.Time
}

// Feed is the pagination state machine of one logical feed. Its mutex is the
// single writer of the feed's state, cursor and accumulator: fetch results are
// applied one at a time under it.
type Feed struct {
	opts       FeedOptions
	maxRetries int
	log        *zap.Logger

	root     context.Context
	rootStop context.CancelFunc

	acc  *Accumulator
	proj *Projector
	snap *Value[Snapshot]

	mu         sync.Mutex
	state      State
	gen        uint64
	cursor     remote.Cursor
	hasMore    bool
	retries    int
	lastErr    error
	errKind    string
	cancel     context.CancelFunc
	retryTimer *time.Timer
	gaps       map[string]*gapFill
	torn       bool
	onCommit   func(feed string)
}

// NewFeed creates a feed in StateInitial.
func NewFeed(opts FeedOptions) (*Feed, error) {
	switch {
	case opts.ID == "":
		return nil, errors.New("feed id is required")
	case opts.Fetcher == nil:
		return nil, errors.New("feed fetcher is required")
	case opts.Reconciler == nil:
		return nil, errors.New("feed reconciler is required")
	case opts.Store == nil:
		return nil, errors.New("feed store is required")
	}
	if opts.Kind == "" {
		opts.Kind = entity.KindPost
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Insert == "" {
		opts.Insert = InsertAppend
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.RateLimitDelay <= 0 {
		opts.RateLimitDelay = DefaultRateLimitDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	maxRetries := opts.MaxAutoRetries
	switch {
	case maxRetries == 0:
		maxRetries = 1
	case maxRetries < 0:
		maxRetries = 0
	}

	log := opts.Logger.With(zap.String("feed", opts.ID))
	acc := NewAccumulator()
	root, stop := context.WithCancel(context.Background())
	f := &Feed{
		opts:       opts,
		maxRetries: maxRetries,
		log:        log,
		root:       root,
		rootStop:   stop,
		acc:        acc,
		proj: NewProjector(acc, opts.Store, ProjectorOptions{
			Feed:      opts.ID,
			Kind:      opts.Kind,
			Filter:    opts.Filter,
			Debounce:  opts.Debounce,
			Publisher: opts.Publisher,
			Logger:    log,
		}),
		state: StateInitial,
		gaps:  make(map[string]*gapFill),
	}
	f.snap = NewValue(f.snapshotLocked())
	return f, nil
}

// ID returns the feed identifier.
func (f *Feed) ID() string { return f.opts.ID }

// Snapshot returns the observable feed state.
func (f *Feed) Snapshot() *Value[Snapshot] { return f.snap }

// Projection returns the observable projection.
func (f *Feed) Projection() *Value[Projection] { return f.proj.Output() }

// Projector returns the feed projector.
func (f *Feed) Projector() *Projector { return f.proj }

// Items returns the accumulated identifiers.
func (f *Feed) Items() []string { return f.acc.Current() }

// Activate leaves StateInitial and starts the first load.
func (f *Feed) Activate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn {
		return ErrTornDown
	}
	if err := f.transitionLocked(EventActivate); err != nil {
		return err
	}
	return f.beginLocked()
}

// Load requests the next page. A feed in StateInitial is activated.
func (f *Feed) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn {
		return ErrTornDown
	}
	if f.state == StateInitial {
		if err := f.transitionLocked(EventActivate); err != nil {
			return err
		}
		return f.beginLocked()
	}
	if err := f.transitionLocked(EventLoad); err != nil {
		return err
	}
	f.stopRetryLocked()
	f.retries = 0
	f.startFetchLocked()
	return nil
}

// Reset abandons the cursor and accumulated items and loads from scratch.
// Responses of fetches issued before the reset are discarded.
func (f *Feed) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn {
		return ErrTornDown
	}
	if err := f.transitionLocked(EventReset); err != nil {
		return err
	}
	return f.beginLocked()
}

// Teardown cancels outstanding fetches, retries and gap fills. Late results are dropped.
func (f *Feed) Teardown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn {
		return
	}
	f.torn = true
	f.gen++
	f.stopRetryLocked()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.cancelGapsLocked()
	f.rootStop()
	f.proj.Stop()
	f.log.Debug("Feed torn down", zap.Uint64("generation", f.gen))
	f.publishLocked()
}

// beginLocked runs the Reset state: it invalidates in-flight work, clears the
// accumulator and cursor, then enters Loading.
func (f *Feed) beginLocked() error {
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.stopRetryLocked()
	f.cancelGapsLocked()
	f.gaps = make(map[string]*gapFill)
	f.acc.Reset()
	f.cursor = remote.Cursor{}
	f.hasMore = false
	f.retries = 0
	f.lastErr = nil
	f.errKind = ""
	f.proj.Invalidate()

	if err := f.transitionLocked(EventBegin); err != nil {
		return err
	}
	f.startFetchLocked()
	return nil
}

func (f *Feed) startFetchLocked() {
	ctx, cancel := context.WithCancel(f.root)
	f.cancel = cancel
	gen, cursor := f.gen, f.cursor
	go func() {
		page, err := f.opts.Fetcher.Fetch(ctx, cursor, f.opts.PageSize)
		f.apply(ctx, gen, page, err, f.opts.Now())
	}()
}

// apply re-enters the writer context with one fetch result.
func (f *Feed) apply(ctx context.Context, gen uint64, page remote.Page, fetchErr error, freshness time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn || gen != f.gen {
		f.log.Debug("Discarding fetch result",
			zap.Uint64("generation", gen),
			zap.Uint64("current", f.gen),
			zap.Error(ErrStale))
		return
	}
	if stop := f.cancel; stop != nil {
		f.cancel = nil
		defer stop()
	}

	if fetchErr != nil {
		f.failLocked(gen, fetchErr)
		return
	}

	res, err := f.opts.Reconciler.ReconcilePage(ctx, page.Entities, freshness, f.opts.ViewerID)
	if errors.Is(err, store.ErrCommit) {
		f.failLocked(gen, err)
		return
	}
	if err != nil {
		f.log.Warn("Some entities were not reconciled", zap.Error(err))
	}
	if len(page.Dropped) > 0 {
		f.log.Warn("Dropped undecodable items", zap.Int("count", len(page.Dropped)), zap.Error(errors.Join(page.Dropped...)))
	}

	f.committedLocked(res.IDs)
	added := f.acc.Add(f.opts.Insert, res.IDs)
	f.cursor = page.Next
	f.hasMore = page.HasMore && !page.Next.IsZero()
	f.retries = 0
	f.lastErr = nil
	f.errKind = ""
	f.observeFetch("")
	f.log.Debug("Page applied",
		zap.Int("received", len(page.Entities)),
		zap.Int("added", len(added)),
		zap.Bool("has_more", f.hasMore))

	ev := EventLast
	if f.hasMore {
		ev = EventMore
	}
	if err := f.transitionLocked(ev); err != nil {
		f.log.Error("Unexpected transition failure", zap.Error(err))
	}
	f.proj.Invalidate()
}

// OnCommit sets fn to run after every page this feed commits to the store,
// replacing any previous hook. fn must not call back into this feed.
func (f *Feed) OnCommit(fn func(feed string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onCommit = fn
}

func (f *Feed) committedLocked(ids []string) {
	if f.onCommit != nil && len(ids) > 0 {
		f.onCommit(f.opts.ID)
	}
}

// failLocked converts a fetch or commit failure into a state transition.
func (f *Feed) failLocked(gen uint64, err error) {
	kind := string(remote.KindOf(err))
	if errors.Is(err, store.ErrCommit) {
		kind = errorKindCommit
	}
	f.lastErr = err
	f.errKind = kind
	f.observeFetch(kind)

	if remote.IsDecode(err) {
		f.archive(err)
		f.log.Warn("Skipping undecodable page", zap.Error(err))
		if terr := f.transitionLocked(EventLast); terr != nil {
			f.log.Error("Unexpected transition failure", zap.Error(terr))
		}
		return
	}

	f.log.Warn("Fetch failed", zap.String("kind", kind), zap.Error(err))
	if terr := f.transitionLocked(EventFailed); terr != nil {
		f.log.Error("Unexpected transition failure", zap.Error(terr))
		return
	}

	if remote.IsUnauthorized(err) {
		return
	}
	if f.retries >= f.maxRetries {
		f.log.Info("Automatic retries exhausted", zap.Int("retries", f.retries))
		return
	}
	delay := f.opts.RetryDelay
	if remote.IsRateLimited(err) {
		delay = max(f.opts.RateLimitDelay, remote.RetryAfter(err))
	}
	f.retryTimer = time.AfterFunc(delay, func() { f.retry(gen) })
}

func (f *Feed) retry(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn || gen != f.gen || f.state != StateFail {
		return
	}
	f.retryTimer = nil
	if err := f.transitionLocked(EventRetry); err != nil {
		return
	}
	f.retries++
	f.startFetchLocked()
}

func (f *Feed) stopRetryLocked() {
	if f.retryTimer != nil {
		f.retryTimer.Stop()
		f.retryTimer = nil
	}
}

func (f *Feed) archive(err error) {
	var re *remote.Error
	if f.opts.Archive == nil || !errors.As(err, &re) || len(re.Body) == 0 {
		return
	}
	body := re.Body
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		key, err := f.opts.Archive.Archive(ctx, f.opts.ID, body)
		if err != nil {
			f.log.Warn("Failed to archive page", zap.Error(err))
			return
		}
		f.log.Info("Archived undecodable page", zap.String("key", key))
	}()
}

func (f *Feed) transitionLocked(ev Event) error {
	from := f.state
	to, err := Transition(from, ev)
	if err != nil {
		return err
	}
	f.state = to
	f.log.Debug("Feed transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("event", string(ev)),
		zap.Uint64("generation", f.gen))
	if f.opts.Observer != nil {
		f.opts.Observer.Transitioned(f.opts.ID, from, to)
	}
	f.publishLocked()
	return nil
}

func (f *Feed) observeFetch(kind string) {
	if f.opts.Observer != nil {
		f.opts.Observer.FetchCompleted(f.opts.ID, kind)
	}
}

func (f *Feed) publishLocked() {
	f.snap.Store(f.snapshotLocked())
}

func (f *Feed) snapshotLocked() Snapshot {
	s := Snapshot{
		Feed:       f.opts.ID,
		State:      f.state,
		Generation: f.gen,
		Cursor:     f.cursor,
		HasMore:    f.hasMore,
		Items:      f.acc.Len(),
		Retries:    f.retries,
		ErrorKind:  f.errKind,
		Gaps:       make([]GapSnapshot, 0, len(f.gaps)),
		UpdatedAt:  f.opts.Now(),
	}
	if f.lastErr != nil {
		s.LastError = f.lastErr.Error()
	}
	for _, g := range f.gaps {
		s.Gaps = append(s.Gaps, g.snapshot())
	}
	sort.Slice(s.Gaps, func(i, j int) bool { return s.Gaps[i].Anchor < s.Gaps[j].Anchor })
	return s
}

// LastError returns the error of the last failed fetch, if any.
func (f *Feed) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// State returns the current pagination state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
