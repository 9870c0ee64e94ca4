package timeline

import (
	"context"
	"sync"
	"time"

	"feedsync/core/entity"
	"feedsync/core/store"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultDebounce is the projection coalescing window.
const DefaultDebounce = 100 * time.Millisecond

// Ref is a stable external reference to a projected entity.
type Ref struct {
	ID       string      `json:"id"`
	Kind     entity.Kind `json:"kind"`
	AuthorID string      `json:"author_id,omitempty"`
	Handle   string      `json:"handle,omitempty"`
	// PostedAt is the post creation time in unix milliseconds.
	PostedAt int64 `json:"posted_at,omitempty"`
}

// Filter restricts a projection. It must be free of side effects.
type Filter func(Ref) bool

// ByAuthor keeps posts written by authorID.
func ByAuthor(authorID string) Filter {
	return func(r Ref) bool { return r.AuthorID == authorID }
}

// Projection is the ordered view of one feed.
type Projection struct {
	Feed string `json:"feed"`
	Refs []Ref  `json:"refs"`
}

// Publisher receives every recomputed projection.
type Publisher interface {
	Publish(ctx context.Context, p Projection) error
}

// Projector derives a Projection from an accumulator and the store.
type Projector struct {
	feed     string
	kind     entity.Kind
	acc      *Accumulator
	st       store.Store
	filter   Filter
	debounce time.Duration
	pub      Publisher
	log      *zap.Logger

	out *Value[Projection]
	sf  singleflight.Group

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// ProjectorOptions configures a Projector.
type ProjectorOptions struct {
	Feed      string
	Kind      entity.Kind
	Filter    Filter
	Debounce  time.Duration
	Publisher Publisher
	Logger    *zap.Logger
}

// NewProjector creates a projector over acc.
func NewProjector(acc *Accumulator, st store.Store, opts ProjectorOptions) *Projector {
	if opts.Kind == "" {
		opts.Kind = entity.KindPost
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Projector{
		feed:     opts.Feed,
		kind:     opts.Kind,
		acc:      acc,
		st:       st,
		filter:   opts.Filter,
		debounce: opts.Debounce,
		pub:      opts.Publisher,
		log:      opts.Logger,
		out:      NewValue(Projection{Feed: opts.Feed, Refs: []Ref{}}),
	}
}

// Output returns the observable projection.
func (p *Projector) Output() *Value[Projection] {
	return p.out
}

// Invalidate schedules a recompute. Calls within the debounce window coalesce.
func (p *Projector) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.timer != nil {
		return
	}
	p.timer = time.AfterFunc(p.debounce, func() {
		p.mu.Lock()
		p.timer = nil
		stopped := p.stopped
		p.mu.Unlock()
		if stopped {
			return
		}
		if _, err := p.Flush(context.Background()); err != nil {
			p.log.Warn("Projection recompute failed", zap.String("feed", p.feed), zap.Error(err))
		}
	})
}

// Flush recomputes immediately and stores the result. Concurrent calls share one computation.
func (p *Projector) Flush(ctx context.Context) (Projection, error) {
	v, err, _ := p.sf.Do("project", func() (any, error) {
		proj, err := p.compute(ctx)
		if err != nil {
			return Projection{}, err
		}
		p.out.Store(proj)
		if p.pub != nil {
			if err := p.pub.Publish(ctx, proj); err != nil {
				p.log.Warn("Projection publish failed", zap.String("feed", p.feed), zap.Error(err))
			}
		}
		return proj, nil
	})
	if err != nil {
		return Projection{}, err
	}
	return v.(Projection), nil
}

// Stop cancels any pending recompute.
func (p *Projector) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// compute resolves the accumulator in order, dropping ids the store does not hold yet.
func (p *Projector) compute(ctx context.Context) (Projection, error) {
	ids := p.acc.Current()
	refs := make([]Ref, 0, len(ids))

	switch p.kind {
	case entity.KindAccount:
		accounts, err := p.st.AccountsByID(ctx, ids)
		if err != nil {
			return Projection{}, err
		}
		for _, id := range ids {
			if a, ok := accounts[id]; ok {
				refs = p.keep(refs, Ref{ID: id, Kind: entity.KindAccount, Handle: a.Handle})
			}
		}
	default:
		posts, err := p.st.PostsByID(ctx, ids)
		if err != nil {
			return Projection{}, err
		}
		for _, id := range ids {
			if r, ok := posts[id]; ok {
				refs = p.keep(refs, Ref{ID: id, Kind: entity.KindPost, AuthorID: r.AuthorID, PostedAt: r.PostedAt})
			}
		}
	}
	return Projection{Feed: p.feed, Refs: refs}, nil
}

func (p *Projector) keep(refs []Ref, r Ref) []Ref {
	if p.filter != nil && !p.filter(r) {
		return refs
	}
	return append(refs, r)
}
