package timeline

import (
	"context"
	"errors"
	"time"

	"feedsync/core/store"
	"feedsync/feature/remote"

	"go.uber.org/zap"
)

// gapFill is one backfill attempt below an anchor item. It is guarded by the
// owning feed's mutex.
type gapFill struct {
	anchor        string
	gen           uint64
	state         GapState
	needsFallback bool
	primaryCalls  int
	fallbackCalls int
	inserted      int
	lastErr       error
	cancel        context.CancelFunc
	startedAt     time.Time
}

// GapSnapshot is the externally visible state of a gap fill.
type GapSnapshot struct {
	Anchor        string    `json:"anchor"`
	State         GapState  `json:"state"`
	NeedsFallback bool      `json:"needs_fallback"`
	PrimaryCalls  int       `json:"primary_calls"`
	FallbackCalls int       `json:"fallback_calls"`
	Inserted      int       `json:"inserted"`
	LastError     string    `json:"last_error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
}

func (g *gapFill) snapshot() GapSnapshot {
	s := GapSnapshot{
		Anchor:        g.anchor,
		State:         g.state,
		NeedsFallback: g.needsFallback,
		PrimaryCalls:  g.primaryCalls,
		FallbackCalls: g.fallbackCalls,
		Inserted:      g.inserted,
		StartedAt:     g.startedAt,
	}
	if g.lastErr != nil {
		s.LastError = g.lastErr.Error()
	}
	return s
}

// FillGap starts a backfill of items older than anchor, which must be a member
// of the feed. A terminal instance for the same anchor is replaced.
func (f *Feed) FillGap(anchor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn {
		return ErrTornDown
	}
	if !f.acc.Contains(anchor) {
		return ErrUnknownAnchor
	}
	if g, ok := f.gaps[anchor]; ok && g.state == GapLoading {
		return ErrGapInProgress
	}
	g := &gapFill{
		anchor:    anchor,
		gen:       f.gen,
		state:     GapLoading,
		startedAt: f.opts.Now(),
	}
	f.gaps[anchor] = g
	f.startGapLocked(g)
	f.publishLocked()
	return nil
}

// Gap returns the state of the gap fill for anchor.
func (f *Feed) Gap(anchor string) (GapSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gaps[anchor]
	if !ok {
		return GapSnapshot{}, false
	}
	return g.snapshot(), true
}

func (f *Feed) startGapLocked(g *gapFill) {
	fetcher := f.opts.Fetcher
	if g.needsFallback {
		fetcher = f.opts.Fallback
		g.fallbackCalls++
	} else {
		g.primaryCalls++
	}
	ctx, cancel := context.WithCancel(f.root)
	g.cancel = cancel
	cursor := remote.Cursor{MaxID: g.anchor}
	go func() {
		page, err := fetcher.Fetch(ctx, cursor, f.opts.PageSize)
		f.applyGap(ctx, g, page, err, f.opts.Now())
	}()
}

func (f *Feed) applyGap(ctx context.Context, g *gapFill, page remote.Page, fetchErr error, freshness time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn || g.gen != f.gen || f.gaps[g.anchor] != g {
		f.log.Debug("Discarding gap result", zap.String("anchor", g.anchor), zap.Error(ErrStale))
		return
	}
	if stop := g.cancel; stop != nil {
		g.cancel = nil
		defer stop()
	}
	log := f.log.With(zap.String("anchor", g.anchor))

	if fetchErr != nil {
		if remote.IsRateLimited(fetchErr) && !g.needsFallback && f.opts.Fallback != nil {
			g.needsFallback = true
			f.gapTransitionLocked(g, GapEventFallback)
			log.Info("Gap fill rate limited, switching to fallback endpoint")
			f.startGapLocked(g)
			f.publishLocked()
			return
		}
		g.lastErr = fetchErr
		log.Warn("Gap fill failed", zap.String("kind", string(remote.KindOf(fetchErr))), zap.Error(fetchErr))
		f.finishGapLocked(g, GapEventFailed)
		return
	}

	res, err := f.opts.Reconciler.ReconcilePage(ctx, page.Entities, freshness, f.opts.ViewerID)
	if errors.Is(err, store.ErrCommit) {
		g.lastErr = err
		log.Warn("Gap fill commit failed", zap.Error(err))
		f.finishGapLocked(g, GapEventFailed)
		return
	}
	if err != nil {
		log.Warn("Some gap entities were not reconciled", zap.Error(err))
	}

	f.committedLocked(res.IDs)
	runs, filled := spliceRuns(g.anchor, res.IDs, f.acc.Contains)
	g.inserted = filled
	if filled == 0 {
		log.Debug("Gap fill found no new items")
		f.finishGapLocked(g, GapEventFailed)
		return
	}
	for _, r := range runs {
		if _, err := f.acc.InsertAfter(r.after, r.ids); err != nil {
			g.lastErr = err
			f.finishGapLocked(g, GapEventFailed)
			return
		}
	}
	log.Debug("Gap filled", zap.Int("inserted", filled), zap.Bool("fallback", g.needsFallback))
	f.finishGapLocked(g, GapEventFilled)
	f.proj.Invalidate()
}

// splice is a run of new ids that goes right after a held id.
type splice struct {
	after string
	ids   []string
}

// spliceRuns walks ids, newest first, and groups the ones not held yet behind
// the closest held id above them. filled counts the ids of the first run, the
// ones between anchor and the next held item.
func spliceRuns(anchor string, ids []string, held func(string) bool) (runs []splice, filled int) {
	cur := splice{after: anchor}
	closed := false
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if id == anchor || held(id) {
			if len(cur.ids) > 0 {
				runs = append(runs, cur)
			}
			if id != anchor {
				closed = true
			}
			cur = splice{after: id}
			continue
		}
		cur.ids = append(cur.ids, id)
		if !closed {
			filled++
		}
	}
	if len(cur.ids) > 0 {
		runs = append(runs, cur)
	}
	return runs, filled
}

func (f *Feed) finishGapLocked(g *gapFill, ev GapEvent) {
	f.gapTransitionLocked(g, ev)
	if f.opts.Observer != nil {
		f.opts.Observer.GapCompleted(f.opts.ID, g.state, g.needsFallback)
	}
	f.publishLocked()
}

func (f *Feed) gapTransitionLocked(g *gapFill, ev GapEvent) {
	to, err := GapTransition(g.state, ev)
	if err != nil {
		f.log.Error("Unexpected gap transition failure", zap.Error(err))
		return
	}
	g.state = to
}

func (f *Feed) cancelGapsLocked() {
	for _, g := range f.gaps {
		if g.cancel != nil {
			g.cancel()
			g.cancel = nil
		}
	}
}
