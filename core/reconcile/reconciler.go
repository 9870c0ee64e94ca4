package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"feedsync/core/entity"
	"feedsync/core/store"

	"go.uber.org/zap"
)

// DefaultMaxDepth bounds how many repost/quote levels below the top-level post are reconciled.
const DefaultMaxDepth = 2

// ErrInvalidEntity is returned for payloads the reconciler cannot key.
var ErrInvalidEntity = errors.New("invalid entity")

// Outcome classifies what a reconcile did to one record.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeMerged  Outcome = "merged"
	OutcomeStale   Outcome = "stale"
	OutcomeFailed  Outcome = "failed"
)

// Recorder receives one call per reconciled record.
type Recorder interface {
	Reconciled(kind entity.Kind, outcome Outcome)
}

// Options configures a Reconciler.
type Options struct {
	// MaxDepth is the number of nested repost/quote levels followed. Zero means DefaultMaxDepth.
	MaxDepth int

	// Recorder is optional.
	Recorder Recorder
}

// Result describes the top-level record of a reconcile pass.
type Result struct {
	ID      string
	Kind    entity.Kind
	Created bool
	// Merged is true when the payload was applied, either as a new record or as a merge.
	Merged bool

	Post    *store.PostRecord
	Account *store.AccountRecord
}

// Reconciler is the single writer of the local store.
type Reconciler struct {
	store    store.Store
	log      *zap.Logger
	maxDepth int
	recorder Recorder

	// mu serializes passes so the freshness check and the commit of one pass
	// cannot interleave with another pass.
	mu sync.Mutex
}

// New creates a Reconciler with default options.
func New(st store.Store, log *zap.Logger) *Reconciler {
	return NewWithOptions(st, log, Options{})
}

// NewWithOptions creates a Reconciler.
func NewWithOptions(st store.Store, log *zap.Logger, opts Options) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return &Reconciler{store: st, log: log, maxDepth: depth, recorder: opts.Recorder}
}

// Reconcile upserts one entity and its embedded sub-entities in a single commit.
// viewerID may be nil for fetches made without an authenticated identity.
func (r *Reconciler) Reconcile(ctx context.Context, e entity.Entity, freshness time.Time, viewerID *string) (Result, error) {
	if e == nil {
		return Result{}, fmt.Errorf("%w: nil entity", ErrInvalidEntity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := &pass{
		ctx:       ctx,
		r:         r,
		changes:   store.NewChanges(),
		freshness: freshness.UnixNano(),
		viewerID:  viewerID,
		inFlight:  make(map[string]struct{}),
	}

	var (
		res Result
		out []recorded
		err error
	)
	switch v := e.(type) {
	case *entity.Post:
		var rec *store.PostRecord
		rec, res, err = p.post(v, 0)
		res.Post = rec
	case *entity.Account:
		var rec *store.AccountRecord
		rec, res, err = p.account(v)
		res.Account = rec
	default:
		err = fmt.Errorf("%w: unsupported kind %q", ErrInvalidEntity, e.EntityKind())
	}
	out = p.outcomes
	if err != nil {
		r.record(entityKind(e), OutcomeFailed)
		return Result{}, err
	}

	if err := r.store.Commit(ctx, p.changes); err != nil {
		r.record(entityKind(e), OutcomeFailed)
		return Result{}, err
	}
	for _, o := range out {
		r.record(o.kind, o.outcome)
	}
	return res, nil
}

// PageResult is the outcome of reconciling one fetched page.
type PageResult struct {
	// IDs lists the reconciled top-level identifiers in page order.
	IDs     []string
	Results []Result
}

// ReconcilePage reconciles every entity of a page independently. Failures do not
// stop the remaining entities; they are joined and returned after the page completes.
func (r *Reconciler) ReconcilePage(ctx context.Context, entities []entity.Entity, freshness time.Time, viewerID *string) (PageResult, error) {
	out := PageResult{
		IDs:     make([]string, 0, len(entities)),
		Results: make([]Result, 0, len(entities)),
	}
	var errs []error
	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := r.Reconcile(ctx, e, freshness, viewerID)
		if err != nil {
			r.log.Warn("Entity reconcile failed",
				zap.String("kind", string(entityKind(e))),
				zap.String("id", entityID(e)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s %s: %w", entityKind(e), entityID(e), err))
			continue
		}
		out.IDs = append(out.IDs, res.ID)
		out.Results = append(out.Results, res)
	}
	return out, errors.Join(errs...)
}

func (r *Reconciler) record(kind entity.Kind, outcome Outcome) {
	if r.recorder != nil {
		r.recorder.Reconciled(kind, outcome)
	}
}

func entityKind(e entity.Entity) entity.Kind {
	if e == nil {
		return ""
	}
	return e.EntityKind()
}

func entityID(e entity.Entity) string {
	if e == nil {
		return ""
	}
	return e.EntityID()
}

type recorded struct {
	kind    entity.Kind
	outcome Outcome
}

// pass holds the state of one top-level reconcile.
type pass struct {
	ctx       context.Context
	r         *Reconciler
	changes   *store.Changes
	freshness int64
	viewerID  *string
	inFlight  map[string]struct{}
	outcomes  []recorded
}

func (p *pass) post(in *entity.Post, depth int) (*store.PostRecord, Result, error) {
	if in == nil || in.ID == "" {
		return nil, Result{}, fmt.Errorf("%w: post without id", ErrInvalidEntity)
	}
	p.inFlight[in.ID] = struct{}{}
	defer delete(p.inFlight, in.ID)

	authorID := in.ResolvedAuthorID()
	if in.Author != nil {
		if _, _, err := p.account(in.Author); err != nil {
			return nil, Result{}, fmt.Errorf("author: %w", err)
		}
	}
	repostID, err := p.embedded(in.RepostOf, in.RepostOfID, depth)
	if err != nil {
		return nil, Result{}, fmt.Errorf("repost: %w", err)
	}
	quoteID, err := p.embedded(in.QuoteOf, in.QuoteOfID, depth)
	if err != nil {
		return nil, Result{}, fmt.Errorf("quote: %w", err)
	}

	rec, staged, err := p.findPost(in.ID)
	if err != nil {
		return nil, Result{}, err
	}
	res := Result{ID: in.ID, Kind: entity.KindPost}
	if rec == nil {
		rec = &store.PostRecord{ID: in.ID}
		res.Created = true
	} else if !staged && p.freshness <= rec.LastUpdated {
		p.r.log.Debug("Skipping stale post",
			zap.String("id", in.ID),
			zap.Int64("stored", rec.LastUpdated),
			zap.Int64("incoming", p.freshness))
		p.outcomes = append(p.outcomes, recorded{entity.KindPost, OutcomeStale})
		return rec, res, nil
	}

	mergePost(rec, in, authorID, repostID, quoteID)
	rec.LastUpdated = p.freshness
	p.changes.PutPost(rec)
	if in.Media != nil {
		p.changes.ReplaceMedia(in.ID, mediaRecords(in.ID, in.Media))
	}
	if in.Mentions != nil {
		p.changes.ReplaceMentions(in.ID, mentionRecords(in.ID, in.Mentions))
	}
	if p.viewerID != nil && in.Viewer != nil {
		p.edge(store.EdgeLiked, in.ID, in.Viewer.Liked)
		p.edge(store.EdgeReposted, in.ID, in.Viewer.Reposted)
		p.edge(store.EdgeBookmarked, in.ID, in.Viewer.Bookmarked)
	}

	res.Merged = true
	p.outcomes = append(p.outcomes, recorded{entity.KindPost, outcomeOf(res)})
	return rec, res, nil
}

// embedded reconciles a nested repost or quote and returns the identifier to wire.
func (p *pass) embedded(sub *entity.Post, id *string, depth int) (*string, error) {
	if sub == nil {
		return id, nil
	}
	if sub.ID == "" {
		return nil, fmt.Errorf("%w: embedded post without id", ErrInvalidEntity)
	}
	target := sub.ID
	if _, busy := p.inFlight[target]; busy {
		return &target, nil
	}
	if depth+1 > p.r.maxDepth {
		p.r.log.Debug("Embedded post beyond depth limit",
			zap.String("id", target),
			zap.Int("depth", depth+1))
		return &target, nil
	}
	if _, _, err := p.post(sub, depth+1); err != nil {
		return nil, err
	}
	return &target, nil
}

func (p *pass) account(in *entity.Account) (*store.AccountRecord, Result, error) {
	if in == nil || in.ID == "" {
		return nil, Result{}, fmt.Errorf("%w: account without id", ErrInvalidEntity)
	}

	rec, staged, err := p.findAccount(in.ID)
	if err != nil {
		return nil, Result{}, err
	}
	res := Result{ID: in.ID, Kind: entity.KindAccount}
	if rec == nil {
		rec = &store.AccountRecord{ID: in.ID}
		res.Created = true
	} else if !staged && p.freshness <= rec.LastUpdated {
		p.outcomes = append(p.outcomes, recorded{entity.KindAccount, OutcomeStale})
		return rec, res, nil
	}

	mergeAccount(rec, in)
	rec.LastUpdated = p.freshness
	p.changes.PutAccount(rec)
	if p.viewerID != nil && in.Relationship != nil {
		p.edge(store.EdgeFollowsViewer, in.ID, in.Relationship.FollowingViewer)
		p.edge(store.EdgeFollowedByViewer, in.ID, in.Relationship.FollowedByViewer)
		p.edge(store.EdgeFollowRequested, in.ID, in.Relationship.FollowRequestPending)
	}

	res.Merged = true
	p.outcomes = append(p.outcomes, recorded{entity.KindAccount, outcomeOf(res)})
	return rec, res, nil
}

func (p *pass) findPost(id string) (*store.PostRecord, bool, error) {
	if rec, ok := p.changes.Post(id); ok {
		return rec, true, nil
	}
	rec, err := p.r.store.FindPost(p.ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

func (p *pass) findAccount(id string) (*store.AccountRecord, bool, error) {
	if rec, ok := p.changes.Account(id); ok {
		return rec, true, nil
	}
	rec, err := p.r.store.FindAccount(p.ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

// edge stages a viewer edge when the payload states the flag.
func (p *pass) edge(kind store.EdgeKind, subjectID string, flag *bool) {
	if flag == nil {
		return
	}
	p.changes.SetEdge(store.EdgeRecord{ViewerID: *p.viewerID, Kind: kind, SubjectID: subjectID}, *flag)
}

func outcomeOf(res Result) Outcome {
	if res.Created {
		return OutcomeCreated
	}
	return OutcomeMerged
}
