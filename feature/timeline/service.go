package timeline

import (
	"fmt"

	"feedsync/core/entity"
	"feedsync/core/reconcile"
	"feedsync/core/store"
	"feedsync/feature/remote"

	"go.uber.org/zap"
)

// Deps are the collaborators shared by every feed of a process.
type Deps struct {
	Store      store.Store
	Reconciler *reconcile.Reconciler
	Publisher  Publisher
	Archive    PageArchive
	Observer   Observer
	Logger     *zap.Logger
}

// NewFeedFromConfig builds a feed for the configured remote backend.
func NewFeedFromConfig(cfg Config, rcfg remote.Config, deps Deps) (*Feed, error) {
	fetcher, err := remote.New(rcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetcher: %w", err)
	}
	pageSize := rcfg.PageSize
	if cfg.PageSize > 0 {
		pageSize = cfg.PageSize
	}
	kind := entity.KindPost
	if rcfg.Resource == string(remote.ResourceAccounts) {
		kind = entity.KindAccount
	}
	var viewer *string
	if cfg.ViewerID != "" {
		viewer = &cfg.ViewerID
	}
	var filter Filter
	if cfg.AuthorFilter != "" {
		filter = ByAuthor(cfg.AuthorFilter)
	}

	opts := FeedOptions{
		ID:             cfg.FeedID,
		Kind:           kind,
		Fetcher:        fetcher,
		Reconciler:     deps.Reconciler,
		Store:          deps.Store,
		ViewerID:       viewer,
		PageSize:       pageSize,
		Insert:         cfg.InsertMode(),
		RetryDelay:     cfg.RetryDelay,
		RateLimitDelay: cfg.RateLimitDelay,
		MaxAutoRetries: cfg.MaxAutoRetries,
		Debounce:       cfg.ProjectionDebounce,
		Filter:         filter,
		Publisher:      deps.Publisher,
		Archive:        deps.Archive,
		Observer:       deps.Observer,
		Logger:         deps.Logger,
	}
	opts.Fallback = remote.NewFallback(rcfg)
	return NewFeed(opts)
}
