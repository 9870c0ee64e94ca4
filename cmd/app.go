package cmd

import (
	"context"
	"fmt"

	"feedsync/core/config"
	"feedsync/core/database"
	"feedsync/core/logger"
	"feedsync/core/metrics"
	"feedsync/core/pubsub"
	"feedsync/core/reconcile"
	"feedsync/core/storage"
	"feedsync/core/store"
	"feedsync/feature/timeline"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg *config.Config
	log *zap.Logger

	db         *gorm.DB
	store      *store.GormStore
	reconciler *reconcile.Reconciler

	promRegistry *prometheus.Registry
	metrics      *metrics.Collector

	storageClient storage.Client
	archive       *storage.Archive
	redis         *redis.Client
	publisher     *pubsub.Publisher
}

// bootstrap loads the configuration and connects every enabled backend.
// The database is required, storage and redis are optional.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}
	st := store.NewGormStore(db)
	if err := st.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	logg.Info("Connected to local store", zap.String("driver", cfg.Database.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	a := &app{
		cfg:          cfg,
		log:          logg,
		db:           db,
		store:        st,
		promRegistry: reg,
		metrics:      collector,
		reconciler: reconcile.NewWithOptions(st, logg.Named("reconcile"), reconcile.Options{
			MaxDepth: cfg.Timeline.MaxReconcileDepth,
			Recorder: collector,
		}),
	}

	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		a.storageClient = client
		a.archive = storage.NewArchive(client, cfg.Storage)
		if err := a.archive.EnsureBucket(ctx); err != nil {
			logg.Warn("Page archive bucket unavailable", zap.Error(err))
		}
	}

	if cfg.Redis.Enabled {
		client, err := pubsub.NewClient(ctx, cfg.Redis)
		if err != nil {
			logg.Warn("Projection publication disabled", zap.Error(err))
		} else {
			a.redis = client
			a.publisher = pubsub.NewPublisher(client, cfg.Redis.ChannelPrefix, logg.Named("pubsub"))
		}
	}

	return a, nil
}

// deps returns the shared feed collaborators. Disabled backends stay nil interfaces.
func (a *app) deps() timeline.Deps {
	d := timeline.Deps{
		Store:      a.store,
		Reconciler: a.reconciler,
		Observer:   timeline.ObserveMetrics(a.metrics),
		Logger:     a.log.Named("timeline"),
	}
	if a.archive != nil {
		d.Archive = a.archive
	}
	if a.publisher != nil {
		d.Publisher = timeline.PublishTo(a.publisher)
	}
	return d
}

// newFeed builds the configured feed, optionally under another id.
func (a *app) newFeed(id string) (*timeline.Feed, error) {
	tcfg := a.cfg.Timeline
	if id != "" {
		tcfg.FeedID = id
	}
	return timeline.NewFeedFromConfig(tcfg, a.cfg.Remote, a.deps())
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

// waitUntil blocks until the feed snapshot satisfies cond or ctx is done.
func waitUntil(ctx context.Context, f *timeline.Feed, cond func(timeline.Snapshot) bool) (timeline.Snapshot, error) {
	s, version := f.Snapshot().Load()
	for !cond(s) {
		var err error
		s, version, err = f.Snapshot().Wait(ctx, version)
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

// settled reports whether no fetch is in flight.
func settled(s timeline.Snapshot) bool {
	switch s.State {
	case timeline.StateIdle, timeline.StateFail, timeline.StateNoMore:
		return true
	}
	return false
}
