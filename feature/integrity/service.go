package integrity

import (
	"context"
	"errors"

	"feedsync/core/storage"
	"feedsync/core/store"
	"feedsync/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrArchiveDisabled is returned by archive checks when no storage client is configured.
var ErrArchiveDisabled = errors.New("page archive is not configured")

// Service handles integrity checks.
type Service struct {
	client storage.Client
	cfg    storage.Config
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new integrity service. client and db may be nil when
// the corresponding backend is not configured.
func NewService(client storage.Client, cfg storage.Config, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
}

// CheckSchema validates the local store tables.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, store.ExpectedColumns())
}

// CheckArchive validates the skipped page archive.
func (s *Service) CheckArchive(ctx context.Context) (*checks.ArchiveReport, error) {
	if s.client == nil {
		return nil, ErrArchiveDisabled
	}
	return checks.CheckArchive(ctx, s.client, s.cfg.Bucket, s.cfg.ArchivePrefix)
}

// FixArchive creates the archive bucket.
func (s *Service) FixArchive(ctx context.Context) error {
	if s.client == nil {
		return ErrArchiveDisabled
	}
	return checks.FixArchive(ctx, s.client, s.cfg.Bucket, s.logger)
}
