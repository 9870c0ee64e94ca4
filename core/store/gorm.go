package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is a Store backed by a gorm connection.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the entity tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate store schema: %w", err)
	}
	return nil
}

// DB returns the underlying connection.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) FindPost(ctx context.Context, id string) (*PostRecord, error) {
	var r PostRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find post %s: %w", id, err)
	}
	return &r, nil
}

func (s *GormStore) FindAccount(ctx context.Context, id string) (*AccountRecord, error) {
	var r AccountRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", id, err)
	}
	return &r, nil
}

func (s *GormStore) PostsByID(ctx context.Context, ids []string) (map[string]*PostRecord, error) {
	out := make(map[string]*PostRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []PostRecord
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (s *GormStore) AccountsByID(ctx context.Context, ids []string) (map[string]*AccountRecord, error) {
	out := make(map[string]*AccountRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []AccountRecord
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (s *GormStore) Media(ctx context.Context, postID string) ([]MediaRecord, error) {
	var rows []MediaRecord
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load media of %s: %w", postID, err)
	}
	return rows, nil
}

func (s *GormStore) Mentions(ctx context.Context, postID string) ([]MentionRecord, error) {
	var rows []MentionRecord
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load mentions of %s: %w", postID, err)
	}
	return rows, nil
}

func (s *GormStore) HasEdge(ctx context.Context, edge EdgeRecord) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&EdgeRecord{}).
		Where("viewer_id = ? AND kind = ? AND subject_id = ?", edge.ViewerID, edge.Kind, edge.SubjectID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check edge: %w", err)
	}
	return count > 0, nil
}

// Commit applies the change set in one transaction.
func (s *GormStore) Commit(ctx context.Context, changes *Changes) error {
	if changes.Empty() {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range changes.Posts() {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(r).Error; err != nil {
				return fmt.Errorf("upsert post %s: %w", r.ID, err)
			}
		}
		for _, r := range changes.Accounts() {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(r).Error; err != nil {
				return fmt.Errorf("upsert account %s: %w", r.ID, err)
			}
		}
		for postID, media := range changes.MediaSets() {
			if err := tx.Where("post_id = ?", postID).Delete(&MediaRecord{}).Error; err != nil {
				return fmt.Errorf("clear media of %s: %w", postID, err)
			}
			if len(media) > 0 {
				if err := tx.Create(&media).Error; err != nil {
					return fmt.Errorf("insert media of %s: %w", postID, err)
				}
			}
		}
		for postID, mentions := range changes.MentionSets() {
			if err := tx.Where("post_id = ?", postID).Delete(&MentionRecord{}).Error; err != nil {
				return fmt.Errorf("clear mentions of %s: %w", postID, err)
			}
			if len(mentions) > 0 {
				if err := tx.Create(&mentions).Error; err != nil {
					return fmt.Errorf("insert mentions of %s: %w", postID, err)
				}
			}
		}
		var edgeErr error
		changes.Edges(func(edge EdgeRecord, present bool) {
			if edgeErr != nil {
				return
			}
			if present {
				edgeErr = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
				return
			}
			edgeErr = tx.Where("viewer_id = ? AND kind = ? AND subject_id = ?", edge.ViewerID, edge.Kind, edge.SubjectID).
				Delete(&EdgeRecord{}).Error
		})
		if edgeErr != nil {
			return fmt.Errorf("write viewer edge: %w", edgeErr)
		}
		return nil
	})
	if err != nil {
		return commitError(err)
	}
	return nil
}

func commitError(err error) error {
	return fmt.Errorf("%w: %w", ErrCommit, err)
}
