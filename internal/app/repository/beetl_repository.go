package repository

import (
	"context"
	"errors"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrBeetlNotFound signals that the requested beetl does not exist.
	// Authorization failures are deliberately surfaced as this same error
	// so a wrong secretkey never confirms that a record exists.
	ErrBeetlNotFound = errors.New("beetl not found")
)

// BeetlRepository defines the data access contract for beetls.
type BeetlRepository interface {
	Create(ctx context.Context, beetl *model.Beetl) error
	GetByKey(ctx context.Context, obfuscation, slug string) (*model.Beetl, error)
	Keys(ctx context.Context) ([]model.BeetlKey, error)
	Update(ctx context.Context, beetl *model.Beetl) error
	Delete(ctx context.Context, beetl *model.Beetl) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type beetlRepository struct {
	db *gorm.DB
}

// NewBeetlRepository returns a GORM-backed BeetlRepository.
func NewBeetlRepository(db *gorm.DB) BeetlRepository {
	return &beetlRepository{db: db}
}

func (r *beetlRepository) Create(ctx context.Context, beetl *model.Beetl) error {
	return r.db.WithContext(ctx).Create(beetl).Error
}

func (r *beetlRepository) GetByKey(ctx context.Context, obfuscation, slug string) (*model.Beetl, error) {
	var beetl model.Beetl
	if err := r.db.WithContext(ctx).
		Where("obfuscation = ? AND slug = ?", obfuscation, slug).
		First(&beetl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBeetlNotFound
		}
		return nil, err
	}
	return &beetl, nil
}

func (r *beetlRepository) Keys(ctx context.Context) ([]model.BeetlKey, error) {
	var keys []model.BeetlKey
	if err := r.db.WithContext(ctx).
		Model(&model.Beetl{}).
		Select("obfuscation", "slug").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *beetlRepository) Update(ctx context.Context, beetl *model.Beetl) error {
	result := r.db.WithContext(ctx).
		Model(&model.Beetl{}).
		Where("id = ?", beetl.ID).
		Updates(map[string]interface{}{
			"title":       beetl.Title,
			"description": beetl.Description,
			"target":      beetl.Target,
			"method":      beetl.Method,
			"beetlmode":   beetl.Beetlmode,
			"updated":     beetl.Updated,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBeetlNotFound
	}
	return nil
}

func (r *beetlRepository) Delete(ctx context.Context, beetl *model.Beetl) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", beetl.ID).
		Delete(&model.Beetl{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBeetlNotFound
	}
	return nil
}

func (r *beetlRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated <= ?", cutoff).
		Delete(&model.Beetl{})
	return result.RowsAffected, result.Error
}
