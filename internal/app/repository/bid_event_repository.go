package repository

import (
	"context"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"gorm.io/gorm"
)

// BidEventRepository defines the data access contract for bid activity events.
type BidEventRepository interface {
	Create(ctx context.Context, event *model.BidEvent) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type bidEventRepository struct {
	db *gorm.DB
}

// NewBidEventRepository returns a GORM-backed BidEventRepository.
func NewBidEventRepository(db *gorm.DB) BidEventRepository {
	return &bidEventRepository{db: db}
}

func (r *bidEventRepository) Create(ctx context.Context, event *model.BidEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *bidEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp <= ?", cutoff).
		Delete(&model.BidEvent{})
	return result.RowsAffected, result.Error
}
