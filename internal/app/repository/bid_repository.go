package repository

import (
	"context"
	"errors"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrBidNotFound signals that no bid matched the natural key and
	// secretkey combination. Like ErrBeetlNotFound it also covers
	// authorization failures.
	ErrBidNotFound = errors.New("bid not found")
)

// BidRepository defines the data access contract for bids.
type BidRepository interface {
	Create(ctx context.Context, bid *model.Bid) error
	GetByKey(ctx context.Context, beetlObfuscation, beetlSlug, secretKey string) (*model.Bid, error)
	ListForBeetl(ctx context.Context, beetlObfuscation, beetlSlug string) ([]model.Bid, error)
	Update(ctx context.Context, bid *model.Bid) error
	Delete(ctx context.Context, bid *model.Bid) error
	DeleteForBeetl(ctx context.Context, beetlObfuscation, beetlSlug string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type bidRepository struct {
	db *gorm.DB
}

// NewBidRepository returns a GORM-backed BidRepository.
func NewBidRepository(db *gorm.DB) BidRepository {
	return &bidRepository{db: db}
}

func (r *bidRepository) Create(ctx context.Context, bid *model.Bid) error {
	return r.db.WithContext(ctx).Create(bid).Error
}

func (r *bidRepository) GetByKey(ctx context.Context, beetlObfuscation, beetlSlug, secretKey string) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.WithContext(ctx).
		Where("beetl_obfuscation = ? AND beetl_slug = ? AND secretkey = ?",
			beetlObfuscation, beetlSlug, secretKey).
		First(&bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, err
	}
	return &bid, nil
}

func (r *bidRepository) ListForBeetl(ctx context.Context, beetlObfuscation, beetlSlug string) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).
		Where("beetl_obfuscation = ? AND beetl_slug = ?", beetlObfuscation, beetlSlug).
		Order("created ASC").
		Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *bidRepository) Update(ctx context.Context, bid *model.Bid) error {
	result := r.db.WithContext(ctx).
		Model(&model.Bid{}).
		Where("id = ?", bid.ID).
		Updates(map[string]interface{}{
			"name":    bid.Name,
			"min":     bid.Min,
			"mid":     bid.Mid,
			"max":     bid.Max,
			"updated": bid.Updated,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBidNotFound
	}
	return nil
}

func (r *bidRepository) Delete(ctx context.Context, bid *model.Bid) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", bid.ID).
		Delete(&model.Bid{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBidNotFound
	}
	return nil
}

func (r *bidRepository) DeleteForBeetl(ctx context.Context, beetlObfuscation, beetlSlug string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("beetl_obfuscation = ? AND beetl_slug = ?", beetlObfuscation, beetlSlug).
		Delete(&model.Bid{})
	return result.RowsAffected, result.Error
}

func (r *bidRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated <= ?", cutoff).
		Delete(&model.Bid{})
	return result.RowsAffected, result.Error
}
