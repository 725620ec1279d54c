package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/keygen"
	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"github.com/beetl-xyz/beetl-api/internal/app/repository"
)

var (
	// ErrInvalidBidRange signals that a bid's min/mid/max values are not
	// ordered. Checked against the merged result on patch, so a patch
	// cannot sneak a bid into an inverted range either.
	ErrInvalidBidRange = errors.New("bid range must satisfy min <= mid <= max")
)

// BidService defines behaviour-level operations on bids.
type BidService interface {
	Create(ctx context.Context, input CreateBidInput) (*model.Bid, error)
	ListForBeetl(ctx context.Context, obfuscation, slug string) ([]model.Bid, int, error)
	Update(ctx context.Context, input UpdateBidInput) (*model.Bid, error)
	Delete(ctx context.Context, beetlObfuscation, beetlSlug, secretKey string) (*model.Bid, error)
}

type bidService struct {
	bids     repository.BidRepository
	beetls   repository.BeetlRepository
	presence *PresenceFilter
}

// NewBidService returns a service implementation backed by the given
// repositories.
func NewBidService(bids repository.BidRepository, beetls repository.BeetlRepository, presence *PresenceFilter) BidService {
	return &bidService{
		bids:     bids,
		beetls:   beetls,
		presence: presence,
	}
}

// CreateBidInput captures data required to place a bid.
type CreateBidInput struct {
	Name             string
	Min              int
	Mid              *int
	Max              int
	BeetlObfuscation string
	BeetlSlug        string
}

// UpdateBidInput captures the fields that can change on an existing bid.
// Id, secretkey, the referencing key pair and timestamps cannot be
// represented here and so cannot be patched.
type UpdateBidInput struct {
	BeetlObfuscation string
	BeetlSlug        string
	SecretKey        string

	Name *string
	Min  *int
	Mid  *int
	Max  *int
}

func validateRange(min int, mid *int, max int) error {
	if min > max {
		return ErrInvalidBidRange
	}
	if mid != nil && (min > *mid || *mid > max) {
		return ErrInvalidBidRange
	}
	return nil
}

func (s *bidService) lookupBeetl(ctx context.Context, obfuscation, slug string) (*model.Beetl, error) {
	if s.presence != nil && !s.presence.MayExist(obfuscation, slug) {
		return nil, repository.ErrBeetlNotFound
	}
	return s.beetls.GetByKey(ctx, obfuscation, slug)
}

func (s *bidService) Create(ctx context.Context, input CreateBidInput) (*model.Bid, error) {
	if err := validateRange(input.Min, input.Mid, input.Max); err != nil {
		return nil, err
	}

	// Bids against a beetl that does not exist are rejected rather than
	// stored as orphans.
	if _, err := s.lookupBeetl(ctx, input.BeetlObfuscation, input.BeetlSlug); err != nil {
		return nil, fmt.Errorf("lookup beetl for bid: %w", err)
	}

	now := time.Now().UTC()
	bid := &model.Bid{
		ID:               keygen.ID(),
		SecretKey:        keygen.SecretKey(),
		Name:             input.Name,
		Min:              input.Min,
		Mid:              input.Mid,
		Max:              input.Max,
		BeetlObfuscation: input.BeetlObfuscation,
		BeetlSlug:        input.BeetlSlug,
		Created:          now,
		Updated:          now,
	}

	if err := s.bids.Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("create bid: %w", err)
	}
	return bid, nil
}

// ListForBeetl returns the bids exposed to callers plus the true total.
// Private beetls hide the list but still report how many bids exist, so
// the returned slice length and total diverge on purpose.
func (s *bidService) ListForBeetl(ctx context.Context, obfuscation, slug string) ([]model.Bid, int, error) {
	beetl, err := s.lookupBeetl(ctx, obfuscation, slug)
	if err != nil {
		return nil, 0, fmt.Errorf("get beetl: %w", err)
	}

	bids, err := s.bids.ListForBeetl(ctx, obfuscation, slug)
	if err != nil {
		return nil, 0, fmt.Errorf("list bids: %w", err)
	}

	total := len(bids)
	if beetl.Beetlmode == model.BeetlmodePrivate {
		return []model.Bid{}, total, nil
	}
	return bids, total, nil
}

func (s *bidService) Update(ctx context.Context, input UpdateBidInput) (*model.Bid, error) {
	bid, err := s.bids.GetByKey(ctx, input.BeetlObfuscation, input.BeetlSlug, input.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("load bid: %w", err)
	}

	if input.Name != nil {
		bid.Name = *input.Name
	}
	if input.Min != nil {
		bid.Min = *input.Min
	}
	if input.Mid != nil {
		bid.Mid = input.Mid
	}
	if input.Max != nil {
		bid.Max = *input.Max
	}
	if err := validateRange(bid.Min, bid.Mid, bid.Max); err != nil {
		return nil, err
	}
	bid.Updated = time.Now().UTC()

	if err := s.bids.Update(ctx, bid); err != nil {
		return nil, fmt.Errorf("update bid: %w", err)
	}
	return bid, nil
}

func (s *bidService) Delete(ctx context.Context, beetlObfuscation, beetlSlug, secretKey string) (*model.Bid, error) {
	bid, err := s.bids.GetByKey(ctx, beetlObfuscation, beetlSlug, secretKey)
	if err != nil {
		return nil, fmt.Errorf("load bid: %w", err)
	}
	if err := s.bids.Delete(ctx, bid); err != nil {
		return nil, fmt.Errorf("delete bid: %w", err)
	}
	return bid, nil
}
