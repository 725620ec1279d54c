package service

import (
	"context"
	"fmt"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/keygen"
	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"github.com/beetl-xyz/beetl-api/internal/app/repository"
)

// BeetlService defines behaviour-level operations on beetls.
type BeetlService interface {
	Create(ctx context.Context, input CreateBeetlInput) (*model.Beetl, error)
	Get(ctx context.Context, obfuscation, slug string) (*model.Beetl, error)
	Update(ctx context.Context, input UpdateBeetlInput) (*model.Beetl, error)
	Delete(ctx context.Context, obfuscation, slug, secretKey string) (*model.Beetl, error)
}

type beetlService struct {
	beetls   repository.BeetlRepository
	bids     repository.BidRepository
	presence *PresenceFilter
}

// NewBeetlService returns a service implementation backed by the given
// repositories. The presence filter is optional; when nil every lookup
// goes straight to the store.
func NewBeetlService(beetls repository.BeetlRepository, bids repository.BidRepository, presence *PresenceFilter) BeetlService {
	return &beetlService{
		beetls:   beetls,
		bids:     bids,
		presence: presence,
	}
}

// CreateBeetlInput captures data required to create a beetl. Obfuscation
// may be supplied by the client; when empty a token is generated.
type CreateBeetlInput struct {
	Obfuscation string
	Slug        string
	Title       string
	Description string
	Target      *int
	Method      string
	Beetlmode   string
}

// UpdateBeetlInput captures the fields that can change on an existing
// beetl. The natural key, id, secretkey and timestamps have no slot here
// and therefore cannot be touched by a patch.
type UpdateBeetlInput struct {
	Obfuscation string
	Slug        string
	SecretKey   string

	Title       *string
	Description *string
	Target      *int
	Method      *string
	Beetlmode   *string
}

func (s *beetlService) Create(ctx context.Context, input CreateBeetlInput) (*model.Beetl, error) {
	now := time.Now().UTC()

	beetl := &model.Beetl{
		ID:          keygen.ID(),
		Obfuscation: input.Obfuscation,
		Slug:        input.Slug,
		Title:       input.Title,
		Description: input.Description,
		Target:      input.Target,
		Method:      input.Method,
		Beetlmode:   input.Beetlmode,
		SecretKey:   keygen.SecretKey(),
		Created:     now,
		Updated:     now,
	}

	if beetl.Obfuscation == "" {
		beetl.Obfuscation = keygen.Obfuscation()
	}
	if beetl.Beetlmode == "" {
		beetl.Beetlmode = model.BeetlmodePublic
	}

	if err := s.beetls.Create(ctx, beetl); err != nil {
		return nil, fmt.Errorf("create beetl: %w", err)
	}

	if s.presence != nil {
		s.presence.Add(beetl.Obfuscation, beetl.Slug)
	}
	return beetl, nil
}

func (s *beetlService) Get(ctx context.Context, obfuscation, slug string) (*model.Beetl, error) {
	if s.presence != nil && !s.presence.MayExist(obfuscation, slug) {
		return nil, repository.ErrBeetlNotFound
	}

	beetl, err := s.beetls.GetByKey(ctx, obfuscation, slug)
	if err != nil {
		return nil, fmt.Errorf("get beetl: %w", err)
	}
	return beetl, nil
}

func (s *beetlService) Update(ctx context.Context, input UpdateBeetlInput) (*model.Beetl, error) {
	beetl, err := s.Get(ctx, input.Obfuscation, input.Slug)
	if err != nil {
		return nil, err
	}
	// A wrong secretkey reads exactly like an absent record.
	if beetl.SecretKey != input.SecretKey {
		return nil, repository.ErrBeetlNotFound
	}

	if input.Title != nil {
		beetl.Title = *input.Title
	}
	if input.Description != nil {
		beetl.Description = *input.Description
	}
	if input.Target != nil {
		beetl.Target = input.Target
	}
	if input.Method != nil {
		beetl.Method = *input.Method
	}
	if input.Beetlmode != nil {
		beetl.Beetlmode = *input.Beetlmode
	}
	// Updated advances on every authorized patch, even an empty one.
	beetl.Updated = time.Now().UTC()

	if err := s.beetls.Update(ctx, beetl); err != nil {
		return nil, fmt.Errorf("update beetl: %w", err)
	}
	return beetl, nil
}

func (s *beetlService) Delete(ctx context.Context, obfuscation, slug, secretKey string) (*model.Beetl, error) {
	beetl, err := s.Get(ctx, obfuscation, slug)
	if err != nil {
		return nil, err
	}
	if beetl.SecretKey != secretKey {
		return nil, repository.ErrBeetlNotFound
	}

	// Cascade: referencing bids go first, then the beetl itself. The two
	// deletes are not atomic; a reader racing the gap sees orphan-free
	// listings because the bids are already gone.
	if _, err := s.bids.DeleteForBeetl(ctx, obfuscation, slug); err != nil {
		return nil, fmt.Errorf("delete bids for beetl: %w", err)
	}
	if err := s.beetls.Delete(ctx, beetl); err != nil {
		return nil, fmt.Errorf("delete beetl: %w", err)
	}
	return beetl, nil
}
