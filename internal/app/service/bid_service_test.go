package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"github.com/beetl-xyz/beetl-api/internal/app/repository"
)

func existingBeetlRepo(mode string) *mockBeetlRepository {
	return &mockBeetlRepository{
		getFn: func(ctx context.Context, obfuscation, slug string) (*model.Beetl, error) {
			return &model.Beetl{
				ID:          "beetl-1",
				Obfuscation: obfuscation,
				Slug:        slug,
				Method:      model.MethodPercentage,
				Beetlmode:   mode,
				SecretKey:   "secret-1",
			}, nil
		},
	}
}

func TestBidService_Create_GeneratesTokens(t *testing.T) {
	var stored *model.Bid
	bids := &mockBidRepository{
		createFn: func(ctx context.Context, bid *model.Bid) error {
			stored = bid
			return nil
		},
	}

	svc := NewBidService(bids, existingBeetlRepo(model.BeetlmodePublic), nil)
	bid, err := svc.Create(context.Background(), CreateBidInput{
		Name:             "alice",
		Min:              10,
		Max:              50,
		BeetlObfuscation: "ab12cd34",
		BeetlSlug:        "our-rent",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if stored == nil {
		t.Fatal("expected bid to reach the repository")
	}
	if bid.ID == "" || bid.SecretKey == "" {
		t.Fatal("expected id and secretkey to be generated")
	}
}

func TestBidService_Create_RequiresExistingBeetl(t *testing.T) {
	beetls := &mockBeetlRepository{
		getFn: func(ctx context.Context, obfuscation, slug string) (*model.Beetl, error) {
			return nil, repository.ErrBeetlNotFound
		},
	}
	bids := &mockBidRepository{
		createFn: func(ctx context.Context, bid *model.Bid) error {
			t.Fatal("bid must not be created for a missing beetl")
			return nil
		},
	}

	svc := NewBidService(bids, beetls, nil)
	_, err := svc.Create(context.Background(), CreateBidInput{
		Name:             "alice",
		Min:              10,
		Max:              50,
		BeetlObfuscation: "missing",
		BeetlSlug:        "gone",
	})
	if !errors.Is(err, repository.ErrBeetlNotFound) {
		t.Fatalf("expected ErrBeetlNotFound, got %v", err)
	}
}

func TestBidService_Create_RejectsInvertedRange(t *testing.T) {
	beetls := &mockBeetlRepository{
		getFn: func(ctx context.Context, obfuscation, slug string) (*model.Beetl, error) {
			t.Fatal("beetl must not be looked up for an invalid range")
			return nil, nil
		},
	}

	svc := NewBidService(&mockBidRepository{}, beetls, nil)
	_, err := svc.Create(context.Background(), CreateBidInput{
		Name:             "alice",
		Min:              50,
		Max:              10,
		BeetlObfuscation: "ab12cd34",
		BeetlSlug:        "our-rent",
	})
	if !errors.Is(err, ErrInvalidBidRange) {
		t.Fatalf("expected ErrInvalidBidRange, got %v", err)
	}
}

func TestBidService_Create_RejectsMidOutsideRange(t *testing.T) {
	svc := NewBidService(&mockBidRepository{}, existingBeetlRepo(model.BeetlmodePublic), nil)
	mid := 99
	_, err := svc.Create(context.Background(), CreateBidInput{
		Name:             "alice",
		Min:              10,
		Mid:              &mid,
		Max:              50,
		BeetlObfuscation: "ab12cd34",
		BeetlSlug:        "our-rent",
	})
	if !errors.Is(err, ErrInvalidBidRange) {
		t.Fatalf("expected ErrInvalidBidRange, got %v", err)
	}
}

func TestBidService_ListForBeetl_PrivateHidesBidsKeepsTotal(t *testing.T) {
	bids := &mockBidRepository{
		listFn: func(ctx context.Context, obfuscation, slug string) ([]model.Bid, error) {
			return []model.Bid{
				{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"},
			}, nil
		},
	}

	svc := NewBidService(bids, existingBeetlRepo(model.BeetlmodePrivate), nil)
	exposed, total, err := svc.ListForBeetl(context.Background(), "ab12cd34", "our-rent")
	if err != nil {
		t.Fatalf("ListForBeetl returned error: %v", err)
	}
	if len(exposed) != 0 {
		t.Fatalf("expected no exposed bids for a private beetl, got %d", len(exposed))
	}
	if total != 5 {
		t.Fatalf("expected true total 5, got %d", total)
	}
}

func TestBidService_ListForBeetl_PublicExposesAll(t *testing.T) {
	bids := &mockBidRepository{
		listFn: func(ctx context.Context, obfuscation, slug string) ([]model.Bid, error) {
			return []model.Bid{{ID: "a"}, {ID: "b"}}, nil
		},
	}

	svc := NewBidService(bids, existingBeetlRepo(model.BeetlmodePublic), nil)
	exposed, total, err := svc.ListForBeetl(context.Background(), "ab12cd34", "our-rent")
	if err != nil {
		t.Fatalf("ListForBeetl returned error: %v", err)
	}
	if len(exposed) != 2 || total != 2 {
		t.Fatalf("expected 2 bids and total 2, got %d and %d", len(exposed), total)
	}
}

func TestBidService_ListForBeetl_MissingBeetl(t *testing.T) {
	beetls := &mockBeetlRepository{
		getFn: func(ctx context.Context, obfuscation, slug string) (*model.Beetl, error) {
			return nil, repository.ErrBeetlNotFound
		},
	}

	svc := NewBidService(&mockBidRepository{}, beetls, nil)
	_, _, err := svc.ListForBeetl(context.Background(), "missing", "gone")
	if !errors.Is(err, repository.ErrBeetlNotFound) {
		t.Fatalf("expected ErrBeetlNotFound, got %v", err)
	}
}

func storedBid() *model.Bid {
	mid := 30
	return &model.Bid{
		ID:               "bid-1",
		SecretKey:        "bid-secret",
		Name:             "alice",
		Min:              10,
		Mid:              &mid,
		Max:              50,
		BeetlObfuscation: "ab12cd34",
		BeetlSlug:        "our-rent",
		Created:          time.Now().Add(-time.Hour),
		Updated:          time.Now().Add(-time.Hour),
	}
}

func TestBidService_Update_MergesOnlySuppliedFields(t *testing.T) {
	prev := storedBid()
	var written *model.Bid
	bids := &mockBidRepository{
		getFn: func(ctx context.Context, obfuscation, slug, secretKey string) (*model.Bid, error) {
			clone := *prev
			return &clone, nil
		},
		updateFn: func(ctx context.Context, bid *model.Bid) error {
			written = bid
			return nil
		},
	}

	svc := NewBidService(bids, existingBeetlRepo(model.BeetlmodePublic), nil)
	name := "bob"
	bid, err := svc.Update(context.Background(), UpdateBidInput{
		BeetlObfuscation: prev.BeetlObfuscation,
		BeetlSlug:        prev.BeetlSlug,
		SecretKey:        prev.SecretKey,
		Name:             &name,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if written == nil {
		t.Fatal("expected update to reach the repository")
	}
	if bid.Name != "bob" {
		t.Fatalf("expected name to change, got %q", bid.Name)
	}
	if bid.Min != prev.Min || bid.Max != prev.Max {
		t.Fatal("expected range untouched")
	}
	if !bid.Updated.After(prev.Updated) {
		t.Fatal("expected updated to advance")
	}
}

func TestBidService_Update_RejectsMergedInvalidRange(t *testing.T) {
	prev := storedBid()
	bids := &mockBidRepository{
		getFn: func(ctx context.Context, obfuscation, slug, secretKey string) (*model.Bid, error) {
			clone := *prev
			return &clone, nil
		},
		updateFn: func(ctx context.Context, bid *model.Bid) error {
			t.Fatal("an invalid merged range must not be persisted")
			return nil
		},
	}

	svc := NewBidService(bids, existingBeetlRepo(model.BeetlmodePublic), nil)
	min := 999 // beyond stored max of 50
	_, err := svc.Update(context.Background(), UpdateBidInput{
		BeetlObfuscation: prev.BeetlObfuscation,
		BeetlSlug:        prev.BeetlSlug,
		SecretKey:        prev.SecretKey,
		Min:              &min,
	})
	if !errors.Is(err, ErrInvalidBidRange) {
		t.Fatalf("expected ErrInvalidBidRange, got %v", err)
	}
}

func TestBidService_Update_WrongSecretReadsAsNotFound(t *testing.T) {
	bids := &mockBidRepository{
		getFn: func(ctx context.Context, obfuscation, slug, secretKey string) (*model.Bid, error) {
			return nil, repository.ErrBidNotFound
		},
	}

	svc := NewBidService(bids, existingBeetlRepo(model.BeetlmodePublic), nil)
	name := "mallory"
	_, err := svc.Update(context.Background(), UpdateBidInput{
		BeetlObfuscation: "ab12cd34",
		BeetlSlug:        "our-rent",
		SecretKey:        "wrong",
		Name:             &name,
	})
	if !errors.Is(err, repository.ErrBidNotFound) {
		t.Fatalf("expected ErrBidNotFound, got %v", err)
	}
}

func TestBidService_Delete(t *testing.T) {
	prev := storedBid()
	deleted := false
	bids := &mockBidRepository{
		getFn: func(ctx context.Context, obfuscation, slug, secretKey string) (*model.Bid, error) {
			clone := *prev
			return &clone, nil
		},
		deleteFn: func(ctx context.Context, bid *model.Bid) error {
			deleted = true
			return nil
		},
	}

	svc := NewBidService(bids, existingBeetlRepo(model.BeetlmodePublic), nil)
	bid, err := svc.Delete(context.Background(), prev.BeetlObfuscation, prev.BeetlSlug, prev.SecretKey)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to reach the repository")
	}
	if bid.ID != prev.ID {
		t.Fatalf("expected the deleted bid back, got %q", bid.ID)
	}
}
