package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"github.com/beetl-xyz/beetl-api/internal/app/repository"
	"github.com/beetl-xyz/beetl-api/internal/app/server"
	"github.com/beetl-xyz/beetl-api/internal/app/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// In-memory repositories so handler tests cover the full path from HTTP
// request to stored state without Postgres.

type memBeetlRepo struct {
	mu     sync.Mutex
	beetls map[string]model.Beetl // keyed by obfuscation + "/" + slug
}

func newMemBeetlRepo() *memBeetlRepo {
	return &memBeetlRepo{beetls: map[string]model.Beetl{}}
}

func beetlKey(obfuscation, slug string) string {
	return obfuscation + "/" + slug
}

func (r *memBeetlRepo) Create(_ context.Context, beetl *model.Beetl) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beetls[beetlKey(beetl.Obfuscation, beetl.Slug)] = *beetl
	return nil
}

func (r *memBeetlRepo) GetByKey(_ context.Context, obfuscation, slug string) (*model.Beetl, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	beetl, ok := r.beetls[beetlKey(obfuscation, slug)]
	if !ok {
		return nil, repository.ErrBeetlNotFound
	}
	clone := beetl
	return &clone, nil
}

func (r *memBeetlRepo) Keys(_ context.Context) ([]model.BeetlKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]model.BeetlKey, 0, len(r.beetls))
	for _, beetl := range r.beetls {
		keys = append(keys, model.BeetlKey{Obfuscation: beetl.Obfuscation, Slug: beetl.Slug})
	}
	return keys, nil
}

func (r *memBeetlRepo) Update(_ context.Context, beetl *model.Beetl) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := beetlKey(beetl.Obfuscation, beetl.Slug)
	if _, ok := r.beetls[key]; !ok {
		return repository.ErrBeetlNotFound
	}
	r.beetls[key] = *beetl
	return nil
}

func (r *memBeetlRepo) Delete(_ context.Context, beetl *model.Beetl) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := beetlKey(beetl.Obfuscation, beetl.Slug)
	if _, ok := r.beetls[key]; !ok {
		return repository.ErrBeetlNotFound
	}
	delete(r.beetls, key)
	return nil
}

func (r *memBeetlRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, beetl := range r.beetls {
		if !beetl.Updated.After(cutoff) {
			delete(r.beetls, key)
			n++
		}
	}
	return n, nil
}

type memBidRepo struct {
	mu   sync.Mutex
	bids map[string]model.Bid // keyed by id
}

func newMemBidRepo() *memBidRepo {
	return &memBidRepo{bids: map[string]model.Bid{}}
}

func (r *memBidRepo) Create(_ context.Context, bid *model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bids[bid.ID] = *bid
	return nil
}

func (r *memBidRepo) GetByKey(_ context.Context, obfuscation, slug, secretKey string) (*model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bid := range r.bids {
		if bid.BeetlObfuscation == obfuscation && bid.BeetlSlug == slug && bid.SecretKey == secretKey {
			clone := bid
			return &clone, nil
		}
	}
	return nil, repository.ErrBidNotFound
}

func (r *memBidRepo) ListForBeetl(_ context.Context, obfuscation, slug string) ([]model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var bids []model.Bid
	for _, bid := range r.bids {
		if bid.BeetlObfuscation == obfuscation && bid.BeetlSlug == slug {
			bids = append(bids, bid)
		}
	}
	return bids, nil
}

func (r *memBidRepo) Update(_ context.Context, bid *model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bids[bid.ID]; !ok {
		return repository.ErrBidNotFound
	}
	r.bids[bid.ID] = *bid
	return nil
}

func (r *memBidRepo) Delete(_ context.Context, bid *model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bids[bid.ID]; !ok {
		return repository.ErrBidNotFound
	}
	delete(r.bids, bid.ID)
	return nil
}

func (r *memBidRepo) DeleteForBeetl(_ context.Context, obfuscation, slug string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, bid := range r.bids {
		if bid.BeetlObfuscation == obfuscation && bid.BeetlSlug == slug {
			delete(r.bids, id)
			n++
		}
	}
	return n, nil
}

func (r *memBidRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, bid := range r.bids {
		if !bid.Updated.After(cutoff) {
			delete(r.bids, id)
			n++
		}
	}
	return n, nil
}

func newTestApp() (*fiber.App, *memBeetlRepo, *memBidRepo) {
	beetls := newMemBeetlRepo()
	bids := newMemBidRepo()
	srv := server.New(server.Dependencies{
		Logger: zap.NewNop(),
		Beetls: service.NewBeetlService(beetls, bids, nil),
		Bids:   service.NewBidService(bids, beetls, nil),
	})
	return srv.App(), beetls, bids
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && err != io.EOF {
		t.Fatalf("decode response body: %v", err)
	}
	return resp.StatusCode, decoded
}

func createBeetl(t *testing.T, app *fiber.App, body map[string]any) map[string]any {
	t.Helper()
	status, resp := doJSON(t, app, http.MethodPost, "/beetl", body)
	if status != http.StatusOK {
		t.Fatalf("create beetl: expected 200, got %d (%v)", status, resp)
	}
	return resp
}
