package handler

import (
	"errors"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"github.com/beetl-xyz/beetl-api/internal/app/repository"
	"github.com/beetl-xyz/beetl-api/internal/app/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BidDeps groups dependencies required by bid handlers.
type BidDeps struct {
	Logger    *zap.Logger
	Bids      service.BidService
	Publisher *service.BidEventPublisher
}

// BidHandler implements the bid CRUD and listing endpoints.
type BidHandler struct {
	logger    *zap.Logger
	bids      service.BidService
	publisher *service.BidEventPublisher
}

// NewBidHandler creates a bid handler with the provided dependencies.
func NewBidHandler(deps BidDeps) *BidHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BidHandler{
		logger:    logger,
		bids:      deps.Bids,
		publisher: deps.Publisher,
	}
}

// Register wires bid routes onto the provided router.
func (h *BidHandler) Register(router fiber.Router) {
	router.Post("/bid", h.Create)
	router.Get("/bids", h.List)
	router.Patch("/bid", h.Update)
	router.Delete("/bid", h.Delete)
}

// CreateBidRequest represents the request body for placing a bid. Min
// and max are pointers so that a missing field is distinguishable from
// an explicit zero.
type CreateBidRequest struct {
	Name             string `json:"name"`
	Min              *int   `json:"min"`
	Mid              *int   `json:"mid,omitempty"`
	Max              *int   `json:"max"`
	BeetlObfuscation string `json:"beetl_obfuscation"`
	BeetlSlug        string `json:"beetl_slug"`
}

// BidResponse is the public shape of a bid, without its secretkey.
type BidResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Min              int       `json:"min"`
	Mid              *int      `json:"mid,omitempty"`
	Max              int       `json:"max"`
	BeetlObfuscation string    `json:"beetl_obfuscation"`
	BeetlSlug        string    `json:"beetl_slug"`
	Created          time.Time `json:"created"`
	Updated          time.Time `json:"updated"`
}

// CreateBidResponse is the one response that reveals the bid secretkey.
type CreateBidResponse struct {
	BidResponse
	SecretKey string `json:"secretkey"`
}

func bidResponse(bid *model.Bid) BidResponse {
	return BidResponse{
		ID:               bid.ID,
		Name:             bid.Name,
		Min:              bid.Min,
		Mid:              bid.Mid,
		Max:              bid.Max,
		BeetlObfuscation: bid.BeetlObfuscation,
		BeetlSlug:        bid.BeetlSlug,
		Created:          bid.Created,
		Updated:          bid.Updated,
	}
}

// Create handles POST /bid
func (h *BidHandler) Create(c *fiber.Ctx) error {
	var req CreateBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	var bad []string
	if req.Name == "" {
		bad = append(bad, "name")
	}
	if req.Min == nil {
		bad = append(bad, "min")
	}
	if req.Max == nil {
		bad = append(bad, "max")
	}
	if req.BeetlObfuscation == "" {
		bad = append(bad, "beetl_obfuscation")
	}
	if req.BeetlSlug == "" {
		bad = append(bad, "beetl_slug")
	}
	if len(bad) > 0 {
		return validationFailed(c, bad...)
	}

	bid, err := h.bids.Create(requestContext(c), service.CreateBidInput{
		Name:             req.Name,
		Min:              *req.Min,
		Mid:              req.Mid,
		Max:              *req.Max,
		BeetlObfuscation: req.BeetlObfuscation,
		BeetlSlug:        req.BeetlSlug,
	})
	if err != nil {
		return h.bidError(c, err, req.BeetlObfuscation, req.BeetlSlug)
	}

	if h.publisher != nil {
		go h.publishBidEvent(bid)
	}

	return c.JSON(CreateBidResponse{
		BidResponse: bidResponse(bid),
		SecretKey:   bid.SecretKey,
	})
}

// BidsResponse is the listing shape: the exposed bids plus the true
// total. For private beetls the list is empty while the total still
// reports every bid, so the two deliberately diverge.
type BidsResponse struct {
	Bids      []BidResponse `json:"bids"`
	BidsTotal int           `json:"bids_total"`
}

// List handles GET /bids
func (h *BidHandler) List(c *fiber.Ctx) error {
	obfuscation := c.Query("obfuscation")
	slug := c.Query("slug")

	var bad []string
	if obfuscation == "" {
		bad = append(bad, "obfuscation")
	}
	if slug == "" {
		bad = append(bad, "slug")
	}
	if len(bad) > 0 {
		return validationFailed(c, bad...)
	}

	bids, total, err := h.bids.ListForBeetl(requestContext(c), obfuscation, slug)
	if err != nil {
		return h.bidError(c, err, obfuscation, slug)
	}

	exposed := make([]BidResponse, len(bids))
	for i := range bids {
		exposed[i] = bidResponse(&bids[i])
	}
	return c.JSON(BidsResponse{
		Bids:      exposed,
		BidsTotal: total,
	})
}

// UpdateBidRequest represents the request body for patching a bid.
type UpdateBidRequest struct {
	BeetlObfuscation string `json:"beetl_obfuscation"`
	BeetlSlug        string `json:"beetl_slug"`
	SecretKey        string `json:"secretkey"`

	Name *string `json:"name,omitempty"`
	Min  *int    `json:"min,omitempty"`
	Mid  *int    `json:"mid,omitempty"`
	Max  *int    `json:"max,omitempty"`
}

// Update handles PATCH /bid
func (h *BidHandler) Update(c *fiber.Ctx) error {
	var req UpdateBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	var bad []string
	if req.BeetlObfuscation == "" {
		bad = append(bad, "beetl_obfuscation")
	}
	if req.BeetlSlug == "" {
		bad = append(bad, "beetl_slug")
	}
	if req.SecretKey == "" {
		bad = append(bad, "secretkey")
	}
	if len(bad) > 0 {
		return validationFailed(c, bad...)
	}

	bid, err := h.bids.Update(requestContext(c), service.UpdateBidInput{
		BeetlObfuscation: req.BeetlObfuscation,
		BeetlSlug:        req.BeetlSlug,
		SecretKey:        req.SecretKey,
		Name:             req.Name,
		Min:              req.Min,
		Mid:              req.Mid,
		Max:              req.Max,
	})
	if err != nil {
		return h.bidError(c, err, req.BeetlObfuscation, req.BeetlSlug)
	}
	return c.JSON(bidResponse(bid))
}

// Delete handles DELETE /bid
func (h *BidHandler) Delete(c *fiber.Ctx) error {
	obfuscation := c.Query("beetl_obfuscation")
	slug := c.Query("beetl_slug")
	secretKey := c.Query("secretkey")

	var bad []string
	if obfuscation == "" {
		bad = append(bad, "beetl_obfuscation")
	}
	if slug == "" {
		bad = append(bad, "beetl_slug")
	}
	if secretKey == "" {
		bad = append(bad, "secretkey")
	}
	if len(bad) > 0 {
		return validationFailed(c, bad...)
	}

	bid, err := h.bids.Delete(requestContext(c), obfuscation, slug, secretKey)
	if err != nil {
		return h.bidError(c, err, obfuscation, slug)
	}
	return c.JSON(bidResponse(bid))
}

func (h *BidHandler) bidError(c *fiber.Ctx, err error, obfuscation, slug string) error {
	switch {
	case errors.Is(err, service.ErrInvalidBidRange):
		return validationFailed(c, "min", "mid", "max")
	case errors.Is(err, repository.ErrBidNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "bid not found",
		})
	case errors.Is(err, repository.ErrBeetlNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "beetl not found",
		})
	}
	h.logger.Error("bid operation failed",
		zap.Error(err),
		zap.String("beetl_obfuscation", obfuscation),
		zap.String("beetl_slug", slug))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

func (h *BidHandler) publishBidEvent(bid *model.Bid) {
	if err := h.publisher.Publish(bid.BeetlObfuscation, bid.BeetlSlug, bid.Name); err != nil {
		h.logger.Error("failed to publish bid event",
			zap.Error(err),
			zap.String("bid_id", bid.ID))
	}
}
