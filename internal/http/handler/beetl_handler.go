package handler

import (
	"context"
	"errors"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"github.com/beetl-xyz/beetl-api/internal/app/repository"
	"github.com/beetl-xyz/beetl-api/internal/app/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BeetlDeps groups dependencies required by beetl handlers.
type BeetlDeps struct {
	Logger *zap.Logger
	Beetls service.BeetlService
}

// BeetlHandler implements the beetl CRUD endpoints.
type BeetlHandler struct {
	logger *zap.Logger
	beetls service.BeetlService
}

// NewBeetlHandler creates a beetl handler with the provided dependencies.
func NewBeetlHandler(deps BeetlDeps) *BeetlHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BeetlHandler{
		logger: logger,
		beetls: deps.Beetls,
	}
}

// Register wires beetl routes onto the provided router.
func (h *BeetlHandler) Register(router fiber.Router) {
	router.Post("/beetl", h.Create)
	router.Get("/beetl", h.Get)
	router.Patch("/beetl", h.Update)
	router.Delete("/beetl", h.Delete)
}

// CreateBeetlRequest represents the request body for creating a beetl.
// Obfuscation may be omitted; the server then generates one.
type CreateBeetlRequest struct {
	Obfuscation string `json:"obfuscation,omitempty"`
	Slug        string `json:"slug"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Target      *int   `json:"target,omitempty"`
	Method      string `json:"method"`
	Beetlmode   string `json:"beetlmode,omitempty"`
}

// BeetlResponse is the public shape of a beetl. It never carries the
// secretkey or the internal id.
type BeetlResponse struct {
	Obfuscation string    `json:"obfuscation"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Target      *int      `json:"target,omitempty"`
	Method      string    `json:"method"`
	Beetlmode   string    `json:"beetlmode"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// CreateBeetlResponse is the one response that reveals the secretkey.
type CreateBeetlResponse struct {
	BeetlResponse
	SecretKey string `json:"secretkey"`
}

func beetlResponse(beetl *model.Beetl) BeetlResponse {
	return BeetlResponse{
		Obfuscation: beetl.Obfuscation,
		Slug:        beetl.Slug,
		Title:       beetl.Title,
		Description: beetl.Description,
		Target:      beetl.Target,
		Method:      beetl.Method,
		Beetlmode:   beetl.Beetlmode,
		Created:     beetl.Created,
		Updated:     beetl.Updated,
	}
}

func validationFailed(c *fiber.Ctx, fields ...string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": fields,
	})
}

func validMethod(method string) bool {
	return method == model.MethodPercentage || method == model.MethodStepwise
}

func validBeetlmode(mode string) bool {
	return mode == model.BeetlmodePublic || mode == model.BeetlmodePrivate
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

// Create handles POST /beetl
func (h *BeetlHandler) Create(c *fiber.Ctx) error {
	var req CreateBeetlRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	var bad []string
	if req.Slug == "" {
		bad = append(bad, "slug")
	}
	if !validMethod(req.Method) {
		bad = append(bad, "method")
	}
	if req.Beetlmode != "" && !validBeetlmode(req.Beetlmode) {
		bad = append(bad, "beetlmode")
	}
	if len(bad) > 0 {
		return validationFailed(c, bad...)
	}

	beetl, err := h.beetls.Create(requestContext(c), service.CreateBeetlInput{
		Obfuscation: req.Obfuscation,
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Target:      req.Target,
		Method:      req.Method,
		Beetlmode:   req.Beetlmode,
	})
	if err != nil {
		h.logger.Error("failed to create beetl", zap.Error(err), zap.String("slug", req.Slug))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create beetl",
		})
	}

	return c.JSON(CreateBeetlResponse{
		BeetlResponse: beetlResponse(beetl),
		SecretKey:     beetl.SecretKey,
	})
}

// Get handles GET /beetl
func (h *BeetlHandler) Get(c *fiber.Ctx) error {
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

	beetl, err := h.beetls.Get(requestContext(c), obfuscation, slug)
	if err != nil {
		return h.beetlError(c, err, obfuscation, slug)
	}
	return c.JSON(beetlResponse(beetl))
}

// UpdateBeetlRequest represents the request body for patching a beetl.
// Fields left out of the payload are left untouched.
type UpdateBeetlRequest struct {
	Obfuscation string `json:"obfuscation"`
	Slug        string `json:"slug"`
	SecretKey   string `json:"secretkey"`

	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Target      *int    `json:"target,omitempty"`
	Method      *string `json:"method,omitempty"`
	Beetlmode   *string `json:"beetlmode,omitempty"`
}

// Update handles PATCH /beetl
func (h *BeetlHandler) Update(c *fiber.Ctx) error {
	var req UpdateBeetlRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	// An absent secretkey is a validation failure; a wrong one reads as
	// an absent record further down.
	var bad []string
	if req.Obfuscation == "" {
		bad = append(bad, "obfuscation")
	}
	if req.Slug == "" {
		bad = append(bad, "slug")
	}
	if req.SecretKey == "" {
		bad = append(bad, "secretkey")
	}
	if req.Method != nil && !validMethod(*req.Method) {
		bad = append(bad, "method")
	}
	if req.Beetlmode != nil && !validBeetlmode(*req.Beetlmode) {
		bad = append(bad, "beetlmode")
	}
	if len(bad) > 0 {
		return validationFailed(c, bad...)
	}

	beetl, err := h.beetls.Update(requestContext(c), service.UpdateBeetlInput{
		Obfuscation: req.Obfuscation,
		Slug:        req.Slug,
		SecretKey:   req.SecretKey,
		Title:       req.Title,
		Description: req.Description,
		Target:      req.Target,
		Method:      req.Method,
		Beetlmode:   req.Beetlmode,
	})
	if err != nil {
		return h.beetlError(c, err, req.Obfuscation, req.Slug)
	}
	return c.JSON(beetlResponse(beetl))
}

// Delete handles DELETE /beetl and cascades to the referencing bids.
func (h *BeetlHandler) Delete(c *fiber.Ctx) error {
	obfuscation := c.Query("obfuscation")
	slug := c.Query("slug")
	secretKey := c.Query("secretkey")

	var bad []string
	if obfuscation == "" {
		bad = append(bad, "obfuscation")
	}
	if slug == "" {
		bad = append(bad, "slug")
	}
	if secretKey == "" {
		bad = append(bad, "secretkey")
	}
	if len(bad) > 0 {
		return validationFailed(c, bad...)
	}

	beetl, err := h.beetls.Delete(requestContext(c), obfuscation, slug, secretKey)
	if err != nil {
		return h.beetlError(c, err, obfuscation, slug)
	}
	return c.JSON(beetlResponse(beetl))
}

func (h *BeetlHandler) beetlError(c *fiber.Ctx, err error, obfuscation, slug string) error {
	if errors.Is(err, repository.ErrBeetlNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "beetl not found",
		})
	}
	h.logger.Error("beetl operation failed",
		zap.Error(err),
		zap.String("obfuscation", obfuscation),
		zap.String("slug", slug))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
