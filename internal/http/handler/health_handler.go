package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const healthPingTimeout = 2 * time.Second

// HealthDeps groups dependencies required by the health endpoint.
type HealthDeps struct {
	Logger   *zap.Logger
	Postgres *pgxpool.Pool
}

// HealthHandler reports service liveness plus store reachability.
type HealthHandler struct {
	logger   *zap.Logger
	postgres *pgxpool.Pool
}

// NewHealthHandler creates a health handler with the provided dependencies.
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		logger:   logger,
		postgres: deps.Postgres,
	}
}

// Register wires the health routes onto the provided router.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
}

// Health is a simple endpoint so we know the service and its store are up.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	postgres := "skipped"
	if h.postgres != nil {
		ctx, cancel := context.WithTimeout(requestContext(c), healthPingTimeout)
		defer cancel()
		if err := h.postgres.Ping(ctx); err != nil {
			h.logger.Warn("postgres health ping failed", zap.Error(err))
			postgres = "unreachable"
		} else {
			postgres = "ok"
		}
	}

	return c.JSON(fiber.Map{
		"service":  "beetl-api",
		"status":   "ok",
		"postgres": postgres,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
