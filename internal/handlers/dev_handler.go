package handlers

import (
	"log/slog"
	"net/http"

	"impactx/internal/models"
	"impactx/internal/services"
	"impactx/utils"

	"github.com/gofiber/fiber/v3"
)

// DevHandler exposes development-only helpers. It is registered only when the
// service runs outside production.
type DevHandler struct {
	seedService *services.SeedService
}

func NewDevHandler(seedService *services.SeedService) *DevHandler {
	return &DevHandler{seedService: seedService}
}

func (h *DevHandler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/dev/seed", h.Seed) // POST /api/dev/seed
}

func (h *DevHandler) Seed(c fiber.Ctx) error {
	var req models.SeedRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	result, err := h.seedService.Seed(c.Context(), req.Reset, req.Impacts)
	if err != nil {
		slog.Error("Failed to seed demo data", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("SEED_FAILED", "Failed to seed demo data"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(result))
}
