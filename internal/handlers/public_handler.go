package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"impactx/internal/services"
	"impactx/utils"

	"github.com/gofiber/fiber/v3"
)

// PublicHandler serves the aggregate read endpoints: leaderboard, community
// metrics and wallet profiles. All of them are unauthenticated.
type PublicHandler struct {
	metricsService *services.MetricsService
}

func NewPublicHandler(metricsService *services.MetricsService) *PublicHandler {
	return &PublicHandler{metricsService: metricsService}
}

func (h *PublicHandler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/leaderboard", h.GetLeaderboard)
	api.Get("/metrics", h.GetMetrics)
	api.Get("/profile/:wallet", h.GetProfile)
}

func (h *PublicHandler) GetLeaderboard(c fiber.Ctx) error {
	limit := 10
	if limitParam := c.Query("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	rows, err := h.metricsService.GetLeaderboard(c.Context(), limit)
	if err != nil {
		slog.Error("Failed to compute leaderboard", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to compute leaderboard"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"leaderboard": rows,
		"count":       len(rows),
	}))
}

func (h *PublicHandler) GetMetrics(c fiber.Ctx) error {
	metrics, err := h.metricsService.GetPublicMetrics(c.Context())
	if err != nil {
		slog.Error("Failed to compute metrics", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to compute metrics"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(metrics))
}

func (h *PublicHandler) GetProfile(c fiber.Ctx) error {
	wallet := c.Params("wallet")
	if wallet == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "wallet is required"))
	}

	profile, err := h.metricsService.GetProfile(c.Context(), wallet)
	if err != nil {
		slog.Error("Failed to compute profile", "wallet", wallet, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to compute profile"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(profile))
}
