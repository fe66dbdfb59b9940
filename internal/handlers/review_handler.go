package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"impactx/internal/models"
	"impactx/internal/services"
	"impactx/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	moderationService *services.ModerationService
}

func NewReviewHandler(moderationService *services.ModerationService) *ReviewHandler {
	return &ReviewHandler{moderationService: moderationService}
}

func (h *ReviewHandler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/impacts/:id/review", h.ReviewImpact) // POST /api/impacts/:id/review
}

// ReviewImpact applies a human decision to an impact. The reviewer identity
// comes from the X-User-ID header set by the gateway.
func (h *ReviewHandler) ReviewImpact(c fiber.Ctx) error {
	reviewer := c.Get("X-User-ID")
	if reviewer == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "Reviewer ID is required"))
	}

	impactID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid impact ID format"))
	}

	var req models.ReviewImpactRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	impact, err := h.moderationService.FinalizeHuman(c.Context(), impactID, req.Decision, reviewer, req.Note)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDecision) {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponseWithDetails("INVALID_DECISION", "Decision is not recognized",
					map[string]string{"accepted": "approve, reject, rejected, disapprove"}))
		}
		if strings.Contains(err.Error(), "not found") {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Impact not found"))
		}
		slog.Error("Failed to review impact", "impact_id", impactID, "reviewer", reviewer, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("REVIEW_FAILED", "Failed to apply review decision"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(impact))
}
