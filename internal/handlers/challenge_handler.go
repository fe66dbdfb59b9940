package handlers

import (
	"log/slog"
	"net/http"

	"impactx/internal/services"
	"impactx/utils"

	"github.com/gofiber/fiber/v3"
)

// ChallengeHandler serves the weekly challenge list.
type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (h *ChallengeHandler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/challenges", h.GetChallenges)
}

func (h *ChallengeHandler) GetChallenges(c fiber.Ctx) error {
	challenges, err := h.challengeService.GetChallenges(c.Context())
	if err != nil {
		slog.Error("Failed to list challenges", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve challenges"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"challenges": challenges,
		"count":      len(challenges),
	}))
}
