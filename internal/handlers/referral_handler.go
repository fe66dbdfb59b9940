package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"impactx/internal/models"
	"impactx/internal/services"
	"impactx/utils"

	"github.com/gofiber/fiber/v3"
)

type ReferralHandler struct {
	referralService *services.ReferralService
}

func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

func (h *ReferralHandler) Register(app *fiber.App) {
	api := app.Group("/api")

	referralGroup := api.Group("/referrals")
	referralGroup.Post("/", h.CreateReferral)
	referralGroup.Get("/", h.GetReferrals)
	referralGroup.Get("/:code", h.GetReferral)
}

func (h *ReferralHandler) CreateReferral(c fiber.Ctx) error {
	var req models.NewReferralRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	if req.Wallet == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "wallet is required"))
	}

	referral, err := h.referralService.CreateReferral(c.Context(), req.Wallet)
	if err != nil {
		slog.Error("Failed to create referral", "wallet", req.Wallet, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("CREATION_FAILED", "Failed to create referral"))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(referral))
}

func (h *ReferralHandler) GetReferrals(c fiber.Ctx) error {
	referrals, err := h.referralService.GetReferrals(c.Context())
	if err != nil {
		slog.Error("Failed to list referrals", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve referrals"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"referrals": referrals,
		"count":     len(referrals),
	}))
}

func (h *ReferralHandler) GetReferral(c fiber.Ctx) error {
	code := c.Params("code")

	referral, err := h.referralService.GetReferral(c.Context(), code)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Referral not found"))
		}
		slog.Error("Failed to get referral", "code", code, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve referral"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(referral))
}
