package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"impactx/internal/models"
	"impactx/internal/services"
	"impactx/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ImpactHandler struct {
	impactService *services.ImpactService
}

func NewImpactHandler(impactService *services.ImpactService) *ImpactHandler {
	return &ImpactHandler{impactService: impactService}
}

func (h *ImpactHandler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/impacts", h.SubmitImpact)
	api.Get("/impacts", h.GetImpacts)
	api.Get("/impacts/:id", h.GetImpactByID)
	api.Get("/verifications", h.GetVerifications)

	app.Get("/uploads/:file", h.ServeUpload)
}

// SubmitImpact accepts a claim as multipart form data with an optional
// "photo" file part, or as JSON carrying an image URL.
func (h *ImpactHandler) SubmitImpact(c fiber.Ctx) error {
	var req models.SubmitImpactRequest
	var photo []byte
	var photoName, imageURL string

	if strings.Contains(c.Get("Content-Type"), "multipart/form-data") {
		req.WalletAddress = c.FormValue("walletAddress")
		req.ActionType = c.FormValue("actionType")
		req.Description = c.FormValue("description")
		req.ReferralCode = c.FormValue("referralCode")
		imageURL = c.FormValue("image")

		if fh, err := c.FormFile("photo"); err == nil {
			file, err := fh.Open()
			if err != nil {
				return c.Status(http.StatusBadRequest).JSON(
					utils.CreateErrorResponse("INVALID_PHOTO", "Could not read uploaded photo"))
			}
			defer file.Close()

			photo, err = io.ReadAll(file)
			if err != nil {
				return c.Status(http.StatusBadRequest).JSON(
					utils.CreateErrorResponse("INVALID_PHOTO", "Could not read uploaded photo"))
			}
			photoName = fh.Filename
		}
	} else {
		var body struct {
			models.SubmitImpactRequest
			Image string `json:"image"`
		}
		if err := c.Bind().Body(&body); err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
		}
		req = body.SubmitImpactRequest
		imageURL = body.Image
	}

	if req.WalletAddress == "" || req.ActionType == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponseWithDetails("VALIDATION_FAILED", "Missing required fields",
				map[string]string{"required": "walletAddress, actionType"}))
	}

	impact, err := h.impactService.SubmitImpact(c.Context(), req, photo, photoName, imageURL)
	if err != nil {
		slog.Error("Failed to submit impact", "wallet", req.WalletAddress, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("SUBMISSION_FAILED", "Failed to submit impact"))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(impact))
}

// GetImpacts lists impacts, optionally filtered by wallet and status.
func (h *ImpactHandler) GetImpacts(c fiber.Ctx) error {
	wallet := c.Query("walletAddress")
	if wallet == "" {
		wallet = c.Query("wallet")
	}
	status := models.ImpactStatus(c.Query("status"))

	limit := 0
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 0 {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_LIMIT", "limit must be a non-negative integer"))
		}
		limit = parsed
	}

	impacts, err := h.impactService.GetImpacts(c.Context(), wallet, status, limit)
	if err != nil {
		if strings.Contains(err.Error(), "invalid status") {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_STATUS", "status must be pending, verified or rejected"))
		}
		slog.Error("Failed to list impacts", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve impacts"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"impacts": impacts,
		"count":   len(impacts),
	}))
}

func (h *ImpactHandler) GetImpactByID(c fiber.Ctx) error {
	impactID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid impact ID format"))
	}

	impact, err := h.impactService.GetImpactByID(c.Context(), impactID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Impact not found"))
		}
		slog.Error("Failed to get impact", "impact_id", impactID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve impact"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(impact))
}

// GetVerifications returns the public verifier feed, latest 100 by default.
func (h *ImpactHandler) GetVerifications(c fiber.Ctx) error {
	limit := 0
	if limitParam := c.Query("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	verifications, err := h.impactService.GetVerifications(c.Context(), limit)
	if err != nil {
		slog.Error("Failed to list verifications", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve verifications"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"verifications": verifications,
		"count":         len(verifications),
	}))
}

// ServeUpload streams a stored photo back to the client.
func (h *ImpactHandler) ServeUpload(c fiber.Ctx) error {
	data, err := h.impactService.GetUploadedPhoto(c.Context(), c.Params("file"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", "Upload not found"))
	}

	c.Set("Content-Type", http.DetectContentType(data))
	return c.Status(http.StatusOK).Send(data)
}
