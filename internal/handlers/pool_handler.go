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

type PoolHandler struct {
	poolService *services.PoolService
}

func NewPoolHandler(poolService *services.PoolService) *PoolHandler {
	return &PoolHandler{poolService: poolService}
}

func (h *PoolHandler) Register(app *fiber.App) {
	api := app.Group("/api")

	poolGroup := api.Group("/pools")
	poolGroup.Post("/", h.CreatePool)
	poolGroup.Get("/", h.GetPools)
	poolGroup.Get("/:id", h.GetPoolByID)
	poolGroup.Post("/:id/contribute", h.Contribute)
	poolGroup.Post("/:id/distribute", h.Distribute)
}

func (h *PoolHandler) CreatePool(c fiber.Ctx) error {
	var req models.CreatePoolRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	pool, err := h.poolService.CreatePool(c.Context(), req)
	if err != nil {
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "invalid") ||
			strings.Contains(err.Error(), "non-negative") {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
		}
		slog.Error("Failed to create pool", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("CREATION_FAILED", "Failed to create pool"))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(pool))
}

func (h *PoolHandler) GetPools(c fiber.Ctx) error {
	pools, err := h.poolService.GetPools(c.Context())
	if err != nil {
		slog.Error("Failed to list pools", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve pools"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"pools": pools,
		"count": len(pools),
	}))
}

func (h *PoolHandler) GetPoolByID(c fiber.Ctx) error {
	poolID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid pool ID format"))
	}

	pool, err := h.poolService.GetPool(c.Context(), poolID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Pool not found"))
		}
		slog.Error("Failed to get pool", "pool_id", poolID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve pool"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(pool))
}

func (h *PoolHandler) Contribute(c fiber.Ctx) error {
	poolID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid pool ID format"))
	}

	var req models.ContributeRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	pool, err := h.poolService.Contribute(c.Context(), poolID, req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Pool not found"))
		}
		if strings.Contains(err.Error(), "positive") {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
		}
		slog.Error("Failed to record contribution", "pool_id", poolID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("CONTRIBUTION_FAILED", "Failed to record contribution"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(pool))
}

// Distribute computes one distribution event for the pool.
func (h *PoolHandler) Distribute(c fiber.Ctx) error {
	poolID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid pool ID format"))
	}

	distribution, err := h.poolService.Distribute(c.Context(), poolID)
	if err != nil {
		if errors.Is(err, services.ErrNoEligibleImpacts) {
			return c.Status(http.StatusConflict).JSON(
				utils.CreateErrorResponse("NO_ELIGIBLE_IMPACTS", "No verified impacts inside the pool window"))
		}
		if strings.Contains(err.Error(), "not found") {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Pool not found"))
		}
		slog.Error("Failed to distribute pool", "pool_id", poolID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("DISTRIBUTION_FAILED", "Failed to distribute pool"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(distribution))
}
