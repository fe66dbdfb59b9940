package handlers

import (
	"net/http"
	"time"

	"impactx/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/jmoiron/sqlx"
)

type HealthHandler struct {
	db        *sqlx.DB
	startedAt time.Time
}

func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db, startedAt: time.Now()}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health) // GET /health
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	// db may still be nil while the startup retry loop reconnects.
	dbStatus := "ok"
	if h.db == nil {
		dbStatus = "unreachable"
	} else if err := h.db.PingContext(c.Context()); err != nil {
		dbStatus = "unreachable"
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	return c.Status(status).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"service":  "impactx",
		"database": dbStatus,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
	}))
}
