package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"sshmate/internal/database"
	"sshmate/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	connManager *services.ConnectionManager
	sessions    *services.SessionService
	db          *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(connManager *services.ConnectionManager, sessions *services.SessionService, db *database.DB) *HealthHandler {
	return &HealthHandler{
		connManager: connManager,
		sessions:    sessions,
		db:          db,
	}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"
	if err := h.db.Ping(); err != nil {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":      status,
		"connections": h.connManager.Count(),
		"sessions":    h.sessions.Count(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}
