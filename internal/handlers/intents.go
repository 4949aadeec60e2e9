package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"sshmate/internal/intent"
)

// IntentHandler exposes the intent catalog
type IntentHandler struct {
	catalog   *intent.Catalog
	rulesFile string
}

// NewIntentHandler creates a new intent handler. rulesFile may be empty when
// no external rules file is configured.
func NewIntentHandler(catalog *intent.Catalog, rulesFile string) *IntentHandler {
	return &IntentHandler{
		catalog:   catalog,
		rulesFile: rulesFile,
	}
}

// List handles GET /api/intents
func (h *IntentHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"intents": h.catalog.Intents(),
		"rules":   h.catalog.Len(),
	})
}

// Reload handles POST /api/intents/reload
func (h *IntentHandler) Reload(c *fiber.Ctx) error {
	if h.rulesFile == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No intent rules file configured",
		})
	}

	added, err := h.catalog.LoadFile(h.rulesFile)
	if err != nil {
		log.Printf("❌ Failed to reload intent rules: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	log.Printf("🔄 Intent rules reloaded: %d rule(s) added from %s", added, h.rulesFile)
	return c.JSON(fiber.Map{
		"success": true,
		"added":   added,
		"rules":   h.catalog.Len(),
	})
}
