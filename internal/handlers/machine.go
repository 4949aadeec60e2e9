package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"sshmate/internal/models"
	"sshmate/internal/services"
)

// MachineHandler exposes the machine inventory over REST
type MachineHandler struct {
	machines *services.MachineService
}

// NewMachineHandler creates a new machine handler
func NewMachineHandler(machines *services.MachineService) *MachineHandler {
	return &MachineHandler{machines: machines}
}

// List handles GET /api/machines
func (h *MachineHandler) List(c *fiber.Ctx) error {
	machines, err := h.machines.List(c.Context())
	if err != nil {
		log.Printf("❌ Failed to list machines: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list machines",
		})
	}
	return c.JSON(machines)
}

// Get handles GET /api/machines/:id
func (h *MachineHandler) Get(c *fiber.Ctx) error {
	machine, err := h.machines.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrMachineNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Machine not found",
			})
		}
		log.Printf("❌ Failed to get machine: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get machine",
		})
	}
	return c.JSON(machine)
}

// Create handles POST /api/machines
func (h *MachineHandler) Create(c *fiber.Ctx) error {
	var req models.MachineCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" || req.Host == "" || req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name, host and username are required",
		})
	}

	machine, err := h.machines.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrConnectionFailed) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("❌ Failed to create machine: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create machine",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(machine)
}

// Update handles PUT /api/machines/:id
func (h *MachineHandler) Update(c *fiber.Ctx) error {
	var req models.MachineUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	machine, err := h.machines.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrMachineNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Machine not found",
			})
		}
		log.Printf("❌ Failed to update machine: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update machine",
		})
	}
	return c.JSON(machine)
}

// Delete handles DELETE /api/machines/:id
func (h *MachineHandler) Delete(c *fiber.Ctx) error {
	if err := h.machines.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrMachineNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Machine not found",
			})
		}
		log.Printf("❌ Failed to delete machine: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete machine",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Search handles GET /api/machines/search/:query
func (h *MachineHandler) Search(c *fiber.Ctx) error {
	machines, err := h.machines.Search(c.Context(), c.Params("query"))
	if err != nil {
		log.Printf("❌ Failed to search machines: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search machines",
		})
	}
	return c.JSON(machines)
}

// Probe handles POST /api/machines/:id/probe
func (h *MachineHandler) Probe(c *fiber.Ctx) error {
	reachable, err := h.machines.Probe(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrMachineNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Machine not found",
			})
		}
		log.Printf("❌ Failed to probe machine: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to probe machine",
		})
	}
	return c.JSON(fiber.Map{"reachable": reachable})
}
