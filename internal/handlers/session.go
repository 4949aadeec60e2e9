package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"sshmate/internal/services"
)

// SessionHandler exposes conversation sessions over REST
type SessionHandler struct {
	agent    *services.AgentService
	sessions *services.SessionService
	history  *services.HistoryService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(agent *services.AgentService, sessions *services.SessionService, history *services.HistoryService) *SessionHandler {
	return &SessionHandler{
		agent:    agent,
		sessions: sessions,
		history:  history,
	}
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	session, err := h.agent.CreateSession(c.Context())
	if err != nil {
		log.Printf("❌ Failed to create session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": session.ID,
	})
}

// Get handles GET /api/sessions/:id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(session)
}

// Transcript handles GET /api/sessions/:id/transcript
func (h *SessionHandler) Transcript(c *fiber.Ctx) error {
	entries, err := h.sessions.Transcript(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(fiber.Map{
		"session_id": c.Params("id"),
		"transcript": entries,
	})
}

// Executions handles GET /api/sessions/:id/executions
// Returns the durable command trail, which survives restarts.
func (h *SessionHandler) Executions(c *fiber.Ctx) error {
	outcomes, err := h.history.SessionExecutions(c.Context(), c.Params("id"))
	if err != nil {
		log.Printf("❌ Failed to load executions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load executions",
		})
	}
	return c.JSON(fiber.Map{
		"session_id": c.Params("id"),
		"executions": outcomes,
	})
}

// SelectMachine handles POST /api/sessions/:id/select-machine/:machineID
func (h *SessionHandler) SelectMachine(c *fiber.Ctx) error {
	machine, err := h.agent.SelectMachine(c.Context(), c.Params("id"), c.Params("machineID"))
	if err != nil {
		return h.mapAgentError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"machine": machine,
	})
}

// ProcessCommand handles POST /api/sessions/:id/commands
type processCommandRequest struct {
	Message string `json:"message"`
}

// Process handles a natural-language command over REST. The websocket chat
// endpoint is the primary surface; this exists for scripting.
func (h *SessionHandler) Process(c *fiber.Ctx) error {
	var req processCommandRequest
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}

	result, err := h.agent.ProcessCommand(c.Context(), c.Params("id"), req.Message)
	if err != nil {
		return h.mapAgentError(c, err)
	}
	return c.JSON(result)
}

func (h *SessionHandler) mapAgentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidSession):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	case errors.Is(err, services.ErrMachineNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Machine not found",
		})
	case errors.Is(err, services.ErrNoMachineSelected):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No machine selected. Please select a machine first.",
		})
	case errors.Is(err, services.ErrConnectionFailed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		log.Printf("❌ Agent error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal error",
		})
	}
}
