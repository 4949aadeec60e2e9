package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"sshmate/internal/models"
	"sshmate/internal/services"
)

// WebSocketHandler handles the real-time chat protocol. Each connection is
// bound to one session; chat messages flow through the agent service and the
// structured results flow back as ai_response frames.
type WebSocketHandler struct {
	connManager *services.ConnectionManager
	agent       *services.AgentService
	sessions    *services.SessionService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(connManager *services.ConnectionManager, agent *services.AgentService, sessions *services.SessionService) *WebSocketHandler {
	return &WebSocketHandler{
		connManager: connManager,
		agent:       agent,
		sessions:    sessions,
	}
}

// Handle handles a new WebSocket connection
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	sessionID := c.Params("sessionID")
	connID := uuid.New().String()
	clientIP, _ := c.Locals("client_ip").(string)

	if _, err := h.sessions.Get(sessionID); err != nil {
		log.Printf("⚠️  WebSocket rejected: unknown session %s", sessionID)
		c.WriteJSON(models.ServerMessage{
			Type:         "error",
			ErrorCode:    "invalid_session",
			ErrorMessage: "Session not found",
		})
		c.Close()
		return
	}

	done := make(chan struct{})

	userConn := &models.UserConnection{
		ConnID:    connID,
		SessionID: sessionID,
		ClientIP:  clientIP,
		Conn:      c,
		CreatedAt: time.Now(),
		WriteChan: make(chan models.ServerMessage, 100),
		StopChan:  make(chan bool, 1),
	}

	h.connManager.Add(userConn)
	if m := services.GetMetrics(); m != nil {
		m.RecordWebSocketConnect()
	}
	defer func() {
		close(done)
		userConn.MarkClosed()
		h.connManager.Remove(connID)
		if m := services.GetMetrics(); m != nil {
			m.RecordWebSocketDisconnect()
		}
	}()

	// Long SSH command sequences can take minutes; keep the read deadline
	// generous and refresh it on traffic.
	c.SetReadDeadline(time.Now().Add(360 * time.Second))
	c.SetPongHandler(func(appData string) error {
		c.SetReadDeadline(time.Now().Add(360 * time.Second))
		return nil
	})

	go h.pingLoop(userConn, done)
	go h.writeLoop(userConn)

	userConn.WriteChan <- models.ServerMessage{
		Type:      "connected",
		Message:   "WebSocket connected. Ready to receive messages.",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	h.readLoop(userConn)
}

// pingLoop sends periodic pings to keep the connection alive during long
// command executions
func (h *WebSocketHandler) pingLoop(userConn *models.UserConnection, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := userConn.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				log.Printf("⚠️ Ping failed for %s: %v", userConn.ConnID, err)
				return
			}
		}
	}
}

// readLoop handles incoming messages from the client
func (h *WebSocketHandler) readLoop(userConn *models.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in readLoop: %v", r)
		}
	}()

	for {
		_, msg, err := userConn.Conn.ReadMessage()
		if err != nil {
			log.Printf("❌ WebSocket read error for %s: %v", userConn.ConnID, err)
			break
		}

		userConn.Conn.SetReadDeadline(time.Now().Add(360 * time.Second))

		var clientMsg models.ClientMessage
		if err := json.Unmarshal(msg, &clientMsg); err != nil {
			log.Printf("⚠️  Invalid message format from %s: %v", userConn.ConnID, err)
			userConn.SafeSend(models.ServerMessage{
				Type:         "error",
				ErrorCode:    "invalid_format",
				ErrorMessage: "Invalid message format",
			})
			continue
		}

		if m := services.GetMetrics(); m != nil {
			m.RecordWebSocketMessage(clientMsg.Type, "inbound")
		}

		switch clientMsg.Type {
		case "ping":
			userConn.SafeSend(models.ServerMessage{
				Type:      "pong",
				Timestamp: time.Now().Format(time.RFC3339),
			})
		case "chat_message":
			h.handleChatMessage(userConn, clientMsg)
		case "select_machine":
			h.handleSelectMachine(userConn, clientMsg)
		default:
			log.Printf("⚠️  Unknown message type: %s", clientMsg.Type)
		}
	}
}

// handleChatMessage acknowledges the input and processes it asynchronously
func (h *WebSocketHandler) handleChatMessage(userConn *models.UserConnection, clientMsg models.ClientMessage) {
	if clientMsg.Message == "" {
		userConn.SafeSend(models.ServerMessage{
			Type:         "error",
			ErrorCode:    "empty_message",
			ErrorMessage: "Message is required",
		})
		return
	}

	userConn.SafeSend(models.ServerMessage{
		Type:      "message_received",
		Message:   clientMsg.Message,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	log.Printf("💬 Chat message from %s (session: %s, length: %d chars)",
		userConn.ConnID, userConn.SessionID, len(clientMsg.Message))

	go func() {
		result, err := h.agent.ProcessCommand(context.Background(), userConn.SessionID, clientMsg.Message)
		if err != nil {
			userConn.SafeSend(models.ServerMessage{
				Type:         "ai_response",
				Success:      false,
				ErrorMessage: err.Error(),
				Timestamp:    time.Now().Format(time.RFC3339),
			})
			return
		}

		if result.Clarification != nil {
			userConn.SafeSend(models.ServerMessage{
				Type:             "ai_response",
				Success:          false,
				ErrorMessage:     result.Clarification.Message,
				Suggestions:      result.Clarification.Suggestions,
				AvailableIntents: result.Clarification.AvailableIntents,
				Timestamp:        time.Now().Format(time.RFC3339),
			})
			return
		}

		userConn.SafeSend(models.ServerMessage{
			Type:      "ai_response",
			Success:   true,
			Summary:   result.Summary,
			Results:   result.Results,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}()
}

// handleSelectMachine binds a machine to the connection's session
func (h *WebSocketHandler) handleSelectMachine(userConn *models.UserConnection, clientMsg models.ClientMessage) {
	if clientMsg.MachineID == "" {
		userConn.SafeSend(models.ServerMessage{
			Type:         "error",
			ErrorCode:    "missing_machine_id",
			ErrorMessage: "machine_id is required",
		})
		return
	}

	machine, err := h.agent.SelectMachine(context.Background(), userConn.SessionID, clientMsg.MachineID)
	if err != nil {
		userConn.SafeSend(models.ServerMessage{
			Type:         "error",
			ErrorCode:    "machine_selection_failed",
			ErrorMessage: err.Error(),
		})
		return
	}

	userConn.SafeSend(models.ServerMessage{
		Type:      "machine_selected",
		Success:   true,
		Machine:   machine,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// writeLoop handles outgoing messages to the client
func (h *WebSocketHandler) writeLoop(userConn *models.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in writeLoop: %v", r)
		}
	}()

	for msg := range userConn.WriteChan {
		if m := services.GetMetrics(); m != nil {
			m.RecordWebSocketMessage(msg.Type, "outbound")
		}
		if err := userConn.Conn.WriteJSON(msg); err != nil {
			log.Printf("❌ WebSocket write error for %s: %v", userConn.ConnID, err)
			return
		}
	}
}
