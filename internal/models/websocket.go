package models

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// ClientMessage represents a message from the websocket client.
type ClientMessage struct {
	Type      string `json:"type"` // "chat_message", "select_machine" or "ping"
	Message   string `json:"message,omitempty"`
	MachineID string `json:"machine_id,omitempty"`
}

// ServerMessage represents a message sent to the websocket client.
type ServerMessage struct {
	Type             string            `json:"type"` // "connected", "message_received", "ai_response", "machine_selected", "pong", "error"
	Success          bool              `json:"success,omitempty"`
	Message          string            `json:"message,omitempty"`
	Summary          string            `json:"summary,omitempty"`
	Results          []CommandOutcome  `json:"results,omitempty"`
	Machine          *MachineSummary   `json:"machine,omitempty"`
	Suggestions      []string          `json:"suggestions,omitempty"`
	AvailableIntents map[string]string `json:"available_commands,omitempty"`
	ErrorCode        string            `json:"code,omitempty"`
	ErrorMessage     string            `json:"error,omitempty"`
	Timestamp        string            `json:"timestamp,omitempty"`
}

// UserConnection represents a single websocket connection bound to a session.
type UserConnection struct {
	ConnID    string
	SessionID string
	ClientIP  string
	Conn      *websocket.Conn
	CreatedAt time.Time
	WriteChan chan ServerMessage
	StopChan  chan bool
	Mutex     sync.Mutex
	closed    bool
}

// SafeSend sends a message to WriteChan, returning false if the channel is closed.
func (uc *UserConnection) SafeSend(msg ServerMessage) bool {
	uc.Mutex.Lock()
	if uc.closed {
		uc.Mutex.Unlock()
		return false
	}
	uc.Mutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			uc.Mutex.Lock()
			uc.closed = true
			uc.Mutex.Unlock()
		}
	}()

	uc.WriteChan <- msg
	return true
}

// MarkClosed marks the connection as closed.
func (uc *UserConnection) MarkClosed() {
	uc.Mutex.Lock()
	uc.closed = true
	uc.Mutex.Unlock()
}

// IsClosed returns true if the connection has been marked as closed.
func (uc *UserConnection) IsClosed() bool {
	uc.Mutex.Lock()
	defer uc.Mutex.Unlock()
	return uc.closed
}
