package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// PubSubService fans machine status and session events out to other server
// instances over Redis. Single-instance deployments run fine without it.
type PubSubService struct {
	redis      *RedisService
	pubsub     *redis.PubSub
	handlers   map[string][]MessageHandler
	mu         sync.RWMutex
	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc
}

// MessageHandler is a callback for handling pub/sub messages
type MessageHandler func(channel string, message *PubSubMessage)

// PubSubMessage represents a message sent via pub/sub
type PubSubMessage struct {
	Type       string                 `json:"type"` // e.g. "machine_status", "session_event"
	SessionID  string                 `json:"session_id,omitempty"`
	MachineID  string                 `json:"machine_id,omitempty"`
	InstanceID string                 `json:"instance_id"` // Source instance ID
	Payload    map[string]interface{} `json:"payload"`
}

// NewPubSubService creates a new pub/sub service
func NewPubSubService(redisService *RedisService, instanceID string) *PubSubService {
	ctx, cancel := context.WithCancel(context.Background())
	return &PubSubService{
		redis:      redisService,
		handlers:   make(map[string][]MessageHandler),
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Subscribe subscribes to a channel pattern
func (s *PubSubService) Subscribe(pattern string, handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[pattern] = append(s.handlers[pattern], handler)
	log.Printf("📡 [PUBSUB] Subscribed to pattern: %s", pattern)
}

// Start begins listening for pub/sub messages
func (s *PubSubService) Start() error {
	client := s.redis.Client()

	s.pubsub = client.PSubscribe(s.ctx,
		"session:*:events", // Session-specific events
		"machine:*:events", // Machine status events
		"broadcast:*",      // Global broadcast
	)

	// Wait for subscription confirmation
	_, err := s.pubsub.Receive(s.ctx)
	if err != nil {
		return err
	}

	go s.processMessages()

	log.Printf("✅ [PUBSUB] Started listening for messages (instance: %s)", s.instanceID)
	return nil
}

// processMessages handles incoming pub/sub messages
func (s *PubSubService) processMessages() {
	ch := s.pubsub.Channel()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleMessage(msg)
		}
	}
}

// handleMessage processes a single pub/sub message
func (s *PubSubService) handleMessage(msg *redis.Message) {
	var message PubSubMessage
	if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to unmarshal message: %v", err)
		return
	}

	// Skip messages from this instance (avoid loops)
	if message.InstanceID == s.instanceID {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for pattern, handlers := range s.handlers {
		if matchPattern(pattern, msg.Channel) {
			for _, handler := range handlers {
				go handler(msg.Channel, &message)
			}
		}
	}
}

// PublishToSession publishes a message to a session's channel
func (s *PubSubService) PublishToSession(ctx context.Context, sessionID string, msgType string, payload map[string]interface{}) error {
	message := &PubSubMessage{
		Type:       msgType,
		SessionID:  sessionID,
		InstanceID: s.instanceID,
		Payload:    payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	channel := "session:" + sessionID + ":events"
	return s.redis.Client().Publish(ctx, channel, data).Err()
}

// PublishMachineStatus publishes a machine health transition
func (s *PubSubService) PublishMachineStatus(ctx context.Context, machineID string, reachable bool) error {
	message := &PubSubMessage{
		Type:       "machine_status",
		MachineID:  machineID,
		InstanceID: s.instanceID,
		Payload: map[string]interface{}{
			"reachable": reachable,
		},
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	channel := "machine:" + machineID + ":events"
	return s.redis.Client().Publish(ctx, channel, data).Err()
}

// Broadcast publishes a message to all instances
func (s *PubSubService) Broadcast(ctx context.Context, topic string, msgType string, payload map[string]interface{}) error {
	message := &PubSubMessage{
		Type:       msgType,
		InstanceID: s.instanceID,
		Payload:    payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	channel := "broadcast:" + topic
	return s.redis.Client().Publish(ctx, channel, data).Err()
}

// Stop stops the pub/sub service
func (s *PubSubService) Stop() error {
	s.cancel()
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}

// matchPattern checks if a channel matches a pattern (simplified glob)
func matchPattern(pattern, channel string) bool {
	if pattern == channel {
		return true
	}

	patternParts := strings.Split(pattern, ":")
	channelParts := strings.Split(channel, ":")

	if len(patternParts) != len(channelParts) {
		return false
	}

	for i, part := range patternParts {
		if part != "*" && part != channelParts[i] {
			return false
		}
	}

	return true
}
