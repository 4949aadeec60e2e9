package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sshmate/internal/intent"
	"sshmate/internal/logging"
	"sshmate/internal/models"
	"sshmate/internal/sshexec"
)

// SessionEventPublisher broadcasts session events to other server instances.
// Satisfied by PubSubService; nil when Redis is not configured.
type SessionEventPublisher interface {
	PublishToSession(ctx context.Context, sessionID string, msgType string, payload map[string]interface{}) error
}

// AgentService orchestrates the chat flow: it resolves free-text input to an
// intent, runs the intent's command sequence on the session's machine and
// records everything in the transcript and durable history.
//
// Machine selection and command processing are serialized per session, so at
// most one of either is in flight for a given session at any time.
type AgentService struct {
	sessions   *SessionService
	machines   *MachineService
	history    *HistoryService
	executor   sshexec.Executor
	classifier *intent.Classifier
	pubsub     SessionEventPublisher

	commandTimeout time.Duration
	sessionLocks   sync.Map // sessionID -> *sync.Mutex
}

// NewAgentService creates the orchestrator over its collaborators.
func NewAgentService(
	sessions *SessionService,
	machines *MachineService,
	history *HistoryService,
	executor sshexec.Executor,
	classifier *intent.Classifier,
	commandTimeout time.Duration,
) *AgentService {
	return &AgentService{
		sessions:       sessions,
		machines:       machines,
		history:        history,
		executor:       executor,
		classifier:     classifier,
		commandTimeout: commandTimeout,
	}
}

// SetPubSub wires the optional cross-instance event publisher.
func (s *AgentService) SetPubSub(pubsub SessionEventPublisher) {
	s.pubsub = pubsub
}

// lockSession acquires the session's serialization lock and returns the
// release function.
func (s *AgentService) lockSession(sessionID string) func() {
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateSession starts a new conversation session.
func (s *AgentService) CreateSession(ctx context.Context) (*models.Session, error) {
	session := s.sessions.Create()

	if s.history != nil {
		if err := s.history.RecordSession(ctx, session); err != nil {
			log.Printf("⚠️ Failed to persist session %s: %v", session.ID, err)
		}
	}
	return session, nil
}

// SelectMachine binds a machine to the session after verifying it exists and
// is reachable. Each call, including re-selection of the same machine,
// appends one system entry to the transcript.
func (s *AgentService) SelectMachine(ctx context.Context, sessionID, machineID string) (*models.MachineSummary, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	machine, err := s.machines.Get(ctx, machineID)
	if err != nil {
		return nil, err
	}

	if s.executor != nil && !s.executor.Probe(machine) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrConnectionFailed, machine.Name, machine.Host)
	}

	if err := s.sessions.SetMachine(sessionID, machineID); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("已連接到機器: %s (%s)", machine.Name, machine.Host)
	s.appendEntry(ctx, sessionID, models.RoleSystem, note, map[string]interface{}{
		"machine_id": machineID,
	})

	if s.history != nil {
		if err := s.history.TouchSession(ctx, session); err != nil {
			log.Printf("⚠️ Failed to persist machine selection for %s: %v", sessionID, err)
		}
	}

	s.publishEvent(ctx, sessionID, "machine_selected", map[string]interface{}{
		"message":    note,
		"machine_id": machineID,
	})

	summary := machine.Summary()
	log.Printf("✅ Session %s selected machine %s", sessionID, machineID)
	return &summary, nil
}

// ProcessCommand resolves the user's text to an intent and acts on it.
// A low-confidence resolution returns a clarification instead of executing;
// that is a normal result, not an error.
func (s *AgentService) ProcessCommand(ctx context.Context, sessionID, text string) (*models.ProcessResult, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if session.SelectedMachine == "" {
		return nil, ErrNoMachineSelected
	}

	machine, err := s.machines.Get(ctx, session.SelectedMachine)
	if err != nil {
		return nil, err
	}

	s.appendEntry(ctx, sessionID, models.RoleUser, text, nil)

	classifyStart := time.Now()
	resolved := s.classifier.Classify(text)
	if m := GetMetrics(); m != nil {
		m.RecordClassifyLatency(time.Since(classifyStart).Seconds())
		m.RecordIntentResolution(resolved.Action)
	}

	if resolved.IsUnknown() || resolved.Confidence < intent.ActThreshold {
		clarification := &models.Clarification{
			Message:          "I don't understand that command.",
			Suggestions:      s.classifier.Suggest(text),
			AvailableIntents: s.classifier.Catalog().Intents(),
		}
		s.appendEntry(ctx, sessionID, models.RoleAssistant, clarification.Message, map[string]interface{}{
			"intent":     resolved.Action,
			"confidence": resolved.Confidence,
		})
		s.publishEvent(ctx, sessionID, "ai_response", map[string]interface{}{
			"message": clarification.Message,
		})
		return &models.ProcessResult{
			Intent:        resolved,
			Clarification: clarification,
		}, nil
	}

	results := s.executeIntent(ctx, sessionID, machine, resolved)
	summary := GenerateSummary(resolved, results)

	s.appendEntry(ctx, sessionID, models.RoleAssistant, summary, map[string]interface{}{
		"intent":     resolved.Action,
		"confidence": resolved.Confidence,
		"commands":   len(results),
	})

	if s.history != nil {
		if err := s.history.TouchSession(ctx, session); err != nil {
			log.Printf("⚠️ Failed to refresh session %s: %v", sessionID, err)
		}
	}

	s.publishEvent(ctx, sessionID, "ai_response", map[string]interface{}{
		"message": summary,
		"intent":  resolved.Action,
	})

	return &models.ProcessResult{
		Intent:  resolved,
		Results: results,
		Summary: summary,
	}, nil
}

// executeIntent runs the intent's commands in order. A transport failure is
// recorded as an outcome with a sentinel exit code and execution continues.
// When the intent declares a marker command and that command fails, the rest
// of the sequence is skipped with a synthetic outcome explaining why.
func (s *AgentService) executeIntent(ctx context.Context, sessionID string, machine *models.MachineConfig, resolved models.ResolvedIntent) []models.CommandOutcome {
	cmdIntent := resolved.Commands
	results := make([]models.CommandOutcome, 0, len(cmdIntent.Commands))
	lg := logging.WithSession(sessionID, machine.ID)

	for i, command := range cmdIntent.Commands {
		clg := logging.WithCommand(lg, command, i)
		outcome, err := s.executor.Run(ctx, machine, command, s.commandTimeout)
		if err != nil {
			clg.Warn("command transport failure", "error", err)
			outcome = models.CommandOutcome{
				Command:   command,
				Stderr:    err.Error(),
				ExitCode:  models.ExitTransportFailure,
				Timestamp: time.Now(),
			}
			results = append(results, outcome)
			s.recordOutcome(ctx, sessionID, machine.ID, resolved.Action, "transport_error", outcome)
			continue
		}

		results = append(results, outcome)
		result := "success"
		if !outcome.Success() {
			result = "failure"
		}
		clg.Debug("command finished", "exit_code", outcome.ExitCode, "duration_seconds", outcome.Duration)
		s.recordOutcome(ctx, sessionID, machine.ID, resolved.Action, result, outcome)

		if cmdIntent.MarkerCommand != "" && command == cmdIntent.MarkerCommand && outcome.ExitCode != 0 {
			skipped := models.CommandOutcome{
				Command:   fmt.Sprintf("%s skipped", cmdIntent.Description),
				Stdout:    fmt.Sprintf("Prerequisite check %q failed. Remaining commands were not run.", cmdIntent.MarkerCommand),
				ExitCode:  0,
				Timestamp: time.Now(),
			}
			results = append(results, skipped)
			s.recordOutcome(ctx, sessionID, machine.ID, resolved.Action, "skipped", skipped)
			break
		}
	}

	return results
}

func (s *AgentService) publishEvent(ctx context.Context, sessionID, msgType string, payload map[string]interface{}) {
	if s.pubsub == nil {
		return
	}
	if err := s.pubsub.PublishToSession(ctx, sessionID, msgType, payload); err != nil {
		log.Printf("⚠️ Failed to publish %s event for %s: %v", msgType, sessionID, err)
	}
}

func (s *AgentService) recordOutcome(ctx context.Context, sessionID, machineID, action, result string, outcome models.CommandOutcome) {
	if m := GetMetrics(); m != nil {
		m.RecordCommand(action, result, outcome.Duration)
	}
	if s.history != nil {
		if err := s.history.RecordExecution(ctx, sessionID, machineID, outcome); err != nil {
			log.Printf("⚠️ Failed to persist execution for %s: %v", sessionID, err)
		}
	}
}

func (s *AgentService) appendEntry(ctx context.Context, sessionID, role, content string, metadata map[string]interface{}) {
	if err := s.sessions.Append(sessionID, role, content, metadata); err != nil {
		log.Printf("⚠️ Failed to append transcript entry for %s: %v", sessionID, err)
		return
	}
	if s.history != nil {
		entry := models.TranscriptEntry{
			Timestamp: time.Now(),
			Role:      role,
			Content:   content,
			Metadata:  metadata,
		}
		if err := s.history.RecordMessage(ctx, sessionID, entry); err != nil {
			log.Printf("⚠️ Failed to persist transcript entry for %s: %v", sessionID, err)
		}
	}
}
