package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sshmate/internal/database"
	"sshmate/internal/models"
)

// HistoryService writes conversation history and command executions to the
// database. The in-memory session store stays authoritative for live
// sessions; this trail survives restarts.
type HistoryService struct {
	db *database.DB
}

// NewHistoryService creates a new history service
func NewHistoryService(db *database.DB) *HistoryService {
	return &HistoryService{db: db}
}

// RecordSession inserts a session row when a conversation starts.
func (s *HistoryService) RecordSession(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_sessions (id, machine_id, created_at, last_activity, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.SelectedMachine, session.CreatedAt, session.LastActivity, true,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// TouchSession updates the session's machine binding and activity time.
func (s *HistoryService) TouchSession(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversation_sessions SET machine_id = ?, last_activity = ? WHERE id = ?`,
		session.SelectedMachine, time.Now(), session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// RecordMessage appends one transcript entry to durable storage.
func (s *HistoryService) RecordMessage(ctx context.Context, sessionID string, entry models.TranscriptEntry) error {
	var metadata interface{}
	if entry.Metadata != nil {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to serialize message metadata: %w", err)
		}
		metadata = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (session_id, role, content, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, entry.Role, entry.Content, metadata, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}
	return nil
}

// RecordExecution appends one command outcome to durable storage.
func (s *HistoryService) RecordExecution(ctx context.Context, sessionID, machineID string, outcome models.CommandOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_executions (session_id, machine_id, command, stdout, stderr, exit_code, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, machineID, outcome.Command, outcome.Stdout, outcome.Stderr,
		outcome.ExitCode, int64(outcome.Duration*1000), outcome.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// SessionMessages loads the durable transcript for a session in append order.
func (s *HistoryService) SessionMessages(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, metadata, timestamp
		FROM conversation_messages WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	entries := []models.TranscriptEntry{}
	for rows.Next() {
		var entry models.TranscriptEntry
		var metadata *string
		if err := rows.Scan(&entry.Role, &entry.Content, &metadata, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
		if metadata != nil && *metadata != "" {
			if err := json.Unmarshal([]byte(*metadata), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse message metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SessionExecutions loads the command outcomes recorded for a session.
func (s *HistoryService) SessionExecutions(ctx context.Context, sessionID string) ([]models.CommandOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT command, stdout, stderr, exit_code, duration_ms, timestamp
		FROM command_executions WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load executions: %w", err)
	}
	defer rows.Close()

	outcomes := []models.CommandOutcome{}
	for rows.Next() {
		var outcome models.CommandOutcome
		var durationMs int64
		if err := rows.Scan(&outcome.Command, &outcome.Stdout, &outcome.Stderr,
			&outcome.ExitCode, &durationMs, &outcome.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to read execution: %w", err)
		}
		outcome.Duration = float64(durationMs) / 1000
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}
