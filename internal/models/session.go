package models

import "time"

// Transcript entry roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TranscriptEntry is one exchange in a session's conversation log.
// Entries are append-only; insertion order defines conversational order.
type TranscriptEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session holds per-conversation state. Mutated only through the session
// service: machine selection, transcript appends and activity refresh.
type Session struct {
	ID              string            `json:"session_id"`
	SelectedMachine string            `json:"selected_machine,omitempty"`
	Transcript      []TranscriptEntry `json:"transcript"`
	CreatedAt       time.Time         `json:"created_at"`
	LastActivity    time.Time         `json:"last_activity"`
}

// Snapshot returns a copy that is safe to read and marshal while the live
// session keeps changing. The transcript slice is copied; entries themselves
// are immutable once appended.
func (s *Session) Snapshot() *Session {
	out := *s
	out.Transcript = make([]TranscriptEntry, len(s.Transcript))
	copy(out.Transcript, s.Transcript)
	return &out
}

// ProcessResult is the structured outcome of processing one chat command.
// Clarification is non-nil when confidence fell below the act threshold;
// in that case Results and Summary are empty.
type ProcessResult struct {
	Intent        ResolvedIntent   `json:"intent"`
	Results       []CommandOutcome `json:"results,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	Clarification *Clarification   `json:"clarification,omitempty"`
}

// Clarification asks the caller to re-prompt with suggestions.
type Clarification struct {
	Message          string            `json:"message"`
	Suggestions      []string          `json:"suggestions"`
	AvailableIntents map[string]string `json:"available_commands"`
}
