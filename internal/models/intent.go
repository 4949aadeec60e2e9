package models

// ActionUnknown is the sentinel action for input no rule matched with confidence.
const ActionUnknown = "unknown"

// IntentRule maps text patterns to a fixed ordered command sequence.
// Rules are immutable once registered; several rules may share an intent name.
type IntentRule struct {
	Intent      string   `json:"intent" yaml:"intent"`
	Patterns    []string `json:"patterns" yaml:"patterns"` // case-insensitive regexes
	Commands    []string `json:"commands" yaml:"commands"`
	Description string   `json:"description" yaml:"description"`

	// MarkerCommand, when set, names a command in the sequence whose failure
	// truncates all remaining commands for that invocation.
	MarkerCommand string `json:"marker_command,omitempty" yaml:"marker_command,omitempty"`
}

// CommandIntent is the parameter payload of a recognized intent.
type CommandIntent struct {
	Commands      []string `json:"commands"`
	Description   string   `json:"description"`
	MarkerCommand string   `json:"marker_command,omitempty"`
}

// UnknownIntent is the parameter payload when classification failed.
type UnknownIntent struct {
	OriginalText string `json:"original_text"`
}

// ResolvedIntent is the classifier output for one input.
// Exactly one of Commands or Unknown is non-nil, keyed by Action.
type ResolvedIntent struct {
	Action       string         `json:"action"`
	Commands     *CommandIntent `json:"commands,omitempty"`
	Unknown      *UnknownIntent `json:"unknown,omitempty"`
	Confidence   float64        `json:"confidence"`
	OriginalText string         `json:"original_text"`
}

// IsUnknown reports whether classification fell through to the unknown sentinel.
func (r ResolvedIntent) IsUnknown() bool {
	return r.Action == ActionUnknown
}
