package models

import "time"

// ExitTransportFailure is the sentinel exit code recorded when the executor
// could not reach the machine at all (as opposed to a command failing remotely).
const ExitTransportFailure = -1

// CommandOutcome records the result of one executed command.
// Immutable after creation.
type CommandOutcome struct {
	Command   string    `json:"command"`
	Stdout    string    `json:"stdout"`
	Stderr    string    `json:"stderr"`
	ExitCode  int       `json:"exit_code"`
	Duration  float64   `json:"duration_seconds"`
	Timestamp time.Time `json:"timestamp"`
}

// Success reports whether the command exited cleanly.
func (c CommandOutcome) Success() bool {
	return c.ExitCode == 0
}
