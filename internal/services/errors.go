package services

import "errors"

// Sentinel errors shared across the service layer. Handlers map these to
// HTTP status codes and WebSocket error payloads.
var (
	ErrMachineNotFound   = errors.New("machine not found")
	ErrInvalidSession    = errors.New("session not found")
	ErrNoMachineSelected = errors.New("no machine selected for this session")
	ErrConnectionFailed  = errors.New("unable to connect to machine")
)
