package models

import "time"

// MachineConfig describes an SSH-reachable machine registered with the assistant.
type MachineConfig struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Host           string    `json:"host"`
	Port           int       `json:"port"`
	Username       string    `json:"username"`
	Password       string    `json:"-"` // plaintext only in memory; encrypted at rest
	PrivateKeyPath string    `json:"private_key_path,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MachineCreate is the request body for registering a new machine.
type MachineCreate struct {
	Name           string `json:"name"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Username       string `json:"username"`
	Password       string `json:"password,omitempty"`
	PrivateKeyPath string `json:"private_key_path,omitempty"`
	Description    string `json:"description,omitempty"`
}

// MachineUpdate carries partial updates for an existing machine.
// Nil fields are left unchanged.
type MachineUpdate struct {
	Name           *string `json:"name,omitempty"`
	Host           *string `json:"host,omitempty"`
	Port           *int    `json:"port,omitempty"`
	Username       *string `json:"username,omitempty"`
	Password       *string `json:"password,omitempty"`
	PrivateKeyPath *string `json:"private_key_path,omitempty"`
	Description    *string `json:"description,omitempty"`
}

// MachineSummary is the public view of a machine (no credentials).
type MachineSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary returns the credential-free view of the machine.
func (m *MachineConfig) Summary() MachineSummary {
	return MachineSummary{
		ID:          m.ID,
		Name:        m.Name,
		Host:        m.Host,
		Port:        m.Port,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
