package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"sshmate/internal/crypto"
	"sshmate/internal/database"
	"sshmate/internal/models"
	"sshmate/internal/sshexec"
)

// MachineService manages the machine inventory. SSH passwords are stored
// encrypted with a per-machine key and never leave this service in cleartext
// except toward the executor.
type MachineService struct {
	db         *database.DB
	encryption *crypto.EncryptionService
	executor   sshexec.Executor
}

// NewMachineService creates a new machine service
func NewMachineService(db *database.DB, encryption *crypto.EncryptionService, executor sshexec.Executor) *MachineService {
	return &MachineService{
		db:         db,
		encryption: encryption,
		executor:   executor,
	}
}

// Create registers a machine after verifying SSH connectivity.
func (s *MachineService) Create(ctx context.Context, req *models.MachineCreate) (*models.MachineConfig, error) {
	machine := &models.MachineConfig{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Host:           req.Host,
		Port:           req.Port,
		Username:       req.Username,
		Password:       req.Password,
		PrivateKeyPath: req.PrivateKeyPath,
		Description:    req.Description,
	}
	machine.CreatedAt = time.Now()
	machine.UpdatedAt = machine.CreatedAt
	if machine.Port == 0 {
		machine.Port = 22
	}

	if s.executor != nil && !s.executor.Probe(machine) {
		return nil, fmt.Errorf("%w: %s@%s:%d", ErrConnectionFailed, machine.Username, machine.Host, machine.Port)
	}

	encryptedPassword, err := s.encryption.EncryptString(machine.ID, machine.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO machines (id, name, host, port, username, password, private_key_path, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		machine.ID, machine.Name, machine.Host, machine.Port, machine.Username,
		encryptedPassword, machine.PrivateKeyPath, machine.Description, machine.CreatedAt, machine.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store machine: %w", err)
	}

	log.Printf("✅ Machine registered: %s (%s@%s:%d)", machine.Name, machine.Username, machine.Host, machine.Port)
	return machine, nil
}

// Get retrieves a machine with its password decrypted.
func (s *MachineService) Get(ctx context.Context, machineID string) (*models.MachineConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, host, port, username, password, private_key_path, description, created_at, updated_at
		FROM machines WHERE id = ?`, machineID)

	machine, err := s.scanMachine(row)
	if err != nil {
		return nil, err
	}
	return machine, nil
}

// List returns summaries of all registered machines, newest first.
func (s *MachineService) List(ctx context.Context) ([]models.MachineSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, host, port, username, password, private_key_path, description, created_at, updated_at
		FROM machines ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	return s.collectSummaries(rows)
}

// Search returns machines whose name, host or description matches the query.
func (s *MachineService) Search(ctx context.Context, query string) ([]models.MachineSummary, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, host, port, username, password, private_key_path, description, created_at, updated_at
		FROM machines
		WHERE name LIKE ? OR host LIKE ? OR description LIKE ?
		ORDER BY created_at DESC`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search machines: %w", err)
	}
	defer rows.Close()

	return s.collectSummaries(rows)
}

// Update applies partial changes to a machine. A password change is
// re-encrypted; other credential fields are stored as-is.
func (s *MachineService) Update(ctx context.Context, machineID string, req *models.MachineUpdate) (*models.MachineConfig, error) {
	machine, err := s.Get(ctx, machineID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		machine.Name = *req.Name
	}
	if req.Host != nil {
		machine.Host = *req.Host
	}
	if req.Port != nil {
		machine.Port = *req.Port
	}
	if req.Username != nil {
		machine.Username = *req.Username
	}
	if req.Password != nil {
		machine.Password = *req.Password
	}
	if req.PrivateKeyPath != nil {
		machine.PrivateKeyPath = *req.PrivateKeyPath
	}
	if req.Description != nil {
		machine.Description = *req.Description
	}

	encryptedPassword, err := s.encryption.EncryptString(machine.ID, machine.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	machine.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx, `
		UPDATE machines
		SET name = ?, host = ?, port = ?, username = ?, password = ?, private_key_path = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		machine.Name, machine.Host, machine.Port, machine.Username,
		encryptedPassword, machine.PrivateKeyPath, machine.Description, machine.UpdatedAt, machine.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update machine: %w", err)
	}

	log.Printf("🔄 Machine updated: %s", machine.ID)
	return machine, nil
}

// Delete removes a machine from the inventory.
func (s *MachineService) Delete(ctx context.Context, machineID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM machines WHERE id = ?`, machineID)
	if err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrMachineNotFound
	}

	log.Printf("❌ Machine deleted: %s", machineID)
	return nil
}

// Probe checks SSH connectivity for a registered machine.
func (s *MachineService) Probe(ctx context.Context, machineID string) (bool, error) {
	machine, err := s.Get(ctx, machineID)
	if err != nil {
		return false, err
	}
	if s.executor == nil {
		return false, fmt.Errorf("no executor configured")
	}
	return s.executor.Probe(machine), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *MachineService) scanMachine(row rowScanner) (*models.MachineConfig, error) {
	var machine models.MachineConfig
	var encryptedPassword string

	err := row.Scan(
		&machine.ID, &machine.Name, &machine.Host, &machine.Port, &machine.Username,
		&encryptedPassword, &machine.PrivateKeyPath, &machine.Description, &machine.CreatedAt, &machine.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMachineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read machine: %w", err)
	}

	password, err := s.encryption.DecryptString(machine.ID, encryptedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt password for machine %s: %w", machine.ID, err)
	}
	machine.Password = password

	return &machine, nil
}

func (s *MachineService) collectSummaries(rows *sql.Rows) ([]models.MachineSummary, error) {
	summaries := []models.MachineSummary{}
	for rows.Next() {
		machine, err := s.scanMachine(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, machine.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate machines: %w", err)
	}
	return summaries, nil
}
