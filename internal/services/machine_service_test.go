package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"sshmate/internal/crypto"
	"sshmate/internal/database"
	"sshmate/internal/models"
)

func newMachineFixture(t *testing.T) (*MachineService, *database.DB, *fakeExecutor) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "machines.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	key, err := crypto.GenerateMasterKey()
	if err != nil {
		t.Fatalf("Failed to generate master key: %v", err)
	}
	encryption, err := crypto.NewEncryptionService(key)
	if err != nil {
		t.Fatalf("Failed to create encryption service: %v", err)
	}

	exec := &fakeExecutor{probeOK: true}
	return NewMachineService(db, encryption, exec), db, exec
}

func TestMachineService_CreateAndGet(t *testing.T) {
	svc, db, _ := newMachineFixture(t)
	ctx := context.Background()

	machine, err := svc.Create(ctx, &models.MachineCreate{
		Name:     "gpu-1",
		Host:     "10.0.0.9",
		Username: "ops",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if machine.Port != 22 {
		t.Errorf("Expected default port 22, got %d", machine.Port)
	}

	// Password must be encrypted at rest.
	var stored string
	if err := db.QueryRow(`SELECT password FROM machines WHERE id = ?`, machine.ID).Scan(&stored); err != nil {
		t.Fatalf("Failed to read stored password: %v", err)
	}
	if stored == "s3cret" || stored == "" {
		t.Error("Expected encrypted password in storage")
	}

	got, err := svc.Get(ctx, machine.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Password != "s3cret" {
		t.Errorf("Expected decrypted password, got %q", got.Password)
	}
}

func TestMachineService_CreateRejectsUnreachable(t *testing.T) {
	svc, _, exec := newMachineFixture(t)
	exec.probeOK = false

	_, err := svc.Create(context.Background(), &models.MachineCreate{
		Name:     "dead-box",
		Host:     "10.0.0.250",
		Username: "ops",
		Password: "pw",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Expected ErrConnectionFailed, got %v", err)
	}
}

func TestMachineService_GetUnknownID(t *testing.T) {
	svc, _, _ := newMachineFixture(t)

	if _, err := svc.Get(context.Background(), "m-404"); !errors.Is(err, ErrMachineNotFound) {
		t.Errorf("Expected ErrMachineNotFound, got %v", err)
	}
}

func TestMachineService_ListAndSearch(t *testing.T) {
	svc, _, _ := newMachineFixture(t)
	ctx := context.Background()

	for _, m := range []models.MachineCreate{
		{Name: "gpu-train", Host: "10.0.0.1", Username: "ops", Password: "pw", Description: "training rig"},
		{Name: "web-1", Host: "10.0.0.2", Username: "ops", Password: "pw", Description: "frontend"},
	} {
		if _, err := svc.Create(ctx, &m); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 machines, got %d", len(all))
	}

	hits, err := svc.Search(ctx, "train")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "gpu-train" {
		t.Errorf("Expected gpu-train only, got %+v", hits)
	}
}

func TestMachineService_Update(t *testing.T) {
	svc, _, _ := newMachineFixture(t)
	ctx := context.Background()

	machine, err := svc.Create(ctx, &models.MachineCreate{
		Name: "box", Host: "10.0.0.3", Username: "ops", Password: "old",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newName := "box-renamed"
	newPassword := "new"
	updated, err := svc.Update(ctx, machine.ID, &models.MachineUpdate{
		Name:     &newName,
		Password: &newPassword,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != newName {
		t.Errorf("Expected name %q, got %q", newName, updated.Name)
	}

	got, _ := svc.Get(ctx, machine.ID)
	if got.Password != newPassword {
		t.Errorf("Expected new password after update, got %q", got.Password)
	}
	if got.Host != "10.0.0.3" {
		t.Errorf("Unset fields must stay unchanged, host became %q", got.Host)
	}
}

func TestMachineService_Delete(t *testing.T) {
	svc, _, _ := newMachineFixture(t)
	ctx := context.Background()

	machine, err := svc.Create(ctx, &models.MachineCreate{
		Name: "box", Host: "10.0.0.4", Username: "ops", Password: "pw",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, machine.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, machine.ID); !errors.Is(err, ErrMachineNotFound) {
		t.Errorf("Expected ErrMachineNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, machine.ID); !errors.Is(err, ErrMachineNotFound) {
		t.Errorf("Expected ErrMachineNotFound on double delete, got %v", err)
	}
}
