package database

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	return db
}

func TestNew_SQLiteFile(t *testing.T) {
	db := newTestDB(t)

	if db.Driver() != "sqlite" {
		t.Errorf("Expected sqlite driver, got %q", db.Driver())
	}
}

func TestInitialize_CreatesTables(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"machines", "conversation_sessions", "conversation_messages", "command_executions"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %q to exist: %v", table, err)
		}
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("Second Initialize failed: %v", err)
	}
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("Expected parent directories to be created: %v", err)
	}
	db.Close()
}
