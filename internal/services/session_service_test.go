package services

import (
	"errors"
	"reflect"
	"testing"

	"sshmate/internal/models"
)

func TestSessionService_CreateAndGet(t *testing.T) {
	svc := NewSessionService()

	session := svc.Create()
	if session.ID == "" {
		t.Fatal("Expected non-empty session ID")
	}
	if len(session.Transcript) != 0 {
		t.Errorf("Expected empty transcript, got %d entries", len(session.Transcript))
	}

	got, err := svc.Get(session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("Expected session %s, got %s", session.ID, got.ID)
	}
}

func TestSessionService_GetUnknownID(t *testing.T) {
	svc := NewSessionService()

	if _, err := svc.Get("nope"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession, got %v", err)
	}
}

func TestSessionService_TranscriptAppendOnly(t *testing.T) {
	svc := NewSessionService()
	session := svc.Create()

	entries := []struct {
		role    string
		content string
	}{
		{models.RoleUser, "check os version"},
		{models.RoleAssistant, "done"},
		{models.RoleUser, "install cuda"},
	}
	for _, e := range entries {
		if err := svc.Append(session.ID, e.role, e.content, nil); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	first, err := svc.Transcript(session.ID)
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if len(first) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(first))
	}
	for i, e := range entries {
		if first[i].Role != e.role || first[i].Content != e.content {
			t.Errorf("Entry %d: got %s/%q, want %s/%q", i, first[i].Role, first[i].Content, e.role, e.content)
		}
	}

	// Repeated reads without intervening writes must be identical.
	second, err := svc.Transcript(session.ID)
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical transcript across repeated reads")
	}

	// The returned slice is a copy; mutating it must not affect the store.
	second[0].Content = "tampered"
	third, _ := svc.Transcript(session.ID)
	if third[0].Content != entries[0].content {
		t.Error("Transcript copy mutation leaked into the session store")
	}
}

func TestSessionService_GetReturnsSnapshot(t *testing.T) {
	svc := NewSessionService()
	session := svc.Create()
	if err := svc.Append(session.ID, models.RoleUser, "check os version", nil); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := svc.Get(session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Mutating the returned session must not affect the stored one.
	got.SelectedMachine = "tampered"
	got.Transcript = append(got.Transcript, models.TranscriptEntry{
		Role:    models.RoleSystem,
		Content: "injected",
	})

	again, err := svc.Get(session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again.SelectedMachine != "" {
		t.Errorf("Snapshot mutation leaked machine binding: %q", again.SelectedMachine)
	}
	if len(again.Transcript) != 1 {
		t.Errorf("Snapshot mutation leaked transcript entries: got %d, want 1", len(again.Transcript))
	}

	// Writes after Get must not show up in the earlier snapshot.
	if err := svc.Append(session.ID, models.RoleAssistant, "done", nil); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if len(again.Transcript) != 1 {
		t.Errorf("Later append mutated an existing snapshot: got %d entries", len(again.Transcript))
	}
}

func TestSessionService_SetMachine(t *testing.T) {
	svc := NewSessionService()
	session := svc.Create()

	if err := svc.SetMachine(session.ID, "m-1"); err != nil {
		t.Fatalf("SetMachine failed: %v", err)
	}
	got, _ := svc.Get(session.ID)
	if got.SelectedMachine != "m-1" {
		t.Errorf("Expected selected machine m-1, got %q", got.SelectedMachine)
	}

	// Re-selection overwrites.
	if err := svc.SetMachine(session.ID, "m-2"); err != nil {
		t.Fatalf("SetMachine failed: %v", err)
	}
	got, _ = svc.Get(session.ID)
	if got.SelectedMachine != "m-2" {
		t.Errorf("Expected selected machine m-2, got %q", got.SelectedMachine)
	}

	if err := svc.SetMachine("missing", "m-1"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession, got %v", err)
	}
}
