package intent

import (
	"os"
	"path/filepath"
	"testing"

	"sshmate/internal/models"
)

func TestCatalog_BuiltinIntents(t *testing.T) {
	intents := NewBuiltinCatalog().Intents()

	for _, name := range []string{"check_os_version", "install_cuda", "check_devices", "system_status", "network_info"} {
		if _, ok := intents[name]; !ok {
			t.Errorf("Expected builtin intent %q to be registered", name)
		}
	}
}

func TestCatalog_FirstDescriptionWins(t *testing.T) {
	c := NewCatalog()

	if err := c.Register(models.IntentRule{
		Intent:      "dup",
		Patterns:    []string{`one`},
		Commands:    []string{"echo one"},
		Description: "original description",
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.Register(models.IntentRule{
		Intent:      "dup",
		Patterns:    []string{`two`},
		Commands:    []string{"echo two"},
		Description: "later description",
	}); err != nil {
		t.Fatal(err)
	}

	if got := c.Intents()["dup"]; got != "original description" {
		t.Errorf("Expected first-registered description to win, got %q", got)
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 accumulated rules, got %d", c.Len())
	}

	// Both rules stay reachable for classification.
	cl := NewClassifier(c)
	if intent := cl.Classify("two"); intent.Action != "dup" {
		t.Errorf("Expected later rule to classify, got %q", intent.Action)
	}
}

func TestCatalog_RejectsInvalidRule(t *testing.T) {
	c := NewCatalog()

	if err := c.Register(models.IntentRule{Patterns: []string{`x`}}); err == nil {
		t.Error("Expected error for missing intent name")
	}
	if err := c.Register(models.IntentRule{Intent: "x"}); err == nil {
		t.Error("Expected error for missing patterns")
	}
	if err := c.Register(models.IntentRule{
		Intent:   "bad_regex",
		Patterns: []string{`([unclosed`},
		Commands: []string{"echo x"},
	}); err == nil {
		t.Error("Expected error for invalid regex pattern")
	}
}

func TestCatalog_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")

	content := `rules:
  - intent: reboot_machine
    patterns:
      - "reboot.*machine"
      - "重啟.*機器"
    commands:
      - "sudo reboot"
    description: "重新啟動機器"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewBuiltinCatalog()
	n, err := c.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 rule registered, got %d", n)
	}

	intent := NewClassifier(c).Classify("reboot the machine")
	if intent.Action != "reboot_machine" {
		t.Errorf("Expected reboot_machine, got %q", intent.Action)
	}
}

func TestCatalog_LoadFileMissing(t *testing.T) {
	c := NewCatalog()
	if _, err := c.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing rules file")
	}
}
