package intent

import (
	"strings"
	"testing"

	"sshmate/internal/models"
)

func TestClassify_CheckOSVersionEnglish(t *testing.T) {
	cl := NewClassifier(NewBuiltinCatalog())

	intent := cl.Classify("check os version")

	if intent.Action != "check_os_version" {
		t.Fatalf("Expected action check_os_version, got %q", intent.Action)
	}
	if intent.Confidence < 0.8 {
		t.Errorf("Expected confidence >= 0.8, got %f", intent.Confidence)
	}
	if intent.Commands == nil {
		t.Fatal("Expected command parameters for a recognized intent")
	}

	found := false
	for _, cmd := range intent.Commands.Commands {
		if cmd == "uname -a" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected commands to contain 'uname -a', got %v", intent.Commands.Commands)
	}
}

func TestClassify_CheckOSVersionChinese(t *testing.T) {
	cl := NewClassifier(NewBuiltinCatalog())

	intent := cl.Classify("幫我查看這台作業系統版本")

	if intent.Action != "check_os_version" {
		t.Fatalf("Expected action check_os_version, got %q", intent.Action)
	}
	if intent.Confidence <= 0.5 {
		t.Errorf("Expected confidence > 0.5, got %f", intent.Confidence)
	}
}

func TestClassify_InstallCUDA(t *testing.T) {
	cl := NewClassifier(NewBuiltinCatalog())

	intent := cl.Classify("幫我安裝CUDA")

	if intent.Action != "install_cuda" {
		t.Fatalf("Expected action install_cuda, got %q", intent.Action)
	}
	if intent.Commands == nil {
		t.Fatal("Expected command parameters")
	}
	if intent.Commands.MarkerCommand != "nvidia-smi" {
		t.Errorf("Expected marker command nvidia-smi, got %q", intent.Commands.MarkerCommand)
	}

	hasCuda := false
	for _, cmd := range intent.Commands.Commands {
		if strings.Contains(strings.ToLower(cmd), "cuda") {
			hasCuda = true
		}
	}
	if !hasCuda {
		t.Errorf("Expected a cuda command in %v", intent.Commands.Commands)
	}
}

func TestClassify_CheckDevicesChinese(t *testing.T) {
	cl := NewClassifier(NewBuiltinCatalog())

	intent := cl.Classify("幫我檢查當前裝置有哪些設備")

	if intent.Action != "check_devices" {
		t.Fatalf("Expected action check_devices, got %q", intent.Action)
	}

	found := false
	for _, cmd := range intent.Commands.Commands {
		if cmd == "lspci" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected commands to contain lspci, got %v", intent.Commands.Commands)
	}
}

func TestClassify_UnknownInput(t *testing.T) {
	cl := NewClassifier(NewBuiltinCatalog())

	for _, input := range []string{"asdkjasdlkj", "do something completely random", ""} {
		intent := cl.Classify(input)

		if intent.Action != models.ActionUnknown {
			t.Errorf("Classify(%q): expected unknown action, got %q", input, intent.Action)
		}
		if intent.Confidence != 0.0 {
			t.Errorf("Classify(%q): expected confidence 0.0, got %f", input, intent.Confidence)
		}
		if intent.Commands != nil {
			t.Errorf("Classify(%q): unknown intent must not carry commands", input)
		}
		if intent.Unknown == nil {
			t.Errorf("Classify(%q): unknown intent must carry the original text", input)
		}
	}
}

func TestClassify_ConfidenceBounds(t *testing.T) {
	cl := NewClassifier(NewBuiltinCatalog())

	inputs := []string{
		"check os version",
		"check os version check os version check os version",
		"asdkjasdlkj",
		"could you please go ahead and check the os version on this machine for me right now thanks a lot",
		"檢查系統 檢查系統",
	}

	for _, input := range inputs {
		intent := cl.Classify(input)
		if intent.Confidence < 0.0 || intent.Confidence > 1.0 {
			t.Errorf("Classify(%q): confidence %f out of [0,1]", input, intent.Confidence)
		}
	}
}

func TestClassify_LongInputLosesConciseBonus(t *testing.T) {
	cl := NewClassifier(NewBuiltinCatalog())

	// 11 tokens: one pattern match scores exactly 0.8, no bonus.
	long := "please would you kindly go and check the os version now"
	intent := cl.Classify(long)

	if intent.Action != "check_os_version" {
		t.Fatalf("Expected action check_os_version, got %q", intent.Action)
	}
	if intent.Confidence != 0.8 {
		t.Errorf("Expected confidence 0.8 without concise bonus, got %f", intent.Confidence)
	}
}

func TestClassify_TieKeepsFirstRegistered(t *testing.T) {
	catalog := NewCatalog()
	if err := catalog.Register(models.IntentRule{
		Intent:      "first",
		Patterns:    []string{`ambiguous request`},
		Commands:    []string{"echo first"},
		Description: "first rule",
	}); err != nil {
		t.Fatal(err)
	}
	if err := catalog.Register(models.IntentRule{
		Intent:      "second",
		Patterns:    []string{`ambiguous request`},
		Commands:    []string{"echo second"},
		Description: "second rule",
	}); err != nil {
		t.Fatal(err)
	}

	intent := NewClassifier(catalog).Classify("ambiguous request")
	if intent.Action != "first" {
		t.Errorf("Expected first-registered rule to win the tie, got %q", intent.Action)
	}
}

func TestClassify_CustomRule(t *testing.T) {
	catalog := NewBuiltinCatalog()
	if err := catalog.Register(models.IntentRule{
		Intent:      "test_intent",
		Patterns:    []string{`test pattern`},
		Commands:    []string{"echo test"},
		Description: "Test command",
	}); err != nil {
		t.Fatal(err)
	}

	intent := NewClassifier(catalog).Classify("test pattern")
	if intent.Action != "test_intent" {
		t.Fatalf("Expected test_intent, got %q", intent.Action)
	}
	if intent.Confidence <= 0.5 {
		t.Errorf("Expected confidence > 0.5, got %f", intent.Confidence)
	}
}

func TestSuggest_TriggerWords(t *testing.T) {
	cl := NewClassifier(NewBuiltinCatalog())

	suggestions := cl.Suggest("檢查")
	if len(suggestions) == 0 {
		t.Fatal("Expected suggestions for a trigger word")
	}
	if len(suggestions) > 5 {
		t.Errorf("Expected at most 5 suggestions, got %d", len(suggestions))
	}

	if got := cl.Suggest("zzz nothing relevant"); len(got) != 0 {
		t.Errorf("Expected no suggestions without a trigger word, got %v", got)
	}
}
