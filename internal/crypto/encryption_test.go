package crypto

import "testing"

func newTestService(t *testing.T) *EncryptionService {
	t.Helper()

	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("Failed to generate master key: %v", err)
	}

	svc, err := NewEncryptionService(key)
	if err != nil {
		t.Fatalf("Failed to create encryption service: %v", err)
	}
	return svc
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	svc := newTestService(t)

	ciphertext, err := svc.EncryptString("machine-1", "s3cret-password")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if ciphertext == "s3cret-password" {
		t.Fatal("Ciphertext must not equal plaintext")
	}

	plaintext, err := svc.DecryptString("machine-1", ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if plaintext != "s3cret-password" {
		t.Errorf("Expected round-trip plaintext, got %q", plaintext)
	}
}

func TestDecrypt_WrongMachineKeyFails(t *testing.T) {
	svc := newTestService(t)

	ciphertext, err := svc.EncryptString("machine-1", "s3cret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := svc.DecryptString("machine-2", ciphertext); err == nil {
		t.Error("Expected decryption with another machine's key to fail")
	}
}

func TestEncrypt_EmptyInput(t *testing.T) {
	svc := newTestService(t)

	ciphertext, err := svc.EncryptString("machine-1", "")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if ciphertext != "" {
		t.Errorf("Expected empty ciphertext for empty input, got %q", ciphertext)
	}
}

func TestNewEncryptionService_RejectsBadKeys(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not hex", "zz"},
		{"too short", "deadbeef"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewEncryptionService(tc.key); err == nil {
				t.Errorf("Expected error for key %q", tc.key)
			}
		})
	}
}
