package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// EncryptionService handles encryption/decryption of machine credentials
type EncryptionService struct {
	masterKey []byte
}

// NewEncryptionService creates a new encryption service with the given master key
// masterKey should be a 32-byte hex-encoded string (64 characters)
func NewEncryptionService(masterKeyHex string) (*EncryptionService, error) {
	if masterKeyHex == "" {
		return nil, errors.New("encryption master key is required")
	}

	masterKey, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid master key format (must be hex): %w", err)
	}

	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes (64 hex characters), got %d bytes", len(masterKey))
	}

	return &EncryptionService{
		masterKey: masterKey,
	}, nil
}

// DeriveMachineKey derives a unique encryption key for a specific machine
// using HKDF (HMAC-based Key Derivation Function)
func (e *EncryptionService) DeriveMachineKey(machineID string) ([]byte, error) {
	if machineID == "" {
		return nil, errors.New("machine ID is required for key derivation")
	}

	hkdfReader := hkdf.New(sha256.New, e.masterKey, []byte(machineID), []byte("sshmate-machine-encryption"))

	machineKey := make([]byte, 32) // AES-256 requires 32-byte key
	if _, err := io.ReadFull(hkdfReader, machineKey); err != nil {
		return nil, fmt.Errorf("failed to derive machine key: %w", err)
	}

	return machineKey, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with a machine-specific key
// Returns base64-encoded ciphertext (nonce prepended)
func (e *EncryptionService) Encrypt(machineID string, plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", nil // Return empty string for empty input
	}

	machineKey, err := e.DeriveMachineKey(machineID)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(machineKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64-encoded ciphertext using AES-256-GCM
func (e *EncryptionService) Decrypt(machineID string, ciphertextB64 string) ([]byte, error) {
	if ciphertextB64 == "" {
		return nil, nil // Return nil for empty input
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	machineKey, err := e.DeriveMachineKey(machineID)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(machineKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// EncryptString is a convenience method for encrypting strings
func (e *EncryptionService) EncryptString(machineID string, plaintext string) (string, error) {
	return e.Encrypt(machineID, []byte(plaintext))
}

// DecryptString is a convenience method for decrypting to strings
func (e *EncryptionService) DecryptString(machineID string, ciphertext string) (string, error) {
	plaintext, err := e.Decrypt(machineID, ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GenerateMasterKey generates a new random 32-byte master key (for setup)
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
