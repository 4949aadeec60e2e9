package sshexec

import (
	"context"
	"testing"
	"time"

	"sshmate/internal/models"
)

func TestAuthMethods_NoCredentials(t *testing.T) {
	e := NewSSHExecutor(time.Second, time.Second, 5)

	_, err := e.authMethods(&models.MachineConfig{ID: "m1", Username: "root"})
	if err == nil {
		t.Error("Expected error when neither password nor key is configured")
	}
}

func TestAuthMethods_Password(t *testing.T) {
	e := NewSSHExecutor(time.Second, time.Second, 5)

	methods, err := e.authMethods(&models.MachineConfig{ID: "m1", Username: "root", Password: "pw"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(methods) != 1 {
		t.Errorf("Expected one auth method, got %d", len(methods))
	}
}

func TestAuthMethods_MissingKeyFile(t *testing.T) {
	e := NewSSHExecutor(time.Second, time.Second, 5)

	_, err := e.authMethods(&models.MachineConfig{ID: "m1", Username: "root", PrivateKeyPath: "/nonexistent/key"})
	if err == nil {
		t.Error("Expected error for unreadable private key")
	}
}

func TestMachineRateLimiter_AllowsBurst(t *testing.T) {
	rl := NewMachineRateLimiter(100)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 10; i++ {
		if err := rl.Wait(ctx, "m1"); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
}

func TestMachineRateLimiter_CancelledContext(t *testing.T) {
	rl := NewMachineRateLimiter(0.001)

	// Drain the single burst token, then a cancelled context must fail fast.
	ctx := context.Background()
	if err := rl.Wait(ctx, "m1"); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(cancelled, "m1"); err == nil {
		t.Error("Expected error from cancelled context")
	}
}
