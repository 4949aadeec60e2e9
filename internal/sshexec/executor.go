package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"sshmate/internal/models"
)

// Executor runs commands on remote machines and reports their outcomes.
// Run must not fail for command-level errors (a non-zero exit code is a
// normal outcome); it fails only when the machine cannot be reached.
type Executor interface {
	Run(ctx context.Context, machine *models.MachineConfig, command string, timeout time.Duration) (models.CommandOutcome, error)
	Probe(machine *models.MachineConfig) bool
}

// SSHExecutor implements Executor over the SSH protocol.
type SSHExecutor struct {
	connectTimeout time.Duration
	commandTimeout time.Duration
	limiter        *MachineRateLimiter
	logger         *logrus.Logger
}

// NewSSHExecutor creates an SSH executor with the given timeouts and a
// per-machine command rate limit.
func NewSSHExecutor(connectTimeout, commandTimeout time.Duration, commandRate float64) *SSHExecutor {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &SSHExecutor{
		connectTimeout: connectTimeout,
		commandTimeout: commandTimeout,
		limiter:        NewMachineRateLimiter(commandRate),
		logger:         logger,
	}
}

func (e *SSHExecutor) authMethods(machine *models.MachineConfig) ([]ssh.AuthMethod, error) {
	if machine.PrivateKeyPath != "" {
		keyData, err := os.ReadFile(machine.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}

	if machine.Password != "" {
		return []ssh.AuthMethod{ssh.Password(machine.Password)}, nil
	}

	return nil, errors.New("no authentication method provided")
}

func (e *SSHExecutor) connect(machine *models.MachineConfig) (*ssh.Client, error) {
	auth, err := e.authMethods(machine)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            machine.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // machines are operator-registered
		Timeout:         e.connectTimeout,
	}

	addr := fmt.Sprintf("%s:%d", machine.Host, machine.Port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"machine": machine.ID,
			"addr":    addr,
		}).WithError(err).Error("SSH connection failed")
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return client, nil
}

// Run executes a command on the remote machine and returns its outcome.
// The returned error is non-nil only for transport failures; remote command
// failures are reported through the outcome's exit code.
func (e *SSHExecutor) Run(ctx context.Context, machine *models.MachineConfig, command string, timeout time.Duration) (models.CommandOutcome, error) {
	if timeout <= 0 {
		timeout = e.commandTimeout
	}

	if err := e.limiter.Wait(ctx, machine.ID); err != nil {
		return models.CommandOutcome{}, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	start := time.Now()

	client, err := e.connect(machine)
	if err != nil {
		return models.CommandOutcome{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return models.CommandOutcome{}, fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	e.logger.WithFields(logrus.Fields{
		"machine": machine.ID,
		"command": command,
	}).Info("Executing command")

	runErr := make(chan error, 1)
	go func() {
		runErr <- session.Run(command)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err = <-runErr:
	case <-timer.C:
		session.Close()
		err = fmt.Errorf("command timed out after %s", timeout)
	case <-ctx.Done():
		session.Close()
		err = ctx.Err()
	}

	duration := time.Since(start).Seconds()
	exitCode := 0
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitStatus()
		} else {
			// Channel-level failure (timeout, cancellation, missing exit status)
			return models.CommandOutcome{}, err
		}
	}

	outcome := models.CommandOutcome{
		Command:   command,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  exitCode,
		Duration:  duration,
		Timestamp: time.Now(),
	}

	e.logger.WithFields(logrus.Fields{
		"machine":   machine.ID,
		"exit_code": exitCode,
		"duration":  duration,
	}).Info("Command completed")

	return outcome, nil
}

// Probe verifies connectivity by running a trivial echo command.
func (e *SSHExecutor) Probe(machine *models.MachineConfig) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	outcome, err := e.Run(ctx, machine, `echo "connection_test"`, 10*time.Second)
	if err != nil {
		e.logger.WithField("machine", machine.ID).WithError(err).Warn("Connection probe failed")
		return false
	}
	return strings.TrimSpace(outcome.Stdout) == "connection_test"
}
