package winsvc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Status describes a named OS service at query time.
type Status struct {
	// Name is the service identifier.
	Name string
	// Exists is true when the service is registered with the OS.
	Exists bool
	// Running is true when the service is active.
	Running bool
	// BinaryPath is the executable the service invocation points at,
	// extracted as the first token of the invocation string.
	BinaryPath string
}

// Controller manipulates a named OS service.
type Controller interface {
	Query(ctx context.Context, name string) (*Status, error)
	Stop(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
}

// Manager controls services through the platform service tool
// (sc.exe on Windows, systemctl elsewhere).
type Manager struct{}

var _ Controller = (*Manager)(nil)

// execCommand is abstracted for testing.
//
//nolint:gochecknoglobals // Seam for tests, mirrors exec.CommandContext.
var execCommand = exec.CommandContext

var errServiceCommand = errors.New("service command failed")

// NewManager returns the exec-backed service controller.
func NewManager() *Manager {
	return &Manager{}
}

// Stop halts the service and returns an error when the tool reports failure.
func (m *Manager) Stop(ctx context.Context, name string) error {
	if _, err := m.run(ctx, stopArgs(name)); err != nil {
		return fmt.Errorf("stop service %s: %w", name, err)
	}

	return nil
}

// Start launches the registered service.
func (m *Manager) Start(ctx context.Context, name string) error {
	if _, err := m.run(ctx, startArgs(name)); err != nil {
		return fmt.Errorf("start service %s: %w", name, err)
	}

	return nil
}

// run executes a service tool invocation and returns its combined output.
func (m *Manager) run(ctx context.Context, argv []string) (string, error) {
	cmd := execCommand(ctx, argv[0], argv[1:]...)

	output, err := cmd.CombinedOutput()
	text := string(output)

	if err != nil {
		return text, fmt.Errorf("%w: %s: %s", errServiceCommand, strings.Join(argv, " "), strings.TrimSpace(text))
	}

	return text, nil
}
