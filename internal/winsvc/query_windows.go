//go:build windows

package winsvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
)

func stopArgs(name string) []string {
	return []string{"sc", "stop", name}
}

func startArgs(name string) []string {
	return []string{"sc", "start", name}
}

// Query combines `sc query` for run state with `sc qc` for the configured
// binary path. A service that sc does not know about yields Exists=false.
func (m *Manager) Query(ctx context.Context, name string) (*Status, error) {
	status := &Status{Name: name}

	queryOutput, err := m.run(ctx, []string{"sc", "query", name})
	if err != nil {
		if serviceMissing(queryOutput) {
			return status, nil
		}

		return nil, fmt.Errorf("query service %s: %w", name, err)
	}

	status.Exists = true
	status.Running = parseScRunning(queryOutput)

	configOutput, err := m.run(ctx, []string{"sc", "qc", name})
	if err != nil {
		return nil, fmt.Errorf("query service config %s: %w", name, err)
	}

	status.BinaryPath = parseScBinaryPath(configOutput)

	logger.DebugKV(ctx, "Queried service",
		"name", name, "running", status.Running, "binary", status.BinaryPath)

	return status, nil
}

// serviceMissing recognizes the sc error for an unregistered service.
func serviceMissing(output string) bool {
	return strings.Contains(output, "1060") ||
		strings.Contains(output, "does not exist")
}
