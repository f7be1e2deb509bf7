//go:build !windows

package winsvc

import (
	"context"
	"fmt"

	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
)

func stopArgs(name string) []string {
	return []string{"systemctl", "stop", name}
}

func startArgs(name string) []string {
	return []string{"systemctl", "start", name}
}

// Query reads service properties from systemd. `systemctl show` reports
// properties even for unknown units, with LoadState=not-found.
func (m *Manager) Query(ctx context.Context, name string) (*Status, error) {
	output, err := m.run(ctx, []string{
		"systemctl", "show", name, "--property=LoadState,ActiveState,ExecStart",
	})
	if err != nil {
		return nil, fmt.Errorf("query service %s: %w", name, err)
	}

	status := parseSystemctlShow(name, output)

	logger.DebugKV(ctx, "Queried service",
		"name", name, "exists", status.Exists, "running", status.Running, "binary", status.BinaryPath)

	return status, nil
}
