package winsvc

import "strings"

// parseScRunning reports whether an `sc query` output shows a running state.
func parseScRunning(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "STATE") {
			return strings.Contains(trimmed, "RUNNING")
		}
	}

	return false
}

// parseScBinaryPath extracts the configured executable from `sc qc` output.
// The invocation string may carry arguments and quoted path segments, so only
// the first token is the binary.
func parseScBinaryPath(output string) string {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "BINARY_PATH_NAME") {
			continue
		}

		_, value, found := strings.Cut(trimmed, ":")
		if !found {
			return ""
		}

		return FirstToken(strings.TrimSpace(value))
	}

	return ""
}

// parseSystemctlShow builds a Status from `systemctl show` key=value output.
func parseSystemctlShow(name, output string) *Status {
	status := &Status{Name: name}

	for _, line := range strings.Split(output, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}

		switch key {
		case "LoadState":
			status.Exists = value != "not-found" && value != ""
		case "ActiveState":
			status.Running = value == "active"
		case "ExecStart":
			status.BinaryPath = parseExecStartPath(value)
		}
	}

	return status
}

// parseExecStartPath pulls the executable out of a systemd ExecStart dump,
// e.g. "{ path=/opt/gitlab-runner/gitlab-runner ; argv[]=... }".
func parseExecStartPath(value string) string {
	if _, after, found := strings.Cut(value, "path="); found {
		end := strings.IndexAny(after, " ;")
		if end < 0 {
			return after
		}

		return after[:end]
	}

	return FirstToken(value)
}
