package installer

import (
	"context"
	"errors"
	"os"
	"regexp"

	domain "github.com/phlcrny/Install-GitLabRunner/internal/domain/release"
	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
)

// versionLinePattern matches the self-report line of the runner executable,
// e.g. "Version:      17.2.0".
var versionLinePattern = regexp.MustCompile(`(?m)^Version:\s*(\S+)`)

// inspectInstalled determines the currently installed runner version by
// invoking the existing executable. A missing executable means a fresh
// install. An executable whose output cannot be parsed is a recoverable
// condition: the run proceeds with comparison unavailable.
func (r *runner) inspectInstalled(ctx context.Context) installedState {
	if _, err := os.Stat(r.targetPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.InfoKV(ctx, "No installed executable found, fresh install", "path", r.targetPath)
			return installedState{kind: installedAbsent}
		}

		logger.WarnKV(ctx, "Could not stat installed executable", "path", r.targetPath, "error", err)

		return installedState{kind: installedIndeterminate}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, versionCommandTimeout)
	defer cancel()

	output, err := execCommand(cmdCtx, r.targetPath, "--version").Output()
	if err != nil {
		logger.WarnKV(ctx, "Installed executable did not report a version",
			"path", r.targetPath, "error", err)

		return installedState{kind: installedIndeterminate}
	}

	return parseInstalledVersion(ctx, string(output))
}

// parseInstalledVersion extracts and parses the Version line of the
// executable's self-report.
func parseInstalledVersion(ctx context.Context, output string) installedState {
	match := versionLinePattern.FindStringSubmatch(output)
	if match == nil {
		logger.Warn(ctx, "Version line missing from executable output, comparison unavailable")
		return installedState{kind: installedIndeterminate}
	}

	parsed, _, err := domain.ParseTag(match[1])
	if err != nil {
		logger.WarnKV(ctx, "Installed version is unparsable, comparison unavailable",
			"value", match[1], "error", err)

		return installedState{kind: installedIndeterminate}
	}

	logger.InfoKV(ctx, "Detected installed version", "version", parsed.String())

	return installedState{kind: installedDetected, version: parsed}
}
