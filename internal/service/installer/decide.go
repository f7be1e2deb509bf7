package installer

import (
	"context"

	domain "github.com/phlcrny/Install-GitLabRunner/internal/domain/release"
	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
)

// decide compares the latest release against the installed state and the run
// flags. The policy is evaluated in order:
//
//  1. Nothing installed: proceed (fresh install).
//  2. Comparison unavailable: proceed with a warning, no behavioral gate.
//  3. Latest is a stable release at or below the installed version: skip,
//     unless force requests a reinstall.
//  4. Prereleases are allowed and the latest is one: proceed, a candidate may
//     supersede an equal or lower nominal version.
//  5. Anything else is not cleanly determined; warn and proceed rather than
//     silently stall.
func decide(ctx context.Context, latest domain.Release, installed installedState, allowPrerelease, force bool) Decision {
	switch installed.kind {
	case installedAbsent:
		return DecisionProceed

	case installedIndeterminate:
		logger.Warn(ctx, "Installed version comparison unavailable, proceeding")
		return DecisionProceed

	case installedDetected:
	}

	if latest.Version.LessThanOrEqual(installed.version) && !latest.IsPrerelease {
		if force {
			logger.InfoKV(ctx, "Force requested, reinstalling",
				"installed", installed.version.String(), "latest", latest.Version.String())

			return DecisionProceed
		}

		return DecisionSkip
	}

	if allowPrerelease && latest.IsPrerelease {
		return DecisionProceed
	}

	logger.WarnKV(ctx, "Upgrade state not cleanly determined, proceeding",
		"installed", installed.version.String(),
		"latest", latest.Version.String(),
		"prerelease", latest.IsPrerelease)

	return DecisionProceed
}
