package installer

import (
	"context"
	"crypto"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/mitchellh/go-ps"

	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
	"github.com/phlcrny/Install-GitLabRunner/internal/repository/bucket"
)

// targetFileMode is applied to the installed executable.
const targetFileMode os.FileMode = 0o755

// install sequences service stop, optional backup, file replacement and
// service start. It never leaves the service stopped without attempting a
// start step, and a final status report is always attempted.
func (r *runner) install(ctx context.Context, artifact *bucket.Artifact) (result Result, err error) {
	if err = os.MkdirAll(r.cfg.InstallDir, targetFileMode); err != nil {
		return "", fmt.Errorf("create install directory: %w", err)
	}

	fresh, current, err := r.compareExisting(ctx, artifact)
	if err != nil {
		return "", err
	}

	if current && !r.cfg.Force {
		return ResultAlreadyCurrent, nil
	}

	status, err := r.svc.Query(ctx, r.cfg.ServiceName)
	if err != nil {
		return "", err
	}

	// A service bound to a different path belongs to another installation
	// and must not be touched.
	bound := status.Exists && (status.BinaryPath == "" || samePath(status.BinaryPath, r.targetPath))
	if status.Exists && !bound {
		logger.WarnKV(ctx, "Service points at a different executable, leaving it alone",
			"service", r.cfg.ServiceName, "bound", status.BinaryPath, "target", r.targetPath)
	}

	// The status report runs even when a later step fails, without masking
	// the step's error.
	defer r.reportServiceStatus(ctx)

	if bound && status.Running {
		if err = r.stopService(ctx); err != nil {
			return "", err
		}
	}

	if r.cfg.Backup && !fresh {
		if err = r.backupExisting(ctx); err != nil {
			return "", fmt.Errorf("backup previous executable: %w", err)
		}
	}

	if err = r.applyArtifact(ctx, artifact); err != nil {
		return "", fmt.Errorf("replace executable: %w", err)
	}

	if status.Exists && !bound {
		// Executable replaced, foreign service deliberately untouched.
		if fresh {
			return ResultInstalled, nil
		}

		return ResultUpdated, nil
	}

	if err = r.ensureServiceRunning(ctx, status.Exists); err != nil {
		return "", err
	}

	if fresh {
		return ResultInstalled, nil
	}

	return ResultUpdated, nil
}

// compareExisting reports whether the target is absent (fresh install) and
// whether it already holds the artifact bytes.
func (r *runner) compareExisting(ctx context.Context, artifact *bucket.Artifact) (fresh, current bool, err error) {
	if _, statErr := os.Stat(r.targetPath); statErr != nil {
		if os.IsNotExist(statErr) {
			return true, false, nil
		}

		return false, false, fmt.Errorf("stat target: %w", statErr)
	}

	existingHash, err := checksumFile(r.targetPath)
	if err != nil {
		return false, false, fmt.Errorf("checksum target: %w", err)
	}

	if existingHash == artifact.ActualHash {
		logger.InfoKV(ctx, "Target already holds this release", "path", r.targetPath)
		return false, true, nil
	}

	return false, false, nil
}

// stopService halts the bound service and waits for runner processes to
// exit. Overwriting a running executable's file is unsafe on Windows, so a
// stop failure is fatal for the run.
func (r *runner) stopService(ctx context.Context) error {
	logger.InfoKV(ctx, "Stopping service", "service", r.cfg.ServiceName)

	if err := r.svc.Stop(ctx, r.cfg.ServiceName); err != nil {
		return fmt.Errorf("stop service: %w", err)
	}

	r.waitForProcessExit(ctx)

	return nil
}

// waitForProcessExit polls the process table until no runner process remains
// or the attempt budget runs out. Best effort only.
func (r *runner) waitForProcessExit(ctx context.Context) {
	executable := runnerExecutable()

	for attempt := 0; attempt < processWaitAttempts; attempt++ {
		processes, err := ps.Processes()
		if err != nil {
			logger.WarnKV(ctx, "Could not list processes", "error", err)
			return
		}

		running := false

		for _, process := range processes {
			if process.Executable() == executable {
				running = true
				break
			}
		}

		if !running {
			return
		}

		time.Sleep(processWaitDelay)
	}

	logger.WarnKV(ctx, "Runner process still present after service stop", "executable", executable)
}

// backupExisting copies the previous executable to a timestamped path before
// it is overwritten. Failure is fatal: the run must not proceed without the
// requested safety copy.
func (r *runner) backupExisting(ctx context.Context) error {
	backupPath := fmt.Sprintf("%s.%s.bak", r.targetPath, time.Now().Format(backupTimeLayout))

	source, err := os.Open(r.targetPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	destination, err := os.OpenFile(filepath.Clean(backupPath), os.O_WRONLY|os.O_CREATE|os.O_EXCL, targetFileMode)
	if err != nil {
		return err
	}

	_, err = io.Copy(destination, source)
	if closeErr := destination.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(backupPath)
		return err
	}

	logger.InfoKV(ctx, "Backed up previous executable", "path", backupPath)

	return nil
}

// applyArtifact swaps the downloaded binary into the target path, re-checking
// the expected checksum when one is known. The artifact file is consumed.
func (r *runner) applyArtifact(ctx context.Context, artifact *bucket.Artifact) error {
	data, err := os.Open(filepath.Clean(artifact.LocalPath))
	if err != nil {
		return err
	}

	defer func() {
		_ = data.Close()
	}()

	// go-update renames the current target aside before the swap, so a fresh
	// install needs an empty file to displace.
	if _, statErr := os.Stat(r.targetPath); statErr != nil && os.IsNotExist(statErr) {
		if createErr := os.WriteFile(r.targetPath, nil, targetFileMode); createErr != nil {
			return createErr
		}
	}

	options := goupdate.Options{
		TargetPath: r.targetPath,
		TargetMode: targetFileMode,
	}

	// With force the artifact may be knowingly mismatched; only pin the
	// checksum when it is expected to hold.
	if artifact.ExpectedHash != "" && artifact.Verified() {
		checksum, decodeErr := hex.DecodeString(artifact.ExpectedHash)
		if decodeErr != nil {
			return fmt.Errorf("decode expected checksum: %w", decodeErr)
		}

		options.Checksum = checksum
		options.Hash = crypto.SHA256
	}

	if err = goupdate.Apply(data, options); err != nil {
		return err
	}

	// go-update leaves the displaced binary next to the target.
	oldPath := r.targetPath + ".old"
	if _, statErr := os.Stat(oldPath); statErr == nil {
		_ = os.Remove(oldPath)
	}

	if removeErr := os.Remove(artifact.LocalPath); removeErr != nil {
		logger.WarnKV(ctx, "Could not remove consumed artifact",
			"path", artifact.LocalPath, "error", removeErr)
	}

	logger.InfoKV(ctx, "Executable replaced", "path", r.targetPath, "source", artifact.SourceURL)

	return nil
}

// ensureServiceRunning restarts a registered service or registers a new one
// through the runner's own install command.
func (r *runner) ensureServiceRunning(ctx context.Context, registered bool) error {
	if registered {
		logger.InfoKV(ctx, "Starting service", "service", r.cfg.ServiceName)

		if err := r.svc.Start(ctx, r.cfg.ServiceName); err != nil {
			return fmt.Errorf("start service: %w", err)
		}

		return nil
	}

	logger.InfoKV(ctx, "Registering service", "service", r.cfg.ServiceName)

	installCmd := execCommand(ctx, r.targetPath, "install", "--working-directory", r.cfg.InstallDir)
	if output, err := installCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("register service: %w: %s", err, string(output))
	}

	if err := r.svc.Start(ctx, r.cfg.ServiceName); err != nil {
		return fmt.Errorf("start registered service: %w", err)
	}

	return nil
}

// reportServiceStatus is the guaranteed final step: it queries and logs the
// service state regardless of earlier errors, and never raises its own.
func (r *runner) reportServiceStatus(ctx context.Context) {
	status, err := r.svc.Query(ctx, r.cfg.ServiceName)
	if err != nil {
		logger.WarnKV(ctx, "Final service status unavailable",
			"service", r.cfg.ServiceName, "error", err)

		return
	}

	logger.InfoKV(ctx, "Final service status",
		"service", status.Name, "exists", status.Exists, "running", status.Running)
}
