package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phlcrny/Install-GitLabRunner/internal/config"
	"github.com/phlcrny/Install-GitLabRunner/internal/repository/bucket"
	"github.com/phlcrny/Install-GitLabRunner/internal/winsvc"
)

// fakeService records service control calls for orchestration tests.
type fakeService struct {
	status  winsvc.Status
	stopErr error
	queries int
	stops   int
	starts  int
}

func (f *fakeService) Query(_ context.Context, name string) (*winsvc.Status, error) {
	f.queries++

	status := f.status
	status.Name = name

	return &status, nil
}

func (f *fakeService) Stop(context.Context, string) error {
	f.stops++
	return f.stopErr
}

func (f *fakeService) Start(context.Context, string) error {
	f.starts++
	return nil
}

// testRunner builds a runner over temp directories with a fake service.
func testRunner(t *testing.T, svc winsvc.Controller) *runner {
	t.Helper()

	installDir := t.TempDir()
	cfg := config.Default()
	cfg.InstallDir = installDir
	cfg.DownloadDir = t.TempDir()

	return &runner{
		cfg:        cfg,
		svc:        svc,
		targetPath: filepath.Join(installDir, runnerExecutable()),
	}
}

// writeArtifact places artifact bytes in the download dir and fills hashes.
func writeArtifact(t *testing.T, r *runner, body []byte) *bucket.Artifact {
	t.Helper()

	path := filepath.Join(r.cfg.DownloadDir, "gitlab-runner-v17.2.0.bin")
	require.NoError(t, os.WriteFile(path, body, 0o755))

	hash, err := checksumFile(path)
	require.NoError(t, err)

	return &bucket.Artifact{
		LocalPath:    path,
		SourceURL:    "https://downloads.example/v17.2.0",
		ExpectedHash: hash,
		ActualHash:   hash,
	}
}

// TestInstallAlreadyCurrent ensures a second run with identical bytes mutates
// neither the file nor the service.
func TestInstallAlreadyCurrent(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	r := testRunner(t, svc)

	body := []byte("same-release-bytes")
	artifact := writeArtifact(t, r, body)
	require.NoError(t, os.WriteFile(r.targetPath, body, 0o755))

	result, err := r.install(context.Background(), artifact)
	require.NoError(t, err)
	require.Equal(t, ResultAlreadyCurrent, result)

	// No service interaction at all, and the artifact is left in place.
	require.Zero(t, svc.queries)
	require.Zero(t, svc.stops)
	require.Zero(t, svc.starts)
	require.FileExists(t, artifact.LocalPath)
}

// TestInstallReplacesAndRestarts covers the stop, backup, replace, start path.
func TestInstallReplacesAndRestarts(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	r := testRunner(t, svc)
	svc.status = winsvc.Status{Exists: true, Running: true, BinaryPath: r.targetPath}
	r.cfg.Backup = true

	require.NoError(t, os.WriteFile(r.targetPath, []byte("previous-release"), 0o755))

	newBody := []byte("next-release-bytes")
	artifact := writeArtifact(t, r, newBody)

	result, err := r.install(context.Background(), artifact)
	require.NoError(t, err)
	require.Equal(t, ResultUpdated, result)

	require.Equal(t, 1, svc.stops)
	require.Equal(t, 1, svc.starts)

	replaced, err := os.ReadFile(r.targetPath)
	require.NoError(t, err)
	require.Equal(t, newBody, replaced)

	// Backup copy of the previous bytes exists.
	backups, err := filepath.Glob(r.targetPath + ".*.bak")
	require.NoError(t, err)
	require.Len(t, backups, 1)

	previous, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	require.Equal(t, []byte("previous-release"), previous)

	// The artifact was consumed.
	require.NoFileExists(t, artifact.LocalPath)
}

// TestInstallForeignServiceUntouched ensures a service bound elsewhere is
// warned about and never stopped or started.
func TestInstallForeignServiceUntouched(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	r := testRunner(t, svc)
	svc.status = winsvc.Status{
		Exists:     true,
		Running:    true,
		BinaryPath: filepath.Join(t.TempDir(), "unrelated", runnerExecutable()),
	}

	require.NoError(t, os.WriteFile(r.targetPath, []byte("previous"), 0o755))

	artifact := writeArtifact(t, r, []byte("next"))

	result, err := r.install(context.Background(), artifact)
	require.NoError(t, err)
	require.Equal(t, ResultUpdated, result)

	require.Zero(t, svc.stops)
	require.Zero(t, svc.starts)
}

// TestInstallFreshWithForeignService reports a first install even when an
// unrelated service occupies the configured name.
func TestInstallFreshWithForeignService(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	r := testRunner(t, svc)
	svc.status = winsvc.Status{
		Exists:     true,
		BinaryPath: filepath.Join(t.TempDir(), "unrelated", runnerExecutable()),
	}

	artifact := writeArtifact(t, r, []byte("first-release"))

	result, err := r.install(context.Background(), artifact)
	require.NoError(t, err)
	require.Equal(t, ResultInstalled, result)

	// The foreign service is never started on this install's behalf.
	require.Zero(t, svc.starts)
	require.FileExists(t, r.targetPath)
}

// TestInstallBackupFailureAborts ensures a failed safety copy stops the run
// before the previous executable is overwritten.
func TestInstallBackupFailureAborts(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	r := testRunner(t, svc)
	r.cfg.Backup = true

	previous := []byte("previous-release")
	require.NoError(t, os.WriteFile(r.targetPath, previous, 0o755))

	artifact := writeArtifact(t, r, []byte("next-release"))

	// Occupy every backup path the copy could pick, so its exclusive create
	// fails no matter which second the run lands on.
	now := time.Now()
	for offset := 0; offset < 3; offset++ {
		stamp := now.Add(time.Duration(offset) * time.Second).Format(backupTimeLayout)
		require.NoError(t, os.WriteFile(fmt.Sprintf("%s.%s.bak", r.targetPath, stamp), nil, 0o644))
	}

	_, err := r.install(context.Background(), artifact)
	require.ErrorIs(t, err, os.ErrExist)

	untouched, err := os.ReadFile(r.targetPath)
	require.NoError(t, err)
	require.Equal(t, previous, untouched)
	require.FileExists(t, artifact.LocalPath)
}

// TestInstallStopFailureIsFatal ensures the file is never replaced while the
// service could still be running it.
func TestInstallStopFailureIsFatal(t *testing.T) {
	t.Parallel()

	svc := &fakeService{stopErr: fmt.Errorf("access denied")}
	r := testRunner(t, svc)
	svc.status = winsvc.Status{Exists: true, Running: true, BinaryPath: r.targetPath}

	previous := []byte("previous-release")
	require.NoError(t, os.WriteFile(r.targetPath, previous, 0o755))

	artifact := writeArtifact(t, r, []byte("next-release"))

	_, err := r.install(context.Background(), artifact)
	require.Error(t, err)

	untouched, err := os.ReadFile(r.targetPath)
	require.NoError(t, err)
	require.Equal(t, previous, untouched)
}

// TestInstallFreshRegistersService covers the first-install path where the
// runner registers its own service.
func TestInstallFreshRegistersService(t *testing.T) {
	var registered []string

	restore := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		registered = append(append(registered, name), args...)
		return helperCommand(ctx, "")
	}

	t.Cleanup(func() { execCommand = restore })

	svc := &fakeService{}
	r := testRunner(t, svc)

	artifact := writeArtifact(t, r, []byte("first-release"))

	result, err := r.install(context.Background(), artifact)
	require.NoError(t, err)
	require.Equal(t, ResultInstalled, result)

	require.Contains(t, registered, r.targetPath)
	require.Contains(t, registered, "install")
	require.Equal(t, 1, svc.starts)
	require.FileExists(t, r.targetPath)
}
