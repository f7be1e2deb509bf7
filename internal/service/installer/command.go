package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/phlcrny/Install-GitLabRunner/internal/config"
	domain "github.com/phlcrny/Install-GitLabRunner/internal/domain/release"
	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
	"github.com/phlcrny/Install-GitLabRunner/internal/repository/bucket"
	"github.com/phlcrny/Install-GitLabRunner/internal/repository/releases"
	"github.com/phlcrny/Install-GitLabRunner/internal/winsvc"
)

// execCommand is abstracted for testing.
//
//nolint:gochecknoglobals // Seam for tests, mirrors exec.CommandContext.
var execCommand = exec.CommandContext

// releaseFeed lists releases, implemented by the repository client.
type releaseFeed interface {
	List(ctx context.Context) ([]domain.Release, error)
}

// artifactStore resolves and downloads release binaries.
type artifactStore interface {
	BinaryName() string
	Fetch(ctx context.Context, rel domain.Release, destinationDir string) (*bucket.Artifact, error)
}

// runner holds the collaborators for a single installer execution.
// It is intentionally unexported; call Run(ctx, cfg) from callers.
type runner struct {
	cfg        *config.Config    // Run configuration.
	feed       releaseFeed       // Release metadata source.
	store      artifactStore     // Binary download source.
	svc        winsvc.Controller // OS service control.
	targetPath string            // Installed executable location.
}

// Run executes the installer lifecycle and is the public entry point for the CLI:
// 1) Fetch the release feed and select the latest applicable release.
// 2) Inspect the installed executable's version.
// 3) Decide whether an upgrade is warranted.
// 4) Download and verify the release binary.
// 5) Stop, back up, replace and restart the service.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx = logger.WithName(ctx, "runner-installer")

	if err := config.Validate(cfg); err != nil {
		return err
	}

	r := newRunner(cfg)

	if err := r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Installer run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Installer completed")

	return nil
}

// newRunner wires the production collaborators from the configuration.
func newRunner(cfg *config.Config) *runner {
	binaryName := bucket.PlatformBinaryName()

	return &runner{
		cfg:        cfg,
		feed:       releases.NewClient(cfg.APIURL, cfg.Timeout),
		store:      bucket.NewStore(cfg.DownloadBaseURL, binaryName, cfg.Timeout),
		svc:        winsvc.NewManager(),
		targetPath: filepath.Join(cfg.InstallDir, runnerExecutable()),
	}
}

// run sequences the whole upgrade. Every step blocks and the next one
// depends on its result; the first unrecoverable error terminates the run.
func (r *runner) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Fetching release feed", "url", r.cfg.APIURL)

	feed, err := r.feed.List(ctx)
	if err != nil {
		return fmt.Errorf("fetch release feed: %w", err)
	}

	latest, err := domain.SelectLatest(feed, r.cfg.AllowPrerelease)
	if err != nil {
		return fmt.Errorf("select release: %w", err)
	}

	logger.InfoKV(ctx, "Selected latest release",
		"tag", latest.TagName, "name", latest.Name, "prerelease", latest.IsPrerelease)

	installed := r.inspectInstalled(ctx)

	if decision := decide(ctx, latest, installed, r.cfg.AllowPrerelease, r.cfg.Force); decision == DecisionSkip {
		logger.InfoKV(ctx, "Installed version is current, nothing to do", "tag", latest.TagName)
		return nil
	}

	artifact, err := r.fetchVerified(ctx, latest)
	if err != nil {
		return err
	}

	result, err := r.install(ctx, artifact)
	if err != nil {
		return fmt.Errorf("install %s: %w", latest.TagName, err)
	}

	logger.InfoKV(ctx, "Run finished", "tag", latest.TagName, "result", string(result))

	return nil
}

// fetchVerified downloads the release binary and applies the checksum policy:
// a mismatch deletes the artifact and fails the run, unless force keeps it
// with a warning. An absent expected checksum is not a failure.
func (r *runner) fetchVerified(ctx context.Context, latest domain.Release) (*bucket.Artifact, error) {
	logger.InfoKV(ctx, "Downloading release binary",
		"tag", latest.TagName, "binary", r.store.BinaryName(), "dir", r.cfg.DownloadDir)

	if err := os.MkdirAll(r.cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	artifact, err := r.store.Fetch(ctx, latest, r.cfg.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", latest.TagName, err)
	}

	if artifact.Verified() {
		return artifact, nil
	}

	if r.cfg.Force {
		logger.WarnKV(ctx, "Checksum mismatch overridden by force, artifact retained",
			"expected", artifact.ExpectedHash, "actual", artifact.ActualHash)

		return artifact, nil
	}

	if removeErr := os.Remove(artifact.LocalPath); removeErr != nil {
		logger.WarnKV(ctx, "Could not delete mismatched artifact",
			"path", artifact.LocalPath, "error", removeErr)
	}

	return nil, fmt.Errorf("%w: expected %s, got %s",
		ErrChecksumMismatch, artifact.ExpectedHash, artifact.ActualHash)
}
