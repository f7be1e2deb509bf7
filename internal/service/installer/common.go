package installer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
)

const (
	// runnerBaseName is the executable name without platform extension.
	runnerBaseName = "gitlab-runner"

	// versionCommandTimeout is the timeout for executing version commands.
	versionCommandTimeout = 10 * time.Second

	// backupTimeLayout stamps backup copies of the previous executable.
	backupTimeLayout = "20060102-150405"

	// processWaitAttempts and processWaitDelay bound the wait for runner
	// processes to exit after the service stops.
	processWaitAttempts = 10
	processWaitDelay    = 500 * time.Millisecond
)

// ErrChecksumMismatch is returned when the downloaded artifact does not match
// the checksum published on the release index page.
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// Decision is the outcome of comparing the latest release with the
// installed executable.
type Decision string

const (
	// DecisionProceed continues to download and install.
	DecisionProceed Decision = "proceed"
	// DecisionSkip ends the run successfully with no side effects.
	DecisionSkip Decision = "skip"
)

// Result describes what the install phase did.
type Result string

const (
	// ResultAlreadyCurrent means the target already held the artifact bytes.
	ResultAlreadyCurrent Result = "already-current"
	// ResultInstalled means a fresh executable was placed and registered.
	ResultInstalled Result = "installed"
	// ResultUpdated means an existing executable was replaced.
	ResultUpdated Result = "updated"
)

// installedKind classifies the state of the currently installed executable.
type installedKind int

const (
	// installedAbsent means no executable exists at the target path.
	installedAbsent installedKind = iota
	// installedIndeterminate means the executable exists but its version
	// could not be read; comparison is unavailable.
	installedIndeterminate
	// installedDetected means a comparable version was read.
	installedDetected
)

// installedState is re-derived on every run and never cached.
type installedState struct {
	kind    installedKind
	version *goversion.Version
}

// runnerExecutable returns the platform executable name of the runner.
func runnerExecutable() string {
	return runnerBaseName + executableExtension()
}

// executableExtension returns ".exe" on Windows and "" elsewhere.
func executableExtension() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}

	return ""
}

// checksumFile computes the hex SHA-256 of a file's contents.
func checksumFile(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// samePath compares two filesystem paths after cleaning, case-insensitively
// on Windows.
func samePath(a, b string) bool {
	cleanA, cleanB := filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(cleanA, cleanB)
	}

	return cleanA == cleanB
}
