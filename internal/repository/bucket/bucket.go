package bucket

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	domain "github.com/phlcrny/Install-GitLabRunner/internal/domain/release"
	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
)

// Artifact is a downloaded runner binary pending verification and install.
type Artifact struct {
	// LocalPath is where the binary was written.
	LocalPath string
	// SourceURL is the resolved download URL.
	SourceURL string
	// ExpectedHash is the hex SHA-256 scraped from the release index page,
	// empty when the page carried no matching entry.
	ExpectedHash string
	// ActualHash is the hex SHA-256 computed over the downloaded bytes.
	ActualHash string
}

// Verified reports whether the artifact matches its expected checksum.
// An absent expected checksum counts as verified: there is nothing to compare.
func (a *Artifact) Verified() bool {
	return a.ExpectedHash == "" || a.ExpectedHash == a.ActualHash
}

// Store resolves and downloads release binaries from the vendor bucket.
type Store struct {
	// baseURL is the bucket root, e.g. https://gitlab-runner-downloads.s3.amazonaws.com.
	baseURL string
	// binaryName is the platform-specific executable name inside a release.
	binaryName string
	// metaClient is used for index pages and existence probes.
	metaClient *http.Client
	// downloadClient has no overall timeout; downloads are bounded by context.
	downloadClient *http.Client
}

const (
	// indexPage is the per-release listing that carries checksums.
	indexPage = "index.html"

	// binariesPrefix is the bucket path segment holding raw executables.
	binariesPrefix = "binaries"

	// artifactFileMode is applied to downloaded executables.
	artifactFileMode os.FileMode = 0o755
)

var (
	// ErrDownloadLinkUnresolved is returned when the inferred binary URL does
	// not answer the existence probe. There is no fallback.
	ErrDownloadLinkUnresolved = errors.New("download link could not be resolved")

	errBadHTTPStatus = errors.New("unexpected http status")

	// hexChecksumPattern matches a 64-character hex token on an index line.
	hexChecksumPattern = regexp.MustCompile(`(?i)\b[0-9a-f]{64}\b`)
)

// NewStore creates a bucket store for the provided base URL and platform
// binary name. The timeout bounds index and probe requests only.
func NewStore(baseURL, binaryName string, timeout time.Duration) *Store {
	return &Store{
		baseURL:        strings.TrimRight(baseURL, "/"),
		binaryName:     binaryName,
		metaClient:     &http.Client{Timeout: timeout},
		downloadClient: &http.Client{},
	}
}

// BinaryName returns the platform executable name the store resolves.
func (s *Store) BinaryName() string {
	return s.binaryName
}

// Fetch resolves the download URL for a release, downloads the binary into
// destinationDir under a tag-scoped name, clears the quarantine marker and
// computes the artifact checksum. The caller owns verification policy.
func (s *Store) Fetch(ctx context.Context, rel domain.Release, destinationDir string) (*Artifact, error) {
	expected, err := s.expectedChecksum(ctx, rel.TagName)
	if err != nil {
		return nil, fmt.Errorf("scan release index: %w", err)
	}

	if expected == "" {
		logger.WarnKV(ctx, "Release index carries no checksum for the platform binary",
			"binary", s.binaryName, "tag", rel.TagName)
	}

	downloadURL, err := s.resolveBinaryURL(ctx, rel.TagName)
	if err != nil {
		return nil, err
	}

	localPath, actual, err := s.download(ctx, downloadURL, destinationDir, rel.TagName)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", downloadURL, err)
	}

	return &Artifact{
		LocalPath:    localPath,
		SourceURL:    downloadURL,
		ExpectedHash: expected,
		ActualHash:   actual,
	}, nil
}

// indexURL composes the per-release listing URL.
func (s *Store) indexURL(tag string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, tag, indexPage)
}

// expectedChecksum scans the release index page for the line referencing the
// platform binary and captures the adjacent 64-hex token. A page without a
// matching line yields an empty checksum, not an error.
func (s *Store) expectedChecksum(ctx context.Context, tag string) (string, error) {
	indexURL := s.indexURL(tag)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, http.NoBody)
	if err != nil {
		return "", err
	}

	response, err := s.metaClient.Do(req)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s, %s: %w", indexURL, response.Status, errBadHTTPStatus)
	}

	scanner := bufio.NewScanner(response.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, s.binaryName) {
			continue
		}

		if match := hexChecksumPattern.FindString(line); match != "" {
			return strings.ToLower(match), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read index page: %w", err)
	}

	return "", nil
}

// resolveBinaryURL infers the direct binary URL from the bucket layout and
// validates it with a header-only probe before use.
func (s *Store) resolveBinaryURL(ctx context.Context, tag string) (string, error) {
	inferred := strings.Replace(s.indexURL(tag), indexPage, binariesPrefix+"/"+s.binaryName, 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, inferred, http.NoBody)
	if err != nil {
		return "", err
	}

	response, err := s.metaClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: probe %s: %w", ErrDownloadLinkUnresolved, inferred, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %s answered %s", ErrDownloadLinkUnresolved, inferred, response.Status)
	}

	return inferred, nil
}

// download writes the binary to destinationDir under a deterministic
// tag-scoped name and returns the path and hex SHA-256 of the bytes written.
func (s *Store) download(ctx context.Context, downloadURL, destinationDir, tag string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, http.NoBody)
	if err != nil {
		return "", "", err
	}

	response, err := s.downloadClient.Do(req)
	if err != nil {
		return "", "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%s: %w", response.Status, errBadHTTPStatus)
	}

	outputPath := filepath.Join(destinationDir, artifactName(s.binaryName, tag))

	outputFile, err := os.OpenFile(filepath.Clean(outputPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, artifactFileMode)
	if err != nil {
		return "", "", err
	}

	hasher := sha256.New()

	_, err = io.Copy(outputFile, io.TeeReader(response.Body, hasher))
	if closeErr := outputFile.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(outputPath)

		return "", "", err
	}

	if err = clearQuarantine(outputPath); err != nil {
		logger.WarnKV(ctx, "Could not clear quarantine marker", "path", outputPath, "error", err)
	}

	logger.InfoKV(ctx, "Downloaded release binary", "path", outputPath, "url", downloadURL)

	return outputPath, hex.EncodeToString(hasher.Sum(nil)), nil
}

// artifactName builds the tag-scoped local filename so artifacts from
// different runs never collide.
func artifactName(binaryName string, tag string) string {
	extension := filepath.Ext(binaryName)
	base := strings.TrimSuffix(binaryName, extension)

	return base + "-" + tag + extension
}
