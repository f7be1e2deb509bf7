package bucket

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/phlcrny/Install-GitLabRunner/internal/domain/release"
)

const testBinary = "gitlab-runner-windows-amd64.exe"

// bucketServer serves a minimal release layout: an index page with a checksum
// line and the binary under binaries/.
func bucketServer(t *testing.T, tag string, body []byte, withChecksum bool) *httptest.Server {
	t.Helper()

	checksum := sha256.Sum256(body)

	mux := http.NewServeMux()
	mux.HandleFunc("/"+tag+"/index.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "<html><body>")
		fmt.Fprintln(w, "<a href='binaries/gitlab-runner-linux-amd64'>gitlab-runner-linux-amd64</a> 0000000000000000000000000000000000000000000000000000000000000000")

		if withChecksum {
			fmt.Fprintf(w, "<a href='binaries/%s'>%s</a> %s\n", testBinary, testBinary, hex.EncodeToString(checksum[:]))
		}

		fmt.Fprintln(w, "</body></html>")
	})
	mux.HandleFunc("/"+tag+"/binaries/"+testBinary, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// TestFetch covers the full resolve-probe-download-hash sequence.
func TestFetch(t *testing.T) {
	t.Parallel()

	body := []byte("runner-binary-bytes")
	server := bucketServer(t, "v17.2.0", body, true)
	store := NewStore(server.URL, testBinary, time.Second)

	artifact, err := store.Fetch(context.Background(), domain.Release{TagName: "v17.2.0"}, t.TempDir())
	require.NoError(t, err)

	require.Equal(t, artifact.ExpectedHash, artifact.ActualHash)
	require.True(t, artifact.Verified())
	require.Contains(t, artifact.LocalPath, "v17.2.0")
	require.Contains(t, artifact.SourceURL, "binaries/"+testBinary)

	downloaded, err := os.ReadFile(artifact.LocalPath)
	require.NoError(t, err)
	require.Equal(t, body, downloaded)
}

// TestFetchWithoutChecksum ensures a bare index page is a warning, not a failure.
func TestFetchWithoutChecksum(t *testing.T) {
	t.Parallel()

	server := bucketServer(t, "v17.2.0", []byte("bytes"), false)
	store := NewStore(server.URL, testBinary, time.Second)

	artifact, err := store.Fetch(context.Background(), domain.Release{TagName: "v17.2.0"}, t.TempDir())
	require.NoError(t, err)
	require.Empty(t, artifact.ExpectedHash)
	require.True(t, artifact.Verified())
	require.NotEmpty(t, artifact.ActualHash)
}

// TestFetchUnresolvedLink ensures a failed probe is the designed hard stop.
func TestFetchUnresolvedLink(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v17.2.0/index.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "<html></html>")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store := NewStore(server.URL, testBinary, time.Second)

	_, err := store.Fetch(context.Background(), domain.Release{TagName: "v17.2.0"}, t.TempDir())
	require.ErrorIs(t, err, ErrDownloadLinkUnresolved)
}

// TestArtifactName keeps local names tag-scoped so runs never collide.
func TestArtifactName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "gitlab-runner-windows-amd64-v17.2.0.exe", artifactName(testBinary, "v17.2.0"))
	require.Equal(t, "gitlab-runner-linux-amd64-v17.2.0", artifactName("gitlab-runner-linux-amd64", "v17.2.0"))
}
