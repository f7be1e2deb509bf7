package release

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// resolved builds a release with a parsed version for selection tests.
func resolved(t *testing.T, name, tag string, createdAt time.Time) Release {
	t.Helper()

	r := Release{
		Name:      name,
		TagName:   tag,
		CreatedAt: createdAt,
	}
	require.NoError(t, r.Resolve())

	return r
}

// TestSelectLatestSkipsCandidates ensures rc releases never win without the
// prerelease policy, even when they carry the highest version.
func TestSelectLatestSkipsCandidates(t *testing.T) {
	t.Parallel()

	now := time.Now()
	releases := []Release{
		resolved(t, "GitLab Runner 17.3.0-rc1", "v17.3.0-rc1", now),
		resolved(t, "GitLab Runner 17.2.0", "v17.2.0", now.Add(-24*time.Hour)),
		resolved(t, "GitLab Runner 17.1.0", "v17.1.0", now.Add(-48*time.Hour)),
	}

	latest, err := SelectLatest(releases, false)
	require.NoError(t, err)
	require.Equal(t, "v17.2.0", latest.TagName)

	latest, err = SelectLatest(releases, true)
	require.NoError(t, err)
	require.Equal(t, "v17.3.0-rc1", latest.TagName)
}

// TestSelectLatestTieBreak ensures equal versions resolve to the newest publication.
func TestSelectLatestTieBreak(t *testing.T) {
	t.Parallel()

	now := time.Now()
	older := resolved(t, "GitLab Runner 17.2.0", "v17.2.0", now.Add(-time.Hour))
	newer := resolved(t, "GitLab Runner 17.2.0 repack", "17.2.0", now)

	latest, err := SelectLatest([]Release{older, newer}, false)
	require.NoError(t, err)
	require.Equal(t, newer.Name, latest.Name)
}

// TestSelectLatestNoCandidates covers the fatal empty-filter outcome and
// the exclusion of unresolved releases.
func TestSelectLatestNoCandidates(t *testing.T) {
	t.Parallel()

	_, err := SelectLatest(nil, false)
	require.ErrorIs(t, err, ErrNoRelease)

	unresolved := Release{Name: "broken", TagName: "not-a-version"}
	_, err = SelectLatest([]Release{unresolved}, true)
	require.ErrorIs(t, err, ErrNoRelease)
}
