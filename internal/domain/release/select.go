package release

import (
	"errors"
	"sort"
)

// ErrNoRelease is returned when no release satisfies the selection filter.
// It is a fatal condition for a run: there is nothing to install.
var ErrNoRelease = errors.New("no applicable release found")

// SelectLatest picks the newest applicable release under the prerelease policy.
//
// The input is first ordered descending by creation timestamp so that equal
// versions resolve to the most recent publication, then a stable descending
// version sort determines the winner. With allowPrerelease false, releases
// whose title carries the candidate marker are not eligible. Unresolved
// releases (malformed tags) are never candidates.
func SelectLatest(releases []Release, allowPrerelease bool) (Release, error) {
	candidates := make([]Release, 0, len(releases))

	for _, r := range releases {
		if r.Version == nil {
			continue
		}

		if !allowPrerelease && IsCandidateName(r.Name) {
			continue
		}

		candidates = append(candidates, r)
	}

	if len(candidates) == 0 {
		return Release{}, ErrNoRelease
	}

	// Creation-time order establishes the tie-break before the version sort.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Version.GreaterThan(candidates[j].Version)
	})

	return candidates[0], nil
}
