package release

import (
	"time"

	goversion "github.com/hashicorp/go-version"
)

// Release is a tagged, timestamped publication of the runner executable.
// It is immutable once fetched from the feed.
type Release struct {
	// Name is the human-readable release title from the feed.
	Name string `json:"name"`
	// TagName is the release tag, e.g. "v17.2.0" or "v17.3.0-rc1".
	TagName string `json:"tag_name"`
	// CreatedAt is the publication timestamp from the feed.
	CreatedAt time.Time `json:"created_at"`
	// Version is derived from TagName by Resolve. Nil until resolved.
	Version *goversion.Version `json:"-"`
	// IsPrerelease is true when the tag carries a release-candidate suffix.
	IsPrerelease bool `json:"-"`
}

// Resolve derives Version and IsPrerelease from the tag.
// A malformed tag leaves the release unresolved and returns the parse error;
// unresolved releases are never candidates for selection.
func (r *Release) Resolve() error {
	parsed, isPrerelease, err := ParseTag(r.TagName)
	if err != nil {
		return err
	}

	r.Version = parsed
	r.IsPrerelease = isPrerelease

	return nil
}
