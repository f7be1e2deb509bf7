package release

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// ErrMalformedVersion is returned when a release tag cannot be parsed
// into a dotted numeric version.
var ErrMalformedVersion = errors.New("malformed version tag")

var (
	// rcSuffixPattern matches a release-candidate suffix at the end of a tag.
	rcSuffixPattern = regexp.MustCompile(`-rc\.?\d+$`)
	// rcNamePattern marks a release as a candidate build by its title.
	rcNamePattern = regexp.MustCompile(`(?i)rc\.?\d`)
)

// ParseTag parses a release tag into a comparable version and a prerelease flag.
//
// One leading "v" prefix is stripped if present, then a "-rc<N>" suffix is
// detected and removed; its presence marks the tag as a prerelease. The
// remainder must parse as a dotted numeric version. Missing trailing
// components compare as zero, so "17.2" and "17.2.0" are equal.
func ParseTag(tag string) (*goversion.Version, bool, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(tag), "v")

	isPrerelease := rcSuffixPattern.MatchString(trimmed)
	core := rcSuffixPattern.ReplaceAllString(trimmed, "")

	parsed, err := goversion.NewVersion(core)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %q", ErrMalformedVersion, tag)
	}

	return parsed, isPrerelease, nil
}

// IsCandidateName reports whether a release title carries the
// release-candidate marker.
func IsCandidateName(name string) bool {
	return rcNamePattern.MatchString(name)
}
