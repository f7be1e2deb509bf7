// Package bucket resolves and downloads runner binaries from the vendor's
// object-storage bucket.
//
// The bucket exposes one index page per release tag with a checksum listing,
// plus raw binaries under a known path layout. The Store scrapes the expected
// checksum, validates the inferred binary URL with a header-only probe, and
// downloads the artifact under a tag-scoped name.
package bucket
