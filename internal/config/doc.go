// Package config defines installer settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the release feed endpoint, the download bucket, the
// install location and the run policy flags (prerelease, backup, force).
package config
