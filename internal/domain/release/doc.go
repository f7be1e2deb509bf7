// Package release models runner releases and the selection policy.
//
// It parses release tags into comparable versions, flags release candidates,
// and picks the latest applicable release for a run. The package is pure:
// no I/O, no logging, only data in and data out.
package release
