// Package releases implements the read-only release feed client.
//
// The Client walks the vendor's paginated JSON release list and returns
// resolved domain releases. Malformed tags are dropped with a warning so the
// selection logic only ever sees comparable versions.
package releases
