// Package winsvc wraps the platform service tool behind a small Controller
// interface: query a named service, stop it, start it.
//
// On Windows it drives sc.exe, elsewhere systemctl. Query also reports which
// executable the service invocation points at, parsed with a quote-aware
// tokenizer because service paths routinely contain spaces.
package winsvc
