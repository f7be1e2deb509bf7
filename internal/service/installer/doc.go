// Package installer orchestrates an unattended runner install or upgrade.
//
// A run resolves the latest applicable release from the feed, inspects the
// installed executable, decides whether to proceed, downloads and verifies
// the release binary, and swaps it into the service slot: stop, optional
// backup, atomic replace, start or register. The decision logic is pure;
// the side effects live in the fetch and install phases at the edges.
package installer
