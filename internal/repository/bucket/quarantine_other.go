//go:build !windows

package bucket

// clearQuarantine is a no-op outside Windows; other platforms have no
// download quarantine marker this tool needs to clear.
func clearQuarantine(string) error {
	return nil
}
