package bucket

import (
	"fmt"
	"runtime"
)

// PlatformBinaryName returns the runner executable name published for the
// current platform, e.g. "gitlab-runner-windows-amd64.exe".
func PlatformBinaryName() string {
	extension := ""
	if runtime.GOOS == "windows" {
		extension = ".exe"
	}

	return fmt.Sprintf("gitlab-runner-%s-%s%s", runtime.GOOS, runtime.GOARCH, extension)
}
