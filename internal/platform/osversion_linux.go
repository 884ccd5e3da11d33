//go:build linux

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// OSVersion returns the running kernel release.
func OSVersion() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOOS
	}

	return unix.ByteSliceToString(uts.Release[:])
}
