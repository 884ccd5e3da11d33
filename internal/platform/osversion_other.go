//go:build !linux

package platform

import "runtime"

func OSVersion() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
