package platform

import (
	"strings"

	"golang.org/x/mod/semver"
)

// tcpFastOpenMinKernel is the first kernel release with client and server TFO support.
const tcpFastOpenMinKernel = "v3.7.1"

// Bits of net.ipv4.tcp_fastopen.
const (
	tfoClientBit = 1
	tfoServerBit = 2
)

// NewTCPFastOpen returns the TCP Fast Open probe for the running platform.
func NewTCPFastOpen() *TCPFastOpen {
	return newTCPFastOpen()
}

// kernelSupportsTFO compares a uname release such as "5.15.0-91-generic"
// against the minimum kernel version.
func kernelSupportsTFO(release string) bool {
	version := normalizeKernelRelease(release)
	if version == "" {
		return false
	}

	return semver.Compare(version, tcpFastOpenMinKernel) >= 0
}

func normalizeKernelRelease(release string) string {
	release = strings.TrimSpace(release)
	end := 0
	for end < len(release) && (release[end] == '.' || (release[end] >= '0' && release[end] <= '9')) {
		end++
	}
	core := strings.Trim(release[:end], ".")
	if core == "" {
		return ""
	}
	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	version := "v" + strings.Join(parts, ".")
	if !semver.IsValid(version) {
		return ""
	}

	return version
}
