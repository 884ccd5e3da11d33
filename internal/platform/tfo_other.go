//go:build !linux

package platform

// TCPFastOpen is unsupported outside linux.
type TCPFastOpen struct{}

func newTCPFastOpen() *TCPFastOpen {
	return &TCPFastOpen{}
}

func (*TCPFastOpen) Supported() bool { return false }

func (*TCPFastOpen) Enabled() bool { return false }

func (*TCPFastOpen) Enable() string {
	return "TCP Fast Open is not supported on this platform"
}
