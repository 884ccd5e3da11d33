//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const tfoSysctlPath = "/proc/sys/net/ipv4/tcp_fastopen"

// TCPFastOpen probes and enables TCP Fast Open through the net.ipv4.tcp_fastopen sysctl.
type TCPFastOpen struct {
	path    string
	release string
}

func newTCPFastOpen() *TCPFastOpen {
	return &TCPFastOpen{path: tfoSysctlPath, release: OSVersion()}
}

func (p *TCPFastOpen) Supported() bool {
	if !kernelSupportsTFO(p.release) {
		return false
	}
	_, err := os.Stat(p.path)

	return err == nil
}

// Enabled reports whether outgoing TFO connections are allowed.
func (p *TCPFastOpen) Enabled() bool {
	value, err := p.read()
	if err != nil {
		return false
	}

	return value&tfoClientBit != 0
}

// Enable turns on client and server TFO. It needs write access to the sysctl,
// which usually means root.
func (p *TCPFastOpen) Enable() string {
	value := tfoClientBit | tfoServerBit
	if current, err := p.read(); err == nil {
		value |= current
	}
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(value)+"\n"), 0o644); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Sprintf("Permission denied writing %s, run: sysctl -w net.ipv4.tcp_fastopen=%d", p.path, value)
		}

		return err.Error()
	}

	return ""
}

func (p *TCPFastOpen) read() (int, error) {
	// #nosec G304 -- fixed sysctl path or a test fixture.
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", p.path, err)
	}

	return value, nil
}
