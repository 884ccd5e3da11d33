//go:build linux

package service

import (
	"syscall"

	"golang.org/x/sys/unix"
)

const tcpFastOpenQueueLen = 16

func tcpFastOpenControl(network, _ string, c syscall.RawConn) error {
	if network != "tcp" && network != "tcp4" && network != "tcp6" {
		return nil
	}
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_FASTOPEN, tcpFastOpenQueueLen)
	}); err != nil {
		return err
	}

	return sockErr
}
