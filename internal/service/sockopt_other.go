//go:build !linux

package service

import "syscall"

func tcpFastOpenControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
