//go:build windows

package platform

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// mutexInstanceLock holds a per-user named mutex for the process lifetime.
type mutexInstanceLock struct {
	handle windows.Handle
}

func acquireInstanceLock(name string) (InstanceLock, error) {
	user, err := windows.GetCurrentProcessToken().GetTokenUser()
	if err != nil {
		return nil, fmt.Errorf("read process token user: %w", err)
	}

	mutexName, err := windows.UTF16PtrFromString(`Local\` + name + "-" + lockName(user.User.Sid.String()))
	if err != nil {
		return nil, fmt.Errorf("encode mutex name: %w", err)
	}

	handle, err := windows.CreateMutex(nil, false, mutexName)
	switch {
	case errors.Is(err, windows.ERROR_ALREADY_EXISTS):
		closeMutex(handle)

		return nil, ErrInstanceAlreadyRunning
	case err != nil:
		closeMutex(handle)

		return nil, fmt.Errorf("create instance mutex: %w", err)
	}

	return &mutexInstanceLock{handle: handle}, nil
}

func (l *mutexInstanceLock) Release() error {
	if l == nil || l.handle == 0 {
		return nil
	}
	handle := l.handle
	l.handle = 0
	if err := windows.CloseHandle(handle); err != nil {
		return fmt.Errorf("close instance mutex: %w", err)
	}

	return nil
}

func closeMutex(handle windows.Handle) {
	if handle != 0 {
		_ = windows.CloseHandle(handle)
	}
}
