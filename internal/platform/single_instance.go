package platform

import (
	"errors"
	"strings"
)

// ErrInstanceAlreadyRunning means another process owns the service ports already.
var ErrInstanceAlreadyRunning = errors.New("instance already running")

// ErrInstanceLockUnsupported means the platform has no lock backend.
var ErrInstanceLockUnsupported = errors.New("instance lock unsupported")

type InstanceLock interface {
	Release() error
}

// AcquireInstanceLock makes sure only one process drives the background service.
func AcquireInstanceLock(appID string) (InstanceLock, error) {
	return acquireInstanceLock(lockName(appID))
}

func lockName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "app"
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_-.")
	if name == "" {
		return "app"
	}

	return name
}
