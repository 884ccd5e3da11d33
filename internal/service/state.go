package service

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the transport strategy used by the background service.
type Mode string

const (
	ModeProxy      Mode = "proxy"
	ModeVPN        Mode = "vpn"
	ModeTransproxy Mode = "transproxy"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{ModeProxy, ModeVPN, ModeTransproxy}

// InvalidModeError reports a mode value outside the closed Mode set.
// It indicates corrupted input and should not be recovered from.
type InvalidModeError struct {
	Value string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid service mode: %q", e.Value)
}

func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.TrimSpace(raw))
	if err := mode.Validate(); err != nil {
		return "", err
	}

	return mode, nil
}

func (m Mode) Validate() error {
	switch m {
	case ModeProxy, ModeVPN, ModeTransproxy:
		return nil
	default:
		return &InvalidModeError{Value: string(m)}
	}
}

// State is the lifecycle state of the background service.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateConnected
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateConnected:
		return "connected"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateEvent is a bus snapshot of a service state transition.
type StateEvent struct {
	State     State
	Mode      Mode
	Err       string
	Timestamp time.Time
}

const TopicState = "service.state"
