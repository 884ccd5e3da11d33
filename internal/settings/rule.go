package settings

import "github.com/skobkin/sockgo/internal/service"

// Dependents is the availability of the options that follow the service mode.
// Hosts and LocalDNS always match; they bind to two different controls.
type Dependents struct {
	Hosts      bool
	LocalDNS   bool
	Transproxy bool
}

// DependentsForMode maps a mode to its dependent option availability.
func DependentsForMode(mode service.Mode) (Dependents, error) {
	switch mode {
	case service.ModeProxy:
		return Dependents{}, nil
	case service.ModeVPN:
		return Dependents{Hosts: true, LocalDNS: true}, nil
	case service.ModeTransproxy:
		return Dependents{Hosts: true, LocalDNS: true, Transproxy: true}, nil
	default:
		return Dependents{}, &service.InvalidModeError{Value: string(mode)}
	}
}
