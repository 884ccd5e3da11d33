package settings

import "github.com/skobkin/sockgo/internal/service"

// Enablement is the final editable state of every mode-bound control.
type Enablement struct {
	Dependents

	ModeSelector bool
	Capability   bool
	ProxyPort    bool
}

// Resolve combines the mode rule with the service lifecycle. Anything other
// than a fully stopped service locks every control regardless of mode.
func Resolve(mode service.Mode, state service.State) (Enablement, error) {
	dependents, err := DependentsForMode(mode)
	if err != nil {
		return Enablement{}, err
	}
	if state != service.StateStopped {
		return Enablement{}, nil
	}

	return Enablement{
		Dependents:   dependents,
		ModeSelector: true,
		Capability:   true,
		ProxyPort:    true,
	}, nil
}
