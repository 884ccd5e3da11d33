package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"fyne.io/fyne/v2"

	"github.com/skobkin/sockgo/internal/service"
)

// ErrAlreadyActive is returned by Activate when the binder already holds a subscription.
var ErrAlreadyActive = errors.New("binder is already active")

// MissingControlError is returned by NewBinder when a required control handle is absent.
type MissingControlError struct {
	Control string
}

func (e *MissingControlError) Error() string {
	return fmt.Sprintf("settings control %q is missing", e.Control)
}

// Controls holds every control the binder drives.
type Controls struct {
	ModeSelector   fyne.Disableable
	ProxyPort      fyne.Disableable
	LocalDNSPort   fyne.Disableable
	TransproxyPort fyne.Disableable
	Hosts          fyne.Disableable
	Capability     fyne.Disableable
}

// StateChannel is the source of service state transitions.
type StateChannel interface {
	CurrentState() service.State
	Subscribe(callback func(service.State)) (*service.Subscription, error)
	Unsubscribe(sub *service.Subscription)
}

type BinderConfig struct {
	Controls Controls
	Channel  StateChannel
	// ModeSource returns the persisted mode at the instant it is called.
	ModeSource func() (service.Mode, error)
	// CapabilityLocked keeps the capability control disabled for good.
	CapabilityLocked bool
	// OnFatal receives resolution errors raised from state events.
	OnFatal func(error)
	Logger  *slog.Logger
}

// Binder applies resolved enablement to the settings controls for the
// lifetime of one settings screen. All methods must be called on the UI
// goroutine.
type Binder struct {
	controls         Controls
	channel          StateChannel
	modeSource       func() (service.Mode, error)
	capabilityLocked bool
	onFatal          func(error)
	logger           *slog.Logger

	sub       *service.Subscription
	lastState service.State
}

func NewBinder(cfg BinderConfig) (*Binder, error) {
	required := []struct {
		name    string
		control fyne.Disableable
	}{
		{"serviceMode", cfg.Controls.ModeSelector},
		{"portProxy", cfg.Controls.ProxyPort},
		{"portLocalDns", cfg.Controls.LocalDNSPort},
		{"portTransproxy", cfg.Controls.TransproxyPort},
		{"hosts", cfg.Controls.Hosts},
		{"tcp_fastopen", cfg.Controls.Capability},
	}
	for _, item := range required {
		if isNilControl(item.control) {
			return nil, &MissingControlError{Control: item.name}
		}
	}
	if cfg.Channel == nil {
		return nil, errors.New("state channel is required")
	}
	if cfg.ModeSource == nil {
		return nil, errors.New("mode source is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onFatal := cfg.OnFatal
	if onFatal == nil {
		onFatal = func(err error) {
			logger.Error("settings enablement failed", "error", err)
			panic(err)
		}
	}

	return &Binder{
		controls:         cfg.Controls,
		channel:          cfg.Channel,
		modeSource:       cfg.ModeSource,
		capabilityLocked: cfg.CapabilityLocked,
		onFatal:          onFatal,
		logger:           logger,
		lastState:        service.StateStopped,
	}, nil
}

// Activate registers with the state channel and applies the current state
// right away. If the initial resolve fails the subscription stays owned by
// the binder and is released by Deactivate.
func (b *Binder) Activate() error {
	if b.sub != nil {
		return ErrAlreadyActive
	}
	sub, err := b.channel.Subscribe(b.onState)
	if err != nil {
		return fmt.Errorf("subscribe to service state: %w", err)
	}
	b.sub = sub
	b.logger.Debug("settings binder activated")

	return b.resolveAndApply(b.channel.CurrentState())
}

// Deactivate releases the subscription. It is a no-op when the binder is not active.
func (b *Binder) Deactivate() {
	if b.sub == nil {
		return
	}
	sub := b.sub
	b.sub = nil
	b.channel.Unsubscribe(sub)
	b.logger.Debug("settings binder deactivated")
}

// Active reports whether the binder currently holds a subscription.
func (b *Binder) Active() bool {
	return b.sub != nil
}

// LastState returns the most recently applied service state.
func (b *Binder) LastState() service.State {
	return b.lastState
}

// ModeChanged applies the mode rule after a user edit of the mode selector.
// It is ignored unless the last observed state is Stopped.
func (b *Binder) ModeChanged(mode service.Mode) error {
	if b.lastState != service.StateStopped {
		b.logger.Debug("ignoring mode change while service is active", "mode", mode, "state", b.lastState)

		return nil
	}
	dependents, err := DependentsForMode(mode)
	if err != nil {
		return err
	}
	b.applyDependents(dependents)

	return nil
}

func (b *Binder) onState(state service.State) {
	if b.sub == nil {
		return
	}
	if err := b.resolveAndApply(state); err != nil {
		b.onFatal(err)
	}
}

func (b *Binder) resolveAndApply(state service.State) error {
	mode, err := b.modeSource()
	if err != nil {
		return fmt.Errorf("read service mode: %w", err)
	}
	enablement, err := Resolve(mode, state)
	if err != nil {
		return err
	}
	b.lastState = state
	b.apply(enablement)
	b.logger.Debug("settings enablement applied", "mode", mode, "state", state, "enablement", fmt.Sprintf("%+v", enablement))

	return nil
}

func (b *Binder) apply(e Enablement) {
	setEnabled(b.controls.ModeSelector, e.ModeSelector)
	setEnabled(b.controls.ProxyPort, e.ProxyPort)
	setEnabled(b.controls.Capability, e.Capability && !b.capabilityLocked)
	b.applyDependents(e.Dependents)
}

func (b *Binder) applyDependents(d Dependents) {
	setEnabled(b.controls.Hosts, d.Hosts)
	setEnabled(b.controls.LocalDNSPort, d.LocalDNS)
	setEnabled(b.controls.TransproxyPort, d.Transproxy)
}

func setEnabled(control fyne.Disableable, enabled bool) {
	if enabled {
		control.Enable()
		return
	}
	control.Disable()
}

func isNilControl(control fyne.Disableable) bool {
	if control == nil {
		return true
	}
	v := reflect.ValueOf(control)

	return v.Kind() == reflect.Pointer && v.IsNil()
}
