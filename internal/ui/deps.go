package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"

	"github.com/skobkin/sockgo/internal/prefs"
	"github.com/skobkin/sockgo/internal/settings"
)

type DataDependencies struct {
	Prefs  *prefs.Store
	States settings.StateChannel
}

type ActionDependencies struct {
	OnToggleService      func() error
	// AutoConnectEnabled loads the login check box; nil falls back to prefs.
	AutoConnectEnabled   func() (bool, error)
	OnSetAutoConnect     func(enabled bool) error
	OnSetDirectBootAware func(enabled bool) error
	OnQuit               func()
}

type PlatformDependencies struct {
	TCPFastOpen settings.CapabilityProbe
	OSVersion   string
}

type UIHooks struct {
	CurrentWindow   func() fyne.Window
	RunOnUI         func(func())
	RunAsync        func(func())
	OnFatal         func(error)
	ShowFileOpen    func(window fyne.Window, onPicked func(fyne.URIReadCloser, error))
	ShowErrorDialog func(err error, window fyne.Window)
}

type LaunchOptions struct {
	StartHidden bool
}

type RuntimeDependencies struct {
	Data     DataDependencies
	Actions  ActionDependencies
	Platform PlatformDependencies
	UIHooks  UIHooks
	Launch   LaunchOptions
	Logger   *slog.Logger
}
