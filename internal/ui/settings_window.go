package ui

import (
	"errors"

	"fyne.io/fyne/v2"

	"github.com/skobkin/sockgo/internal/service"
)

// settingsWindow keeps at most one settings window open and ties the binder
// lifetime to the window lifetime.
type settingsWindow struct {
	fyApp fyne.App
	dep   RuntimeDependencies
	hooks resolvedHooks

	window fyne.Window
	screen *settingsScreen
}

func newSettingsWindow(fyApp fyne.App, dep RuntimeDependencies) *settingsWindow {
	return &settingsWindow{
		fyApp: fyApp,
		dep:   dep,
		hooks: resolveHooks(dep.UIHooks),
	}
}

// Open shows the settings window, focusing it when already open.
func (w *settingsWindow) Open() {
	if w.window != nil {
		w.window.Show()
		w.window.RequestFocus()

		return
	}

	window := w.fyApp.NewWindow("Settings")
	window.Resize(fyne.NewSize(480, 560))
	screen, err := newSettingsScreen(w.dep, func() fyne.Window { return window })
	if err != nil {
		window.Close()
		w.reportOpenError(err)

		return
	}
	window.SetContent(screen.content)
	window.SetOnClosed(func() {
		appLogger.Debug("settings window closed")
		screen.Close()
		if w.window == window {
			w.window = nil
			w.screen = nil
		}
	})
	w.window = window
	w.screen = screen

	if err := screen.Open(); err != nil {
		window.Close()
		w.reportOpenError(err)

		return
	}
	window.Show()
}

// Close closes the window if it is open.
func (w *settingsWindow) Close() {
	if w.window != nil {
		w.window.Close()
	}
}

func (w *settingsWindow) reportOpenError(err error) {
	var invalidMode *service.InvalidModeError
	if errors.As(err, &invalidMode) {
		w.hooks.onFatal(err)

		return
	}
	appLogger.Error("open settings window", "error", err)
	w.hooks.showErrorDialog(err, w.hooks.currentWindow())
}
