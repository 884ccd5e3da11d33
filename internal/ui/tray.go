package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	sockapp "github.com/skobkin/sockgo/internal/app"
)

type trayActions struct {
	ToggleService func()
	OpenSettings  func()
	Quit          func()
}

// configureSystemTray installs the tray menu and reports whether the app supports one.
func configureSystemTray(fyApp fyne.App, window fyne.Window, actions trayActions) bool {
	desk, ok := fyApp.(desktop.App)
	if !ok {
		return false
	}

	desk.SetSystemTrayIcon(theme.ComputerIcon())
	desk.SetSystemTrayMenu(fyne.NewMenu(sockapp.Name,
		fyne.NewMenuItem("Show", func() {
			appLogger.Debug("system tray show action invoked")
			window.Show()
			window.RequestFocus()
		}),
		fyne.NewMenuItem("Connect / Disconnect", func() {
			appLogger.Debug("system tray service toggle invoked")
			if actions.ToggleService != nil {
				actions.ToggleService()
			}
		}),
		fyne.NewMenuItem("Settings", func() {
			if actions.OpenSettings != nil {
				actions.OpenSettings()
			}
		}),
		fyne.NewMenuItem("Quit", func() {
			appLogger.Debug("system tray quit action invoked")
			if actions.Quit != nil {
				actions.Quit()
			}
		}),
	))

	return true
}
