package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"

	sockapp "github.com/skobkin/sockgo/internal/app"
)

var appLogger = slog.With("component", "ui")

var newFyneApp = func() fyne.App {
	return fyneapp.NewWithID("io.github.skobkin.sockgo")
}

func Run(dep RuntimeDependencies) error {
	return runWithApp(dep, newFyneApp())
}

func runWithApp(dep RuntimeDependencies, fyApp fyne.App) error {
	if dep.Logger != nil {
		appLogger = dep.Logger
	}
	fyApp.SetIcon(theme.ComputerIcon())
	appLogger.Info("starting UI runtime", "start_hidden", dep.Launch.StartHidden)

	window := fyApp.NewWindow(sockapp.Name)
	window.Resize(fyne.NewSize(420, 220))

	settingsWin := newSettingsWindow(fyApp, dep)
	view, err := buildMainView(dep, settingsWin.Open)
	if err != nil {
		return fmt.Errorf("build main view: %w", err)
	}
	window.SetContent(view.content)

	stopNotifications := startServiceNotifications(dep, fyApp)

	uiRuntime := newUIRuntime(fyApp, window, dep.Actions.OnQuit, stopNotifications, view.Stop, settingsWin.Close)
	uiRuntime.BindCloseIntercept()

	configureSystemTray(fyApp, window, trayActions{
		ToggleService: view.serviceButton.OnTapped,
		OpenSettings:  settingsWin.Open,
		Quit:          uiRuntime.Quit,
	})

	uiRuntime.Run(dep.Launch.StartHidden)

	return nil
}
