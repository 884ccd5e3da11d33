package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

// resolvedHooks is UIHooks with every hook populated.
type resolvedHooks struct {
	currentWindow   func() fyne.Window
	runOnUI         func(func())
	runAsync        func(func())
	onFatal         func(error)
	showFileOpen    func(window fyne.Window, onPicked func(fyne.URIReadCloser, error))
	showErrorDialog func(err error, window fyne.Window)
}

func resolveHooks(h UIHooks) resolvedHooks {
	r := resolvedHooks{
		currentWindow:   h.CurrentWindow,
		runOnUI:         h.RunOnUI,
		runAsync:        h.RunAsync,
		onFatal:         h.OnFatal,
		showFileOpen:    h.ShowFileOpen,
		showErrorDialog: h.ShowErrorDialog,
	}
	if r.currentWindow == nil {
		r.currentWindow = currentWindow
	}
	if r.runOnUI == nil {
		r.runOnUI = fyne.Do
	}
	if r.runAsync == nil {
		r.runAsync = func(fn func()) {
			go fn()
		}
	}
	if r.onFatal == nil {
		r.onFatal = func(err error) {
			appLogger.Error("fatal settings error", "error", err)
			panic(err)
		}
	}
	if r.showFileOpen == nil {
		r.showFileOpen = func(window fyne.Window, onPicked func(fyne.URIReadCloser, error)) {
			dialog.ShowFileOpen(onPicked, window)
		}
	}
	if r.showErrorDialog == nil {
		r.showErrorDialog = dialog.ShowError
	}

	return r
}

func currentWindow() fyne.Window {
	currentApp := fyne.CurrentApp()
	if currentApp == nil || currentApp.Driver() == nil {
		return nil
	}
	windows := currentApp.Driver().AllWindows()
	if len(windows) == 0 {
		return nil
	}

	return windows[0]
}
