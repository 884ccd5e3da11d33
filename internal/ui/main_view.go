package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	sockapp "github.com/skobkin/sockgo/internal/app"
	"github.com/skobkin/sockgo/internal/service"
)

type mainView struct {
	content        fyne.CanvasObject
	status         *widget.Label
	message        *widget.Label
	serviceButton  *widget.Button
	settingsButton *widget.Button

	stop func()
}

func buildMainView(dep RuntimeDependencies, openSettings func()) (*mainView, error) {
	hooks := resolveHooks(dep.UIHooks)

	v := &mainView{
		status:  widget.NewLabel(""),
		message: widget.NewLabel(""),
	}
	v.message.Wrapping = fyne.TextWrapWord
	v.serviceButton = widget.NewButton("Connect", func() {
		if dep.Actions.OnToggleService == nil {
			return
		}
		v.serviceButton.Disable()
		hooks.runAsync(func() {
			err := dep.Actions.OnToggleService()
			hooks.runOnUI(func() {
				if err != nil {
					appLogger.Warn("toggle service", "error", err)
					v.message.SetText("Service error: " + err.Error())
				} else {
					v.message.SetText("")
				}
				if dep.Data.States != nil {
					v.applyState(dep.Data.States.CurrentState())
				} else {
					v.serviceButton.Enable()
				}
			})
		})
	})
	v.settingsButton = widget.NewButton("Settings", func() {
		if openSettings != nil {
			openSettings()
		}
	})

	initial := service.StateStopped
	if dep.Data.States != nil {
		initial = dep.Data.States.CurrentState()
	}
	v.applyState(initial)

	stop, err := startStateListener(dep.Data.States, v.applyState)
	if err != nil {
		return nil, fmt.Errorf("listen for service state: %w", err)
	}
	v.stop = stop

	v.content = container.NewVBox(
		v.status,
		container.NewHBox(v.serviceButton, v.settingsButton, layout.NewSpacer()),
		v.message,
		layout.NewSpacer(),
		widget.NewLabel(sockapp.Banner()),
	)

	return v, nil
}

func (v *mainView) applyState(state service.State) {
	v.status.SetText(formatServiceState(state))
	v.serviceButton.SetText(serviceButtonText(state))
	switch state {
	case service.StateStopped, service.StateConnected:
		v.serviceButton.Enable()
	default:
		v.serviceButton.Disable()
	}
}

func (v *mainView) Stop() {
	if v.stop != nil {
		v.stop()
	}
}

func formatServiceState(state service.State) string {
	return fmt.Sprintf("Service: %s", state)
}

func serviceButtonText(state service.State) string {
	switch state {
	case service.StateStarting:
		return "Connecting..."
	case service.StateConnected:
		return "Disconnect"
	case service.StateStopping:
		return "Disconnecting..."
	default:
		return "Connect"
	}
}
