package ui

import (
	"fyne.io/fyne/v2"

	sockapp "github.com/skobkin/sockgo/internal/app"
	"github.com/skobkin/sockgo/internal/service"
)

// serviceNotifier posts a desktop notification when the service comes up or
// goes down. The initial state is not announced.
type serviceNotifier struct {
	send func(*fyne.Notification)
	last service.State
}

func newServiceNotifier(fyApp fyne.App, initial service.State) *serviceNotifier {
	n := &serviceNotifier{last: initial}
	if fyApp != nil {
		n.send = fyApp.SendNotification
	}

	return n
}

func (n *serviceNotifier) OnState(state service.State) {
	prev := n.last
	n.last = state
	if n.send == nil || prev == state {
		return
	}

	switch {
	case state == service.StateConnected:
		n.send(fyne.NewNotification(sockapp.Name, "Service connected"))
	case state == service.StateStopped && prev != service.StateStopping:
		n.send(fyne.NewNotification(sockapp.Name, "Service stopped unexpectedly"))
	case state == service.StateStopped:
		n.send(fyne.NewNotification(sockapp.Name, "Service disconnected"))
	}
}

// startServiceNotifications wires a serviceNotifier to the state channel.
func startServiceNotifications(dep RuntimeDependencies, fyApp fyne.App) func() {
	initial := service.StateStopped
	if dep.Data.States != nil {
		initial = dep.Data.States.CurrentState()
	}
	notifier := newServiceNotifier(fyApp, initial)
	stop, err := startStateListener(dep.Data.States, notifier.OnState)
	if err != nil {
		appLogger.Warn("start service notifications", "error", err)

		return func() {}
	}

	return stop
}
