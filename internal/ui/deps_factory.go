package ui

import (
	"fyne.io/fyne/v2"

	sockapp "github.com/skobkin/sockgo/internal/app"
	"github.com/skobkin/sockgo/internal/logging"
	"github.com/skobkin/sockgo/internal/platform"
)

func BuildRuntimeDependencies(rt *sockapp.Runtime, launch LaunchOptions, onQuit func()) RuntimeDependencies {
	dep := RuntimeDependencies{
		Launch: launch,
		Actions: ActionDependencies{
			OnQuit: onQuit,
		},
		Platform: PlatformDependencies{
			OSVersion: platform.OSVersion(),
		},
	}

	if rt == nil {
		return dep
	}

	dep.Logger = rt.LogManager.Logger(logging.ComponentUI)
	dep.Data = DataDependencies{
		Prefs:  rt.Prefs,
		States: rt.StateChannel(fyne.Do),
	}
	dep.Platform.TCPFastOpen = rt.TCPFastOpen

	dep.Actions.OnToggleService = rt.ToggleService
	dep.Actions.AutoConnectEnabled = rt.AutoConnectEnabled
	dep.Actions.OnSetAutoConnect = rt.SetAutoConnect
	dep.Actions.OnSetDirectBootAware = rt.SetDirectBootAware

	return dep
}
