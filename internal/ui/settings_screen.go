package ui

import (
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	sockapp "github.com/skobkin/sockgo/internal/app"
	"github.com/skobkin/sockgo/internal/prefs"
	"github.com/skobkin/sockgo/internal/service"
	"github.com/skobkin/sockgo/internal/settings"
)

const (
	modeOptionProxy      = "Proxy"
	modeOptionVPN        = "VPN"
	modeOptionTransproxy = "Transparent proxy"

	placeholderPortProxy      = "SOCKS5 port"
	placeholderPortLocalDNS   = "Local DNS port"
	placeholderPortTransproxy = "Transparent proxy port"

	hostsImportButtonText = "Import hosts..."
	autoConnectCheckText  = "Connect on login"
	directBootCheckText   = "Start in background"
)

var modeOptions = []string{modeOptionProxy, modeOptionVPN, modeOptionTransproxy}

// settingsScreen is the settings window content. Open and Close bracket its
// visible lifetime; the binder is only subscribed in between.
type settingsScreen struct {
	content fyne.CanvasObject
	binder  *settings.Binder
	hooks   resolvedHooks
	window  func() fyne.Window

	store    *prefs.Store
	importer settings.HostsImporter

	status         *widget.Label
	modeSelect     *widget.Select
	proxyPort      *widget.Entry
	localDNSPort   *widget.Entry
	transproxyPort *widget.Entry
	hosts          *hostsEditor
	capability     *capabilityCheck
	autoConnect    *widget.Check
	directBoot     *widget.Check
}

func newSettingsScreen(dep RuntimeDependencies, window func() fyne.Window) (*settingsScreen, error) {
	store := dep.Data.Prefs
	if store == nil {
		return nil, errors.New("preferences store is not configured")
	}
	if dep.Platform.TCPFastOpen == nil {
		return nil, errors.New("tcp fast open probe is not configured")
	}
	hooks := resolveHooks(dep.UIHooks)
	if window == nil {
		window = hooks.currentWindow
	}

	s := &settingsScreen{
		hooks:    hooks,
		window:   window,
		store:    store,
		importer: settings.HostsImporter{Store: store},
		status:   widget.NewLabel(""),
	}
	s.status.Wrapping = fyne.TextWrapWord

	mode, err := store.ServiceMode()
	if err != nil {
		return nil, err
	}
	s.modeSelect = widget.NewSelect(modeOptions, nil)
	s.modeSelect.SetSelected(modeOptionFromMode(mode))
	s.modeSelect.OnChanged = s.onModeSelected

	if s.proxyPort, err = s.newPortEntry(placeholderPortProxy, store.PortProxy, store.SetPortProxy); err != nil {
		return nil, err
	}
	if s.localDNSPort, err = s.newPortEntry(placeholderPortLocalDNS, store.PortLocalDNS, store.SetPortLocalDNS); err != nil {
		return nil, err
	}
	if s.transproxyPort, err = s.newPortEntry(placeholderPortTransproxy, store.PortTransproxy, store.SetPortTransproxy); err != nil {
		return nil, err
	}

	hosts, err := store.Hosts()
	if err != nil {
		return nil, err
	}
	s.hosts = newHostsEditor(hosts, store.SetHosts, s.notify, s.onImportHosts)

	tfoStored, err := store.TCPFastOpen()
	if err != nil {
		return nil, err
	}
	toggle := settings.NewCapabilityToggle(dep.Platform.TCPFastOpen, dep.Platform.OSVersion, tfoStored, appLogger)
	s.capability = newCapabilityCheck(toggle, store.SetTCPFastOpen, s.notify, hooks.runOnUI, hooks.runAsync)

	loadAutoConnect := dep.Actions.AutoConnectEnabled
	if loadAutoConnect == nil {
		loadAutoConnect = store.AutoConnect
	}
	if s.autoConnect, err = s.newActionCheck(autoConnectCheckText, loadAutoConnect, dep.Actions.OnSetAutoConnect); err != nil {
		return nil, err
	}
	if s.directBoot, err = s.newActionCheck(directBootCheckText, store.DirectBootAware, dep.Actions.OnSetDirectBootAware); err != nil {
		return nil, err
	}

	s.binder, err = settings.NewBinder(settings.BinderConfig{
		Controls: settings.Controls{
			ModeSelector:   s.modeSelect,
			ProxyPort:      s.proxyPort,
			LocalDNSPort:   s.localDNSPort,
			TransproxyPort: s.transproxyPort,
			Hosts:          s.hosts,
			Capability:     s.capability.check,
		},
		Channel:          dep.Data.States,
		ModeSource:       store.ServiceMode,
		CapabilityLocked: !toggle.Editable(),
		OnFatal:          hooks.onFatal,
		Logger:           appLogger,
	})
	if err != nil {
		return nil, err
	}

	serviceForm := widget.NewForm(
		widget.NewFormItem("Mode", s.modeSelect),
		widget.NewFormItem("SOCKS5 port", s.proxyPort),
		widget.NewFormItem("Local DNS port", s.localDNSPort),
		widget.NewFormItem("Transparent proxy port", s.transproxyPort),
		widget.NewFormItem("Hosts", s.hosts.content),
	)
	networkBlock := widget.NewCard("Network", "", container.NewVBox(
		s.capability.check,
		s.capability.summary,
	))
	startupBlock := widget.NewCard("Startup", "", container.NewVBox(
		s.autoConnect,
		s.directBoot,
	))
	s.content = container.NewVScroll(container.NewVBox(
		widget.NewCard("Service", "", serviceForm),
		networkBlock,
		startupBlock,
		s.status,
	))

	return s, nil
}

// Open subscribes the binder and applies the current enablement.
func (s *settingsScreen) Open() error {
	return s.binder.Activate()
}

// Close releases the binder subscription. Safe to call more than once.
func (s *settingsScreen) Close() {
	s.binder.Deactivate()
}

func (s *settingsScreen) notify(message string) {
	s.status.SetText(message)
}

func (s *settingsScreen) onModeSelected(value string) {
	mode, ok := modeFromOption(value)
	if !ok {
		return
	}
	if err := s.store.SetServiceMode(mode); err != nil {
		appLogger.Warn("save service mode", "error", err)
		s.notify("Failed to save mode: " + err.Error())

		return
	}
	if err := s.binder.ModeChanged(mode); err != nil {
		s.hooks.onFatal(err)
	}
}

func (s *settingsScreen) newPortEntry(placeholder string, load func() (int, error), save func(int) error) (*widget.Entry, error) {
	port, err := load()
	if err != nil {
		return nil, err
	}

	entry := widget.NewEntry()
	entry.SetPlaceHolder(placeholder)
	entry.SetText(strconv.Itoa(port))
	entry.Validator = func(text string) error {
		_, err := prefs.ParsePort(text)
		return err
	}
	entry.OnChanged = func(text string) {
		port, err := prefs.ParsePort(text)
		if err != nil {
			return
		}
		if err := save(port); err != nil {
			appLogger.Warn("save port", "placeholder", placeholder, "error", err)
			s.notify(fmt.Sprintf("Failed to save %s: %v", placeholder, err))
		}
	}

	return entry, nil
}

// newActionCheck builds a check box that is saved through an app action.
// Hard failures revert the box; an autostart warning keeps it and is reported.
func (s *settingsScreen) newActionCheck(text string, load func() (bool, error), apply func(bool) error) (*widget.Check, error) {
	value, err := load()
	if err != nil {
		return nil, err
	}

	check := widget.NewCheck(text, nil)
	check.SetChecked(value)

	reverting := false
	check.OnChanged = func(enabled bool) {
		if reverting || apply == nil {
			return
		}
		err := apply(enabled)
		var warning *sockapp.AutostartSyncWarning
		switch {
		case err == nil:
			s.notify("")
		case errors.As(err, &warning):
			s.notify("Saved, but " + warning.Error())
		default:
			appLogger.Warn("apply setting", "setting", text, "error", err)
			s.notify(fmt.Sprintf("Failed to save %q: %v", text, err))
			reverting = true
			check.SetChecked(!enabled)
			reverting = false
		}
	}

	return check, nil
}

func (s *settingsScreen) onImportHosts() {
	window := s.window()
	if window == nil {
		s.notify("Import hosts failed: active window is unavailable")

		return
	}

	s.hooks.showFileOpen(window, func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			s.notify("Import hosts failed: " + err.Error())

			return
		}
		if reader == nil {
			return
		}

		s.hooks.runAsync(func() {
			text, importErr := s.importer.Import(reader)
			s.hooks.runOnUI(func() {
				if importErr != nil {
					appLogger.Warn("import hosts", "error", importErr)
					s.notify(importErr.Error())

					return
				}
				s.hosts.Load(text)
				s.notify("Hosts imported")
			})
		})
	})
}

func modeOptionFromMode(mode service.Mode) string {
	switch mode {
	case service.ModeProxy:
		return modeOptionProxy
	case service.ModeTransproxy:
		return modeOptionTransproxy
	default:
		return modeOptionVPN
	}
}

func modeFromOption(value string) (service.Mode, bool) {
	switch value {
	case modeOptionProxy:
		return service.ModeProxy, true
	case modeOptionVPN:
		return service.ModeVPN, true
	case modeOptionTransproxy:
		return service.ModeTransproxy, true
	default:
		return "", false
	}
}
