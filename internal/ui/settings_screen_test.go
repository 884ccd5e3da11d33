package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	fynetest "fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"

	sockapp "github.com/skobkin/sockgo/internal/app"
	"github.com/skobkin/sockgo/internal/prefs"
	"github.com/skobkin/sockgo/internal/service"
)

type settingsFixture struct {
	t       *testing.T
	store   *prefs.Store
	channel *fakeStateChannel
	probe   *fakeProbe
	dep     RuntimeDependencies
	fatal   []error
	picked  fyne.URIReadCloser
	app     fyne.App
	window  fyne.Window
}

func newSettingsFixture(t *testing.T) *settingsFixture {
	t.Helper()

	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	f := &settingsFixture{
		t:       t,
		store:   prefs.New(prefs.NewMemoryKV()),
		channel: newFakeStateChannel(service.StateStopped),
		probe:   &fakeProbe{supported: true},
		app:     app,
		window:  app.NewWindow("settings"),
	}
	f.dep = RuntimeDependencies{
		Data: DataDependencies{
			Prefs:  f.store,
			States: f.channel,
		},
		Platform: PlatformDependencies{
			TCPFastOpen: f.probe,
			OSVersion:   "6.1.0",
		},
		UIHooks: UIHooks{
			RunOnUI:  func(fn func()) { fn() },
			RunAsync: func(fn func()) { fn() },
			OnFatal:  func(err error) { f.fatal = append(f.fatal, err) },
			ShowFileOpen: func(_ fyne.Window, onPicked func(fyne.URIReadCloser, error)) {
				onPicked(f.picked, nil)
			},
			ShowErrorDialog: func(error, fyne.Window) {},
		},
	}

	return f
}

func (f *settingsFixture) open() *settingsScreen {
	f.t.Helper()

	screen, err := newSettingsScreen(f.dep, func() fyne.Window { return f.window })
	if err != nil {
		f.t.Fatalf("new settings screen: %v", err)
	}
	f.window.SetContent(screen.content)
	if err := screen.Open(); err != nil {
		f.t.Fatalf("open settings screen: %v", err)
	}
	f.t.Cleanup(screen.Close)

	return screen
}

type enabledSnapshot struct {
	mode, proxy, localDNS, transproxy, hosts, capability bool
}

func snapshotEnabled(s *settingsScreen) enabledSnapshot {
	return enabledSnapshot{
		mode:       !s.modeSelect.Disabled(),
		proxy:      !s.proxyPort.Disabled(),
		localDNS:   !s.localDNSPort.Disabled(),
		transproxy: !s.transproxyPort.Disabled(),
		hosts:      !s.hosts.Disabled(),
		capability: !s.capability.check.Disabled(),
	}
}

func TestSettingsScreenAppliesModeRuleWhenStopped(t *testing.T) {
	f := newSettingsFixture(t)
	if err := f.store.SetServiceMode(service.ModeProxy); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	screen := f.open()

	got := snapshotEnabled(screen)
	want := enabledSnapshot{mode: true, proxy: true, capability: true}
	if got != want {
		t.Fatalf("proxy mode enablement = %+v, want %+v", got, want)
	}

	selectWidget := mustFindSelectWithOption(t, screen.content, modeOptionTransproxy)
	selectWidget.SetSelected(modeOptionTransproxy)

	got = snapshotEnabled(screen)
	want = enabledSnapshot{mode: true, proxy: true, localDNS: true, transproxy: true, hosts: true, capability: true}
	if got != want {
		t.Fatalf("transproxy mode enablement = %+v, want %+v", got, want)
	}
	mode, err := f.store.ServiceMode()
	if err != nil || mode != service.ModeTransproxy {
		t.Fatalf("expected stored transproxy mode, got %q, %v", mode, err)
	}

	selectWidget.SetSelected(modeOptionVPN)
	got = snapshotEnabled(screen)
	want = enabledSnapshot{mode: true, proxy: true, localDNS: true, hosts: true, capability: true}
	if got != want {
		t.Fatalf("vpn mode enablement = %+v, want %+v", got, want)
	}
	if len(f.fatal) != 0 {
		t.Fatalf("unexpected fatal errors: %v", f.fatal)
	}
}

func TestSettingsScreenLocksEverythingWhileServiceRuns(t *testing.T) {
	f := newSettingsFixture(t)
	if err := f.store.SetServiceMode(service.ModeTransproxy); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	screen := f.open()

	for _, state := range []service.State{service.StateStarting, service.StateConnected, service.StateStopping} {
		f.channel.emit(state)
		if got := snapshotEnabled(screen); got != (enabledSnapshot{}) {
			t.Fatalf("state %s: expected all controls locked, got %+v", state, got)
		}
	}

	f.channel.emit(service.StateStopped)
	want := enabledSnapshot{mode: true, proxy: true, localDNS: true, transproxy: true, hosts: true, capability: true}
	if got := snapshotEnabled(screen); got != want {
		t.Fatalf("after stop enablement = %+v, want %+v", got, want)
	}
}

func TestSettingsScreenStartsLockedWhenServiceAlreadyConnected(t *testing.T) {
	f := newSettingsFixture(t)
	f.channel.state = service.StateConnected
	screen := f.open()

	if got := snapshotEnabled(screen); got != (enabledSnapshot{}) {
		t.Fatalf("expected all controls locked, got %+v", got)
	}
}

func TestSettingsScreenUsesModeStoredWhileConnected(t *testing.T) {
	f := newSettingsFixture(t)
	if err := f.store.SetServiceMode(service.ModeProxy); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	screen := f.open()

	f.channel.emit(service.StateConnected)
	if err := f.store.SetServiceMode(service.ModeTransproxy); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	f.channel.emit(service.StateStopped)

	if got := snapshotEnabled(screen); !got.transproxy || !got.localDNS || !got.hosts {
		t.Fatalf("expected dependents for transproxy after stop, got %+v", got)
	}
}

func TestSettingsScreenIgnoresEventsAfterClose(t *testing.T) {
	f := newSettingsFixture(t)
	screen := f.open()

	screen.Close()
	screen.Close()
	f.channel.emit(service.StateConnected)

	if f.channel.unsubscribes != 1 {
		t.Fatalf("expected one unsubscribe, got %d", f.channel.unsubscribes)
	}
	if got := snapshotEnabled(screen); !got.mode || !got.proxy {
		t.Fatalf("expected controls untouched after close, got %+v", got)
	}
}

func TestSettingsScreenCapabilityFailureRevertsCheck(t *testing.T) {
	f := newSettingsFixture(t)
	f.probe.diagnostic = "  write /proc/sys/net/ipv4/tcp_fastopen: permission denied  "
	screen := f.open()

	screen.capability.check.SetChecked(true)

	if screen.capability.check.Checked {
		t.Fatalf("expected check to be reverted")
	}
	if f.probe.enableCalls != 1 {
		t.Fatalf("expected one enable attempt, got %d", f.probe.enableCalls)
	}
	if got := screen.status.Text; got != "write /proc/sys/net/ipv4/tcp_fastopen: permission denied" {
		t.Fatalf("unexpected status text: %q", got)
	}
	stored, err := f.store.TCPFastOpen()
	if err != nil || stored {
		t.Fatalf("expected stored false, got %v, %v", stored, err)
	}
}

func TestSettingsScreenCapabilityFailureWithoutDiagnosticUsesFallback(t *testing.T) {
	f := newSettingsFixture(t)
	screen := f.open()

	screen.capability.check.SetChecked(true)

	if got := screen.status.Text; got != "Failed to enable TCP Fast Open" {
		t.Fatalf("unexpected status text: %q", got)
	}
}

func TestSettingsScreenCapabilityEnableSucceeds(t *testing.T) {
	f := newSettingsFixture(t)
	f.probe.enableWorks = true
	screen := f.open()

	screen.capability.check.SetChecked(true)

	if !screen.capability.check.Checked {
		t.Fatalf("expected check to stay checked")
	}
	stored, err := f.store.TCPFastOpen()
	if err != nil || !stored {
		t.Fatalf("expected stored true, got %v, %v", stored, err)
	}
	if screen.status.Text != "" {
		t.Fatalf("expected no status message, got %q", screen.status.Text)
	}
}

func TestSettingsScreenCapabilityDropsStaleResults(t *testing.T) {
	f := newSettingsFixture(t)
	f.probe.enableWorks = true
	var pending []func()
	f.dep.UIHooks.RunAsync = func(fn func()) { pending = append(pending, fn) }
	screen := f.open()

	screen.capability.check.SetChecked(true)
	screen.capability.check.SetChecked(false)
	if len(pending) != 2 {
		t.Fatalf("expected two pending requests, got %d", len(pending))
	}

	// The later request finishes first; the earlier result must not win.
	pending[1]()
	pending[0]()

	if screen.capability.check.Checked {
		t.Fatalf("expected latest request (unchecked) to win")
	}
	stored, err := f.store.TCPFastOpen()
	if err != nil || stored {
		t.Fatalf("expected stored false, got %v, %v", stored, err)
	}
}

func TestSettingsScreenCapabilityStaleResultKeepsToggleInSync(t *testing.T) {
	f := newSettingsFixture(t)
	f.probe.enableWorks = true
	var pending []func()
	f.dep.UIHooks.RunAsync = func(fn func()) { pending = append(pending, fn) }
	screen := f.open()
	toggle := screen.capability.toggle

	screen.capability.check.SetChecked(true)
	screen.capability.check.SetChecked(false)

	// The earlier enable lands after the later disable already settled.
	pending[1]()
	pending[0]()

	if toggle.State().UIChecked {
		t.Fatalf("expected toggle state to follow the unchecked box")
	}
}

func TestSettingsScreenCapabilityLatestResultWinsOverStaleOverwrite(t *testing.T) {
	f := newSettingsFixture(t)
	f.probe.enableWorks = true
	var asyncQueue []func()
	var uiQueue []func()
	f.dep.UIHooks.RunAsync = func(fn func()) { asyncQueue = append(asyncQueue, fn) }
	screen := f.open()
	screen.capability.runOnUI = func(fn func()) { uiQueue = append(uiQueue, fn) }
	toggle := screen.capability.toggle

	screen.capability.check.SetChecked(true)
	screen.capability.check.SetChecked(false)

	// Both calls finish off the UI goroutine, the stale enable last; the
	// UI then handles the stale result first.
	asyncQueue[1]()
	asyncQueue[0]()
	uiQueue[1]()
	uiQueue[0]()

	if screen.capability.check.Checked {
		t.Fatalf("expected box unchecked")
	}
	if toggle.State().UIChecked {
		t.Fatalf("expected toggle state unchecked")
	}
}

func TestSettingsScreenCapabilitySuccessClearsEarlierFailure(t *testing.T) {
	f := newSettingsFixture(t)
	f.probe.diagnostic = "Permission denied"
	screen := f.open()

	screen.capability.check.SetChecked(true)
	if screen.status.Text == "" {
		t.Fatalf("expected failure message")
	}

	f.probe.enableWorks = true
	screen.capability.check.SetChecked(true)

	if screen.status.Text != "" {
		t.Fatalf("expected status cleared after success, got %q", screen.status.Text)
	}
}

func TestSettingsScreenUnsupportedCapabilityStaysLocked(t *testing.T) {
	f := newSettingsFixture(t)
	f.probe.supported = false
	f.dep.Platform.OSVersion = "3.2.0"
	screen := f.open()

	if !screen.capability.check.Disabled() {
		t.Fatalf("expected capability check disabled on unsupported platform")
	}
	f.channel.emit(service.StateConnected)
	f.channel.emit(service.StateStopped)
	if !screen.capability.check.Disabled() {
		t.Fatalf("expected capability check to stay disabled after stop")
	}

	summary := mustFindLabelByPrefix(t, screen.content, "Unsupported on")
	if !strings.Contains(summary.Text, "3.2.0") {
		t.Fatalf("expected summary to name the kernel version, got %q", summary.Text)
	}
}

func TestSettingsScreenImportHostsUpdatesSummary(t *testing.T) {
	f := newSettingsFixture(t)
	reader := newURIReader("# local\n127.0.0.1 localhost\n10.0.0.1 router\n")
	f.picked = reader
	screen := f.open()

	fynetest.Tap(mustFindButtonByText(t, screen.content, hostsImportButtonText))

	hosts, err := f.store.Hosts()
	if err != nil {
		t.Fatalf("read hosts: %v", err)
	}
	if !strings.Contains(hosts, "10.0.0.1 router") {
		t.Fatalf("unexpected stored hosts: %q", hosts)
	}
	if screen.hosts.summary.Text != "2 entries" {
		t.Fatalf("unexpected hosts summary: %q", screen.hosts.summary.Text)
	}
	if screen.hosts.entry.Text != hosts {
		t.Fatalf("expected entry to show imported hosts, got %q", screen.hosts.entry.Text)
	}
	if !reader.closed {
		t.Fatalf("expected import to close the reader")
	}
}

func TestSettingsScreenHostsEntryPersistsEdits(t *testing.T) {
	f := newSettingsFixture(t)
	if err := f.store.SetHosts("127.0.0.1 localhost\n"); err != nil {
		t.Fatalf("set hosts: %v", err)
	}
	screen := f.open()

	if screen.hosts.entry.Text != "127.0.0.1 localhost\n" {
		t.Fatalf("expected entry to show stored hosts, got %q", screen.hosts.entry.Text)
	}

	screen.hosts.entry.SetText("10.0.0.1 router\n10.0.0.2 nas\n")
	hosts, err := f.store.Hosts()
	if err != nil || hosts != "10.0.0.1 router\n10.0.0.2 nas\n" {
		t.Fatalf("expected edited hosts stored, got %q, %v", hosts, err)
	}
	if screen.hosts.summary.Text != "2 entries" {
		t.Fatalf("unexpected hosts summary: %q", screen.hosts.summary.Text)
	}

	screen.hosts.entry.SetText("")
	hosts, err = f.store.Hosts()
	if err != nil || hosts != "" {
		t.Fatalf("expected cleared hosts stored, got %q, %v", hosts, err)
	}
}

func TestSettingsScreenHostsEntryLocksWithImportButton(t *testing.T) {
	f := newSettingsFixture(t)
	if err := f.store.SetServiceMode(service.ModeProxy); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	screen := f.open()

	if !screen.hosts.entry.Disabled() || !screen.hosts.button.Disabled() {
		t.Fatalf("expected hosts entry and button disabled in proxy mode")
	}

	screen.modeSelect.SetSelected(modeOptionVPN)
	if screen.hosts.entry.Disabled() || screen.hosts.button.Disabled() {
		t.Fatalf("expected hosts entry and button enabled in vpn mode")
	}

	f.channel.emit(service.StateConnected)
	if !screen.hosts.entry.Disabled() || !screen.hosts.button.Disabled() {
		t.Fatalf("expected hosts entry and button disabled while connected")
	}
}

func TestSettingsScreenImportFailureKeepsHosts(t *testing.T) {
	f := newSettingsFixture(t)
	if err := f.store.SetHosts("127.0.0.1 localhost\n"); err != nil {
		t.Fatalf("set hosts: %v", err)
	}
	f.picked = &uriReader{Reader: failingReader{}}
	screen := f.open()

	fynetest.Tap(mustFindButtonByText(t, screen.content, hostsImportButtonText))

	hosts, err := f.store.Hosts()
	if err != nil {
		t.Fatalf("read hosts: %v", err)
	}
	if hosts != "127.0.0.1 localhost\n" {
		t.Fatalf("expected hosts unchanged, got %q", hosts)
	}
	if !strings.Contains(screen.status.Text, "permission denied") {
		t.Fatalf("expected failure in status, got %q", screen.status.Text)
	}
	if screen.hosts.summary.Text != "1 entry" {
		t.Fatalf("expected summary unchanged, got %q", screen.hosts.summary.Text)
	}
}

func TestSettingsScreenImportCancelledDoesNothing(t *testing.T) {
	f := newSettingsFixture(t)
	screen := f.open()

	fynetest.Tap(mustFindButtonByText(t, screen.content, hostsImportButtonText))

	if screen.status.Text != "" {
		t.Fatalf("expected no status on cancel, got %q", screen.status.Text)
	}
}

func TestSettingsScreenPortEntriesPersistValidValues(t *testing.T) {
	f := newSettingsFixture(t)
	screen := f.open()

	entry := mustFindEntryByPlaceholder(t, screen.content, placeholderPortProxy)
	entry.SetText("80")
	if port, _ := f.store.PortProxy(); port != prefs.DefaultPortProxy {
		t.Fatalf("expected invalid port to be ignored, stored %d", port)
	}
	if entry.Validate() == nil {
		t.Fatalf("expected validator to reject port 80")
	}

	entry.SetText("2080")
	if port, _ := f.store.PortProxy(); port != 2080 {
		t.Fatalf("expected stored port 2080, got %d", port)
	}
}

func TestSettingsScreenAutoConnectWarningKeepsCheck(t *testing.T) {
	f := newSettingsFixture(t)
	f.dep.Actions.OnSetAutoConnect = func(enabled bool) error {
		if err := f.store.SetAutoConnect(enabled); err != nil {
			return err
		}
		return &sockapp.AutostartSyncWarning{Err: errors.New("no autostart dir")}
	}
	screen := f.open()

	screen.autoConnect.SetChecked(true)

	if !screen.autoConnect.Checked {
		t.Fatalf("expected check to stay on after warning")
	}
	if !strings.HasPrefix(screen.status.Text, "Saved, but autostart sync failed") {
		t.Fatalf("unexpected status text: %q", screen.status.Text)
	}
}

func TestSettingsScreenAutoConnectLoadsOSRegistration(t *testing.T) {
	f := newSettingsFixture(t)
	if err := f.store.SetAutoConnect(true); err != nil {
		t.Fatalf("set auto connect: %v", err)
	}
	f.dep.Actions.AutoConnectEnabled = func() (bool, error) { return false, nil }
	screen := f.open()

	if screen.autoConnect.Checked {
		t.Fatalf("expected check to follow the OS registration")
	}
}

func TestSettingsScreenAutoConnectFallsBackToStore(t *testing.T) {
	f := newSettingsFixture(t)
	if err := f.store.SetAutoConnect(true); err != nil {
		t.Fatalf("set auto connect: %v", err)
	}
	screen := f.open()

	if !screen.autoConnect.Checked {
		t.Fatalf("expected check to follow the stored preference")
	}
}

func TestSettingsScreenDirectBootFailureRevertsCheck(t *testing.T) {
	f := newSettingsFixture(t)
	calls := 0
	f.dep.Actions.OnSetDirectBootAware = func(bool) error {
		calls++
		return errors.New("database is locked")
	}
	screen := f.open()

	screen.directBoot.SetChecked(true)

	if screen.directBoot.Checked {
		t.Fatalf("expected check reverted after failure")
	}
	if calls != 1 {
		t.Fatalf("expected one apply call, got %d", calls)
	}
}

func TestNewSettingsScreenRejectsStoredInvalidMode(t *testing.T) {
	kv := prefs.NewMemoryKV()
	if err := kv.Set(prefs.KeyServiceMode, "socks4"); err != nil {
		t.Fatalf("seed kv: %v", err)
	}
	f := newSettingsFixture(t)
	f.dep.Data.Prefs = prefs.New(kv)

	_, err := newSettingsScreen(f.dep, nil)
	var invalid *service.InvalidModeError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidModeError, got %v", err)
	}
}

func TestNewSettingsScreenRequiresProbe(t *testing.T) {
	f := newSettingsFixture(t)
	f.dep.Platform.TCPFastOpen = nil

	if _, err := newSettingsScreen(f.dep, nil); err == nil {
		t.Fatalf("expected missing probe error")
	}
}

func mustFindButtonByText(t *testing.T, root fyne.CanvasObject, text string) *widget.Button {
	t.Helper()
	for _, object := range fynetest.LaidOutObjects(root) {
		button, ok := object.(*widget.Button)
		if !ok {
			continue
		}
		if strings.TrimSpace(button.Text) == text {
			return button
		}
	}
	t.Fatalf("button %q not found", text)

	return nil
}

func mustFindEntryByPlaceholder(t *testing.T, root fyne.CanvasObject, placeholder string) *widget.Entry {
	t.Helper()
	for _, object := range fynetest.LaidOutObjects(root) {
		entry, ok := object.(*widget.Entry)
		if !ok {
			continue
		}
		if strings.TrimSpace(entry.PlaceHolder) == placeholder {
			return entry
		}
	}
	t.Fatalf("entry with placeholder %q not found", placeholder)

	return nil
}

func mustFindLabelByPrefix(t *testing.T, root fyne.CanvasObject, prefix string) *widget.Label {
	t.Helper()
	for _, object := range fynetest.LaidOutObjects(root) {
		label, ok := object.(*widget.Label)
		if !ok {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(label.Text), prefix) {
			return label
		}
	}
	t.Fatalf("label with prefix %q not found", prefix)

	return nil
}

func mustFindSelectWithOption(t *testing.T, root fyne.CanvasObject, option string) *widget.Select {
	t.Helper()
	for _, object := range fynetest.LaidOutObjects(root) {
		selectWidget, ok := object.(*widget.Select)
		if !ok {
			continue
		}
		for _, candidate := range selectWidget.Options {
			if strings.TrimSpace(candidate) == option {
				return selectWidget
			}
		}
	}
	t.Fatalf("select with option %q not found", option)

	return nil
}

func waitForCondition(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition was not met before timeout")
}
