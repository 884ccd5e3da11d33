package ui

import (
	"errors"
	"io"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"

	"github.com/skobkin/sockgo/internal/service"
)

type appRunQuitSpy struct {
	fyne.App
	runCalls  int
	quitCalls int
}

func (a *appRunQuitSpy) Run() {
	a.runCalls++
}

func (a *appRunQuitSpy) Quit() {
	a.quitCalls++
}

type trayAppSpy struct {
	fyne.App
	trayMenu *fyne.Menu
	trayIcon fyne.Resource
}

func (a *trayAppSpy) SetSystemTrayMenu(menu *fyne.Menu) {
	a.trayMenu = menu
}

func (a *trayAppSpy) SetSystemTrayIcon(icon fyne.Resource) {
	a.trayIcon = icon
}

func (a *trayAppSpy) SetSystemTrayWindow(fyne.Window) {}

type windowSpy struct {
	fyne.Window
	showCalls      int
	hideCalls      int
	focusCalls     int
	closeIntercept func()
}

func (w *windowSpy) Show() {
	w.showCalls++
	if w.Window != nil {
		w.Window.Show()
	}
}

func (w *windowSpy) Hide() {
	w.hideCalls++
	if w.Window != nil {
		w.Window.Hide()
	}
}

func (w *windowSpy) RequestFocus() {
	w.focusCalls++
	if w.Window != nil {
		w.Window.RequestFocus()
	}
}

func (w *windowSpy) SetCloseIntercept(fn func()) {
	w.closeIntercept = fn
	if w.Window != nil {
		w.Window.SetCloseIntercept(fn)
	}
}

// fakeStateChannel delivers transitions synchronously on the calling goroutine.
type fakeStateChannel struct {
	state        service.State
	callbacks    map[*service.Subscription]func(service.State)
	subscribes   int
	unsubscribes int
	subscribeErr error
}

func newFakeStateChannel(state service.State) *fakeStateChannel {
	return &fakeStateChannel{
		state:     state,
		callbacks: make(map[*service.Subscription]func(service.State)),
	}
}

func (c *fakeStateChannel) CurrentState() service.State { return c.state }

func (c *fakeStateChannel) Subscribe(callback func(service.State)) (*service.Subscription, error) {
	if c.subscribeErr != nil {
		return nil, c.subscribeErr
	}
	c.subscribes++
	sub := &service.Subscription{}
	c.callbacks[sub] = callback

	return sub, nil
}

func (c *fakeStateChannel) Unsubscribe(sub *service.Subscription) {
	if _, ok := c.callbacks[sub]; !ok {
		return
	}
	c.unsubscribes++
	delete(c.callbacks, sub)
}

func (c *fakeStateChannel) emit(state service.State) {
	c.state = state
	for _, callback := range c.callbacks {
		callback(state)
	}
}

type fakeProbe struct {
	supported   bool
	enabled     bool
	enableWorks bool
	diagnostic  string
	enableCalls int
}

func (p *fakeProbe) Supported() bool { return p.supported }

func (p *fakeProbe) Enabled() bool { return p.enabled }

func (p *fakeProbe) Enable() string {
	p.enableCalls++
	if p.enableWorks {
		p.enabled = true
		return ""
	}

	return p.diagnostic
}

// uriReader is a fyne.URIReadCloser over an arbitrary reader.
type uriReader struct {
	io.Reader
	closed bool
}

func newURIReader(text string) *uriReader {
	return &uriReader{Reader: strings.NewReader(text)}
}

func (r *uriReader) Close() error {
	r.closed = true
	return nil
}

func (r *uriReader) URI() fyne.URI {
	return storage.NewFileURI("/tmp/hosts")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("permission denied")
}
