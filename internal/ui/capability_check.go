package ui

import (
	"errors"

	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/sockgo/internal/settings"
)

const capabilityCheckText = "TCP Fast Open"

// capabilityCheck binds the TCP Fast Open check box to a CapabilityToggle.
// Enable attempts run through runAsync; only the result of the latest request
// is applied to the check box.
type capabilityCheck struct {
	check   *widget.Check
	summary *widget.Label

	toggle   *settings.CapabilityToggle
	persist  func(bool) error
	notify   func(string)
	runOnUI  func(func())
	runAsync func(func())

	// UI goroutine only.
	requestSeq uint64
	settledSeq uint64
	reverting  bool
}

func newCapabilityCheck(
	toggle *settings.CapabilityToggle,
	persist func(bool) error,
	notify func(string),
	runOnUI func(func()),
	runAsync func(func()),
) *capabilityCheck {
	c := &capabilityCheck{
		toggle:   toggle,
		persist:  persist,
		notify:   notify,
		runOnUI:  runOnUI,
		runAsync: runAsync,
	}
	c.check = widget.NewCheck(capabilityCheckText, nil)
	c.check.SetChecked(toggle.State().UIChecked)
	c.check.OnChanged = c.onChanged
	c.summary = widget.NewLabel(toggle.Summary())

	return c
}

func (c *capabilityCheck) onChanged(requested bool) {
	if c.reverting {
		return
	}
	c.requestSeq++
	seq := c.requestSeq
	appLogger.Debug("tcp fast open toggle requested", "requested", requested, "seq", seq)

	c.runAsync(func() {
		applied, err := c.toggle.SetEnabled(requested)
		c.runOnUI(func() {
			c.finish(seq, applied, err)
		})
	})
}

func (c *capabilityCheck) finish(seq uint64, applied bool, err error) {
	if seq != c.requestSeq {
		appLogger.Debug("dropping stale tcp fast open result", "seq", seq, "latest", c.requestSeq)
		// The stale call already overwrote the toggle state. A pending latest
		// request fixes it when it lands; otherwise restore what the box shows.
		if c.settledSeq == c.requestSeq {
			c.toggle.Reconcile(c.check.Checked)
		}

		return
	}
	c.settledSeq = seq
	c.toggle.Reconcile(applied)

	if c.check.Checked != applied {
		c.reverting = true
		c.check.SetChecked(applied)
		c.reverting = false
	}
	if c.persist != nil {
		if persistErr := c.persist(applied); persistErr != nil {
			appLogger.Warn("save tcp fast open preference", "error", persistErr)
			c.notify("Failed to save TCP Fast Open: " + persistErr.Error())

			return
		}
	}

	var toggleErr *settings.ToggleError
	switch {
	case errors.As(err, &toggleErr):
		c.notify(toggleErr.Message)
	case err != nil:
		c.notify(err.Error())
	default:
		c.notify("")
	}
}
