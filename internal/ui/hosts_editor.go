package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/sockgo/internal/settings"
)

const hostsEntryPlaceholder = "127.0.0.1 localhost"

// hostsEditor groups the hosts text entry with its import button so the
// binder can lock and unlock them as one control.
type hostsEditor struct {
	content fyne.CanvasObject
	entry   *widget.Entry
	button  *widget.Button
	summary *widget.Label

	save   func(string) error
	notify func(string)

	// UI goroutine only.
	loading bool
}

var _ fyne.Disableable = (*hostsEditor)(nil)

func newHostsEditor(text string, save func(string) error, notify func(string), onImport func()) *hostsEditor {
	h := &hostsEditor{
		save:    save,
		notify:  notify,
		summary: widget.NewLabel(settings.HostsSummary(text)),
	}
	h.entry = widget.NewMultiLineEntry()
	h.entry.SetPlaceHolder(hostsEntryPlaceholder)
	h.entry.SetMinRowsVisible(4)
	h.entry.SetText(text)
	h.entry.OnChanged = h.onEdited
	h.button = widget.NewButton(hostsImportButtonText, onImport)
	h.content = container.NewBorder(nil, container.NewHBox(h.button, h.summary), nil, nil, h.entry)

	return h
}

func (h *hostsEditor) onEdited(text string) {
	if h.loading {
		return
	}
	if err := h.save(text); err != nil {
		appLogger.Warn("save hosts", "error", err)
		h.notify("Failed to save hosts: " + err.Error())

		return
	}
	h.summary.SetText(settings.HostsSummary(text))
}

// Load shows text that is already persisted, e.g. after an import.
func (h *hostsEditor) Load(text string) {
	h.loading = true
	h.entry.SetText(text)
	h.loading = false
	h.summary.SetText(settings.HostsSummary(text))
}

func (h *hostsEditor) Enable() {
	h.entry.Enable()
	h.button.Enable()
}

func (h *hostsEditor) Disable() {
	h.entry.Disable()
	h.button.Disable()
}

func (h *hostsEditor) Disabled() bool {
	return h.button.Disabled()
}
