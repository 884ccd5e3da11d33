package settings

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
)

// DefaultToggleFailure is surfaced when the probe gives no diagnostic text.
const DefaultToggleFailure = "Failed to enable TCP Fast Open"

// CapabilityProbe is the OS side of the TCP Fast Open toggle.
type CapabilityProbe interface {
	Supported() bool
	Enabled() bool
	// Enable tries to turn the capability on and returns diagnostic text on
	// failure. An empty result does not imply success; callers re-check Enabled.
	Enable() string
}

// ToggleError reports a failed enable attempt. It is recoverable.
type ToggleError struct {
	Message string
}

func (e *ToggleError) Error() string {
	return e.Message
}

type CapabilityToggleState struct {
	Supported        bool
	CurrentlyEnabled bool
	UIChecked        bool
}

// CapabilityToggle applies user toggles of the capability option and rolls
// the checked state back when the OS refuses.
type CapabilityToggle struct {
	probe     CapabilityProbe
	osVersion string
	logger    *slog.Logger

	// mu serializes enable attempts; SetEnabled may run off the UI goroutine.
	mu        sync.Mutex
	uiChecked bool
}

func NewCapabilityToggle(probe CapabilityProbe, osVersion string, initial bool, logger *slog.Logger) *CapabilityToggle {
	if logger == nil {
		logger = slog.Default()
	}

	return &CapabilityToggle{
		probe:     probe,
		osVersion: strings.TrimSpace(osVersion),
		uiChecked: initial && probe.Supported(),
		logger:    logger,
	}
}

// Editable is false for good when the platform does not support the capability.
func (c *CapabilityToggle) Editable() bool {
	return c.probe.Supported()
}

// Summary describes the toggle; for unsupported platforms it names the running OS version.
func (c *CapabilityToggle) Summary() string {
	if c.probe.Supported() {
		return "Reduce connection latency (requires root to enable)"
	}

	return unsupportedSummary(runtime.GOOS, c.osVersion)
}

func unsupportedSummary(goos, version string) string {
	if goos == "linux" {
		return fmt.Sprintf("Unsupported on kernel %s, requires 3.7.1 or newer", version)
	}

	return fmt.Sprintf("Unsupported on %s, requires Linux 3.7.1 or newer", version)
}

func (c *CapabilityToggle) State() CapabilityToggleState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CapabilityToggleState{
		Supported:        c.probe.Supported(),
		CurrentlyEnabled: c.probe.Enabled(),
		UIChecked:        c.uiChecked,
	}
}

// Reconcile records the value the UI settled on without touching the OS.
// Use it when a SetEnabled result was discarded in favor of a later request.
func (c *CapabilityToggle) Reconcile(checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.uiChecked = checked && c.probe.Supported()
}

// SetEnabled applies a requested value and returns the value the UI should show.
func (c *CapabilityToggle) SetEnabled(requested bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !requested {
		c.uiChecked = false

		return false, nil
	}
	if c.probe.Enabled() {
		c.uiChecked = true

		return true, nil
	}

	c.uiChecked = true
	diagnostic := strings.TrimSpace(c.probe.Enable())
	if c.probe.Enabled() {
		c.logger.Info("tcp fast open enabled")

		return true, nil
	}

	c.uiChecked = false
	message := diagnostic
	if message == "" {
		message = DefaultToggleFailure
	}
	c.logger.Warn("enable tcp fast open failed", "diagnostic", diagnostic)

	return false, &ToggleError{Message: message}
}
