package app

import (
	"fmt"
	"log/slog"

	"github.com/skobkin/sockgo/internal/platform"
)

// AutostartSyncWarning signals that the preference was saved but the OS registration failed.
type AutostartSyncWarning struct {
	Err error
}

func (w *AutostartSyncWarning) Error() string {
	if w == nil || w.Err == nil {
		return "autostart sync failed"
	}

	return fmt.Sprintf("autostart sync failed: %v", w.Err)
}

func (w *AutostartSyncWarning) Unwrap() error {
	if w == nil {
		return nil
	}

	return w.Err
}

func (r *Runtime) autostartConfig() (platform.AutostartConfig, error) {
	enabled, err := r.Prefs.AutoConnect()
	if err != nil {
		return platform.AutostartConfig{}, err
	}
	background, err := r.Prefs.DirectBootAware()
	if err != nil {
		return platform.AutostartConfig{}, err
	}

	return platform.AutostartConfig{Enabled: enabled, Background: background}, nil
}

func (r *Runtime) syncAutostart(trigger string) error {
	if r.AutostartManager == nil || !r.AutostartManager.Supported() {
		slog.Debug("skip autostart sync: not supported", "trigger", trigger)

		return nil
	}

	cfg, err := r.autostartConfig()
	if err != nil {
		return fmt.Errorf("read autostart preferences: %w", err)
	}
	slog.Info("syncing autostart registration", "trigger", trigger, "enabled", cfg.Enabled, "background", cfg.Background)

	if err := r.AutostartManager.Sync(cfg); err != nil {
		return err
	}

	slog.Info("autostart registration synced", "trigger", trigger, "enabled", cfg.Enabled, "background", cfg.Background)

	return nil
}

// AutoConnectEnabled reports whether the app is registered to start on login.
// The OS registration wins over the stored preference; a mismatch (e.g. the
// entry was removed by hand) is written back to prefs.
func (r *Runtime) AutoConnectEnabled() (bool, error) {
	stored, err := r.Prefs.AutoConnect()
	if err != nil {
		return false, err
	}
	if r.AutostartManager == nil || !r.AutostartManager.Supported() {
		return stored, nil
	}

	registered, err := r.AutostartManager.Enabled()
	if err != nil {
		slog.Warn("read autostart registration", "error", err)

		return stored, nil
	}
	if registered != stored {
		slog.Info("autostart registration differs from preference", "registered", registered, "stored", stored)
		if err := r.Prefs.SetAutoConnect(registered); err != nil {
			return registered, fmt.Errorf("save auto connect: %w", err)
		}
	}

	return registered, nil
}
