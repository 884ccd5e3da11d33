package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	autostartEntryName = "sockgo"
	autoConnectArg     = "--auto-connect"
	startHiddenArg     = "--start-hidden"
)

// AutostartConfig describes the login registration that starts the service.
type AutostartConfig struct {
	Enabled bool
	// Background starts without showing the main window.
	Background bool
}

type AutostartManager interface {
	// Supported reports whether this platform can register a login entry at all.
	Supported() bool
	// Enabled reports whether a login entry is currently registered.
	Enabled() (bool, error)
	Sync(cfg AutostartConfig) error
}

func NewAutostartManager() AutostartManager {
	return newAutostartManager()
}

func launchArgs(cfg AutostartConfig) []string {
	args := []string{autoConnectArg}
	if cfg.Background {
		args = append(args, startHiddenArg)
	}

	return args
}

func buildLaunchCommand(cfg AutostartConfig) (string, []string, error) {
	executable, err := resolveExecutablePath()
	if err != nil {
		return "", nil, err
	}

	return executable, launchArgs(cfg), nil
}

func resolveExecutablePath() (string, error) {
	rawPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	trimmed := strings.TrimSpace(rawPath)
	if trimmed == "" {
		return "", fmt.Errorf("resolve executable path: path is empty")
	}
	if !filepath.IsAbs(trimmed) {
		trimmed, err = filepath.Abs(trimmed)
		if err != nil {
			return "", fmt.Errorf("resolve executable absolute path: %w", err)
		}
	}
	if resolved, err := filepath.EvalSymlinks(trimmed); err == nil {
		trimmed = resolved
	}

	return filepath.Clean(trimmed), nil
}
