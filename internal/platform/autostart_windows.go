//go:build windows

package platform

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"golang.org/x/sys/windows/registry"
)

const windowsRunKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`

type windowsAutostartManager struct{}

func newAutostartManager() AutostartManager {
	return windowsAutostartManager{}
}

func (windowsAutostartManager) Supported() bool {
	return true
}

func (windowsAutostartManager) Enabled() (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, windowsRunKeyPath, registry.QUERY_VALUE)
	if err != nil {
		if isWindowsValueNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("open autostart registry key: %w", err)
	}
	defer key.Close()

	if _, _, err := key.GetStringValue(autostartEntryName); err != nil {
		if isWindowsValueNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("read autostart registry value: %w", err)
	}

	return true, nil
}

func (windowsAutostartManager) Sync(cfg AutostartConfig) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, windowsRunKeyPath, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open autostart registry key: %w", err)
	}
	defer key.Close()

	if !cfg.Enabled {
		if err := key.DeleteValue(autostartEntryName); err != nil && !isWindowsValueNotFound(err) {
			return fmt.Errorf("remove autostart registry value: %w", err)
		}

		return nil
	}

	executable, args, err := buildLaunchCommand(cfg)
	if err != nil {
		return err
	}
	if err := key.SetStringValue(autostartEntryName, windowsCommandLine(executable, args)); err != nil {
		return fmt.Errorf("set autostart registry value: %w", err)
	}

	return nil
}

func isWindowsValueNotFound(err error) bool {
	return errors.Is(err, registry.ErrNotExist) || errors.Is(err, syscall.Errno(2))
}

// windowsCommandLine quotes arguments following CommandLineToArgvW rules.
func windowsCommandLine(executable string, args []string) string {
	fields := make([]string, 0, 1+len(args))
	fields = append(fields, quoteWindowsArg(executable))
	for _, arg := range args {
		fields = append(fields, quoteWindowsArg(arg))
	}
	return strings.Join(fields, " ")
}

func quoteWindowsArg(arg string) string {
	if arg == "" {
		return `""`
	}
	if !strings.ContainsAny(arg, " \t\n\v\"") {
		return arg
	}

	var b strings.Builder
	b.WriteByte('"')
	backslashes := 0
	for i := 0; i < len(arg); i++ {
		switch arg[i] {
		case '\\':
			backslashes++
		case '"':
			for j := 0; j < backslashes*2+1; j++ {
				b.WriteByte('\\')
			}
			b.WriteByte('"')
			backslashes = 0
		default:
			for j := 0; j < backslashes; j++ {
				b.WriteByte('\\')
			}
			backslashes = 0
			b.WriteByte(arg[i])
		}
	}
	for j := 0; j < backslashes*2; j++ {
		b.WriteByte('\\')
	}
	b.WriteByte('"')
	return b.String()
}
