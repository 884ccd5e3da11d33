package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/skobkin/sockgo/internal/app"
	"github.com/skobkin/sockgo/internal/bus"
	"github.com/skobkin/sockgo/internal/config"
	"github.com/skobkin/sockgo/internal/logging"
	"github.com/skobkin/sockgo/internal/persistence"
	"github.com/skobkin/sockgo/internal/platform"
	"github.com/skobkin/sockgo/internal/prefs"
	"github.com/skobkin/sockgo/internal/service"
	"github.com/skobkin/sockgo/internal/settings"
)

func main() {
	if err := run(); err != nil {
		slog.Error("run debug tool", "error", err)
		os.Exit(1)
	}
}

func run() error {
	enableTFO := flag.Bool("enable-tfo", false, "try to enable TCP Fast Open through the settings toggle")
	importHosts := flag.String("import-hosts", "", "import a hosts file into preferences")
	runFor := flag.Duration("run", 0, "start the service for the given duration and print state transitions, e.g. 30s")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := app.ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logMgr := logging.NewManager()
	cfg.Logging.LogToFile = false
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		if closeErr := logMgr.Close(); closeErr != nil {
			slog.Warn("close log manager", "error", closeErr)
		}
	}()
	logger := logMgr.Logger("cli")
	logger.Info("starting sockgo debug", "version", app.BuildVersion(), "build_date", app.BuildDateYMD())

	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("close sqlite", "error", closeErr)
		}
	}()
	repo := persistence.NewPrefsRepo(db)
	store := prefs.New(repo)
	out := os.Stdout

	fmt.Fprintln(out, app.Banner())
	if *importHosts != "" {
		if err := runImportHosts(out, store, *importHosts); err != nil {
			return err
		}
	}

	probe := platform.NewTCPFastOpen()
	if *enableTFO {
		if err := runEnableTFO(out, store, probe, logMgr.Logger("tfo")); err != nil {
			return err
		}
	}

	stored, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list preferences: %w", err)
	}
	printPreferences(out, stored)
	if err := printEnablement(out, store); err != nil {
		return err
	}
	printProbe(out, probe, platform.OSVersion())

	if *runFor > 0 {
		return runService(ctx, out, logMgr, store, *runFor)
	}

	return nil
}

func runImportHosts(out io.Writer, store *prefs.Store, path string) error {
	// #nosec G304 -- path is an explicit command line argument.
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open hosts file: %w", err)
	}
	text, err := settings.HostsImporter{Store: store}.Import(file)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported hosts from %s: %s\n", path, settings.HostsSummary(text))

	return nil
}

func runEnableTFO(out io.Writer, store *prefs.Store, probe settings.CapabilityProbe, logger *slog.Logger) error {
	initial, err := store.TCPFastOpen()
	if err != nil {
		return err
	}
	toggle := settings.NewCapabilityToggle(probe, platform.OSVersion(), initial, logger)
	if !toggle.Editable() {
		fmt.Fprintln(out, "tcp_fastopen:", toggle.Summary())
		return nil
	}

	applied, err := toggle.SetEnabled(true)
	if saveErr := store.SetTCPFastOpen(applied); saveErr != nil {
		return saveErr
	}
	var toggleErr *settings.ToggleError
	if errors.As(err, &toggleErr) {
		fmt.Fprintln(out, "tcp_fastopen: enable failed:", toggleErr.Message)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "tcp_fastopen: enabled")

	return nil
}

func printPreferences(out io.Writer, stored []persistence.Preference) {
	fmt.Fprintln(out, "preferences:")
	if len(stored) == 0 {
		fmt.Fprintln(out, "  (none stored, defaults apply)")
		return
	}
	for _, pref := range stored {
		value := pref.Value
		if pref.Key == prefs.KeyHosts {
			value = settings.HostsSummary(value)
		}
		fmt.Fprintf(out, "  %s = %s\n", pref.Key, value)
	}
}

func printEnablement(out io.Writer, store *prefs.Store) error {
	mode, err := store.ServiceMode()
	if err != nil {
		return err
	}
	for _, state := range []service.State{service.StateStopped, service.StateConnected} {
		enablement, err := settings.Resolve(mode, state)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "enablement (%s, %s): %s\n", mode, state, formatEnablement(enablement))
	}

	return nil
}

func formatEnablement(e settings.Enablement) string {
	fields := []struct {
		name    string
		enabled bool
	}{
		{prefs.KeyServiceMode, e.ModeSelector},
		{prefs.KeyPortProxy, e.ProxyPort},
		{prefs.KeyPortLocalDNS, e.LocalDNS},
		{prefs.KeyPortTransproxy, e.Transproxy},
		{prefs.KeyHosts, e.Hosts},
		{prefs.KeyTCPFastOpen, e.Capability},
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		state := "off"
		if f.enabled {
			state = "on"
		}
		parts = append(parts, f.name+"="+state)
	}

	return strings.Join(parts, " ")
}

func printProbe(out io.Writer, probe settings.CapabilityProbe, osVersion string) {
	fmt.Fprintf(out, "tcp_fastopen: supported=%t enabled=%t os=%s\n", probe.Supported(), probe.Enabled(), osVersion)
}

func runService(ctx context.Context, out io.Writer, logMgr *logging.Manager, store *prefs.Store, duration time.Duration) error {
	opts, err := store.ServiceOptions()
	if err != nil {
		return fmt.Errorf("load service options: %w", err)
	}

	b := bus.New(logMgr.Logger(logging.ComponentBus))
	defer b.Close()
	sub := b.Subscribe(service.TopicState)
	defer b.Unsubscribe(sub, service.TopicState)

	manager := service.NewManager(logMgr.Logger(logging.ComponentService), b, service.NewListenerRunner(logMgr.Logger(logging.ComponentListener)))
	if err := manager.Start(ctx, opts); err != nil {
		return err
	}
	defer func() {
		_ = manager.Stop()
		drainStates(out, sub)
	}()

	deadline := time.After(duration)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			return nil
		case raw, ok := <-sub:
			if !ok {
				return nil
			}
			event, ok := raw.(service.StateEvent)
			if !ok {
				continue
			}
			printStateEvent(out, event)
			if event.State == service.StateStopped {
				if event.Err != "" {
					return fmt.Errorf("service stopped: %s", event.Err)
				}
				return nil
			}
		}
	}
}

func drainStates(out io.Writer, sub bus.Subscription) {
	for {
		select {
		case raw, ok := <-sub:
			if !ok {
				return
			}
			if event, ok := raw.(service.StateEvent); ok {
				printStateEvent(out, event)
			}
		default:
			return
		}
	}
}

func printStateEvent(out io.Writer, event service.StateEvent) {
	line := fmt.Sprintf("%s state=%s mode=%s", event.Timestamp.Format(time.RFC3339), event.State, event.Mode)
	if event.Err != "" {
		line += " error=" + event.Err
	}
	fmt.Fprintln(out, line)
}
