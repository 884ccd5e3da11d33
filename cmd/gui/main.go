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
	"sync"
	"syscall"

	"github.com/skobkin/sockgo/internal/app"
	"github.com/skobkin/sockgo/internal/platform"
	"github.com/skobkin/sockgo/internal/ui"
)

type launchOptions struct {
	StartHidden bool
	AutoConnect bool
}

func main() {
	opts, err := parseLaunchOptions(os.Args[1:])
	if err != nil {
		slog.Error("parse launch options", "error", err)
		os.Exit(2)
	}

	lock, err := platform.AcquireInstanceLock(app.Name)
	switch {
	case errors.Is(err, platform.ErrInstanceAlreadyRunning):
		slog.Info("another instance is already running, exiting")
		return
	case errors.Is(err, platform.ErrInstanceLockUnsupported):
		slog.Debug("instance lock unavailable on this platform", "error", err)
	case err != nil:
		slog.Warn("acquire instance lock", "error", err)
	default:
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.Warn("release instance lock", "error", releaseErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx)
	if err != nil {
		slog.Error("initialize app runtime", "error", err)
		os.Exit(1)
	}

	var closeOnce sync.Once
	closeRuntime := func() {
		closeOnce.Do(func() {
			_ = rt.Close()
		})
	}
	defer closeRuntime()

	if opts.AutoConnect {
		if err := rt.StartService(); err != nil {
			slog.Warn("auto-connect on launch", "error", err)
		}
	}

	dep := ui.BuildRuntimeDependencies(rt, ui.LaunchOptions{StartHidden: opts.StartHidden}, func() {
		stop()
		closeRuntime()
	})
	if err := ui.Run(dep); err != nil {
		slog.Error("run ui", "error", err)
		os.Exit(1)
	}
}

func parseLaunchOptions(args []string) (launchOptions, error) {
	var opts launchOptions
	fs := flag.NewFlagSet(app.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.StartHidden, "start-hidden", false, "start with the main window hidden in the tray")
	fs.BoolVar(&opts.AutoConnect, "auto-connect", false, "start the service right after launch")
	if err := fs.Parse(args); err != nil {
		return launchOptions{}, err
	}
	if fs.NArg() > 0 {
		return launchOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return opts, nil
}
