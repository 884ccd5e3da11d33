package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skobkin/sockgo/internal/bus"
	"github.com/skobkin/sockgo/internal/config"
	"github.com/skobkin/sockgo/internal/logging"
	"github.com/skobkin/sockgo/internal/persistence"
	"github.com/skobkin/sockgo/internal/platform"
	"github.com/skobkin/sockgo/internal/prefs"
	"github.com/skobkin/sockgo/internal/service"
)

// Options overrides runtime collaborators. Zero values select the platform defaults.
type Options struct {
	Runner      service.Runner
	Autostart   platform.AutostartManager
	TCPFastOpen *platform.TCPFastOpen
}

type Runtime struct {
	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB

	PrefsRepo *persistence.PrefsRepo
	Prefs     *prefs.Store

	Service          *service.Manager
	TCPFastOpen      *platform.TCPFastOpen
	AutostartManager platform.AutostartManager

	closeOnce sync.Once
}

func Initialize(parent context.Context) (*Runtime, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, err
	}

	return Open(parent, paths, Options{})
}

func Open(parent context.Context, paths Paths, opts Options) (*Runtime, error) {
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:              ctx,
		cancel:           cancel,
		Paths:            paths,
		Config:           cfg,
		AutostartManager: opts.Autostart,
		TCPFastOpen:      opts.TCPFastOpen,
	}
	if rt.AutostartManager == nil {
		rt.AutostartManager = platform.NewAutostartManager()
	}
	if rt.TCPFastOpen == nil {
		rt.TCPFastOpen = platform.NewTCPFastOpen()
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting sockgo runtime", "version", BuildVersion(), "build_date", BuildDateYMD(), "os", platform.OSVersion())

	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.DB = db
	rt.PrefsRepo = persistence.NewPrefsRepo(db)
	rt.Prefs = prefs.New(rt.PrefsRepo)

	if err := rt.syncAutostart("startup"); err != nil {
		slog.Warn("sync autostart on startup", "error", err)
	}

	rt.Bus = bus.New(logMgr.Logger(logging.ComponentBus))

	runner := opts.Runner
	if runner == nil {
		runner = service.NewListenerRunner(logMgr.Logger(logging.ComponentListener))
	}
	rt.Service = service.NewManager(logMgr.Logger(logging.ComponentService), rt.Bus, runner)

	return rt, nil
}

// StateChannel returns a state channel that delivers transitions through runOnUI.
func (r *Runtime) StateChannel(runOnUI func(func())) *service.StateChannel {
	return service.NewStateChannel(r.Bus, r.Service, runOnUI, r.LogManager.Logger(logging.ComponentState))
}

// StartService snapshots the stored options and starts the background service.
func (r *Runtime) StartService() error {
	opts, err := r.Prefs.ServiceOptions()
	if err != nil {
		return fmt.Errorf("load service options: %w", err)
	}

	return r.Service.Start(r.Ctx, opts)
}

func (r *Runtime) StopService() error {
	return r.Service.Stop()
}

// ToggleService starts a stopped service and stops a running one.
func (r *Runtime) ToggleService() error {
	if r.Service.CurrentState() == service.StateStopped {
		return r.StartService()
	}

	return r.StopService()
}

func (r *Runtime) SetAutoConnect(enabled bool) error {
	if err := r.Prefs.SetAutoConnect(enabled); err != nil {
		return err
	}

	return r.syncAutostartAfterSave("auto_connect")
}

func (r *Runtime) SetDirectBootAware(enabled bool) error {
	if err := r.Prefs.SetDirectBootAware(enabled); err != nil {
		return err
	}

	return r.syncAutostartAfterSave("direct_boot")
}

func (r *Runtime) syncAutostartAfterSave(trigger string) error {
	if err := r.syncAutostart(trigger); err != nil {
		slog.Warn("sync autostart after save", "trigger", trigger, "error", err)
		return &AutostartSyncWarning{Err: err}
	}

	return nil
}

func (r *Runtime) Close() error {
	var errs []error
	r.closeOnce.Do(func() {
		if r.Service != nil {
			if err := r.Service.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop service: %w", err))
			}
		}
		if r.cancel != nil {
			r.cancel()
		}
		if r.Bus != nil {
			r.Bus.Close()
		}
		if r.DB != nil {
			if err := r.DB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
		if r.LogManager != nil {
			_ = r.LogManager.Close()
		}
	})

	return errors.Join(errs...)
}
