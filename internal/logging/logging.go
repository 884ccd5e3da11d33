package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/skobkin/sockgo/internal/config"
)

// Component names attached to scoped loggers.
const (
	ComponentService  = "service"
	ComponentState    = "state"
	ComponentListener = "listener"
	ComponentBus      = "bus"
	ComponentUI       = "ui"
)

// Manager owns the process logging setup. Loggers handed out by Logger stay
// valid across Configure calls: they write through a shared handler slot, so
// a component created before the config is loaded picks up the new level,
// format and destination.
type Manager struct {
	mu    sync.Mutex
	level slog.LevelVar
	root  atomic.Pointer[slog.Handler]
	file  *os.File
}

func NewManager() *Manager {
	m := &Manager{}
	m.install(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &m.level}))

	return m
}

// Configure applies cfg. With LogToFile set, records go to stdout and filePath.
func (m *Manager) Configure(cfg config.LoggingConfig, filePath string) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		out  io.Writer = os.Stdout
		file *os.File
	)
	if cfg.LogToFile {
		// #nosec G304 -- path is resolved by app runtime and points to user config dir.
		file, err = os.OpenFile(filepath.Clean(filePath), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = bestEffortWriter{os.Stdout, file}
	}

	m.level.Set(level.Level())
	m.install(newHandler(cfg.Format, out, &m.level))
	if m.file != nil {
		_ = m.file.Close()
	}
	m.file = file

	return nil
}

func (m *Manager) install(h slog.Handler) {
	m.root.Store(&h)
	slog.SetDefault(slog.New(&slotHandler{root: &m.root}))
}

// Logger returns a logger tagged with component.
func (m *Manager) Logger(component string) *slog.Logger {
	return slog.New(&slotHandler{root: &m.root}).With("component", component)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return nil
	}
	m.install(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &m.level}))
	err := m.file.Close()
	m.file = nil

	return err
}

func newHandler(format config.LogFormat, w io.Writer, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

func parseLevel(raw string) (slog.Leveler, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("unsupported log level: %q", raw)
	}
}

// slotHandler resolves the current root handler on every record and replays
// the With/WithGroup calls made on it.
type slotHandler struct {
	root *atomic.Pointer[slog.Handler]
	ops  []func(slog.Handler) slog.Handler
}

func (h *slotHandler) current() slog.Handler {
	out := *h.root.Load()
	for _, op := range h.ops {
		out = op(out)
	}

	return out
}

func (h *slotHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*h.root.Load()).Enabled(ctx, level)
}

func (h *slotHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h *slotHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *slotHandler) WithGroup(name string) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *slotHandler) with(op func(slog.Handler) slog.Handler) *slotHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)

	return &slotHandler{root: h.root, ops: append(ops, op)}
}

// bestEffortWriter writes to every destination and succeeds when at least one
// of them took the whole record.
type bestEffortWriter []io.Writer

func (w bestEffortWriter) Write(p []byte) (int, error) {
	var firstErr error
	delivered := len(w) == 0
	for _, dst := range w {
		n, err := dst.Write(p)
		if err == nil && n != len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			continue
		}
		delivered = true
	}
	if delivered {
		return len(p), nil
	}

	return 0, firstErr
}
