package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skobkin/sockgo/internal/bus"
)

// ErrNotStopped is returned by Start when the service is already running or stopping.
var ErrNotStopped = errors.New("service is not stopped")

// Options describe one service run.
type Options struct {
	Mode           Mode
	PortProxy      int
	PortLocalDNS   int
	PortTransproxy int
	TCPFastOpen    bool
}

func (o Options) Validate() error {
	if err := o.Mode.Validate(); err != nil {
		return err
	}
	if o.PortProxy <= 0 {
		return fmt.Errorf("proxy port must be positive")
	}
	if o.Mode != ModeProxy && o.PortLocalDNS <= 0 {
		return fmt.Errorf("local dns port must be positive")
	}
	if o.Mode == ModeTransproxy && o.PortTransproxy <= 0 {
		return fmt.Errorf("transproxy port must be positive")
	}

	return nil
}

// Runner performs the actual work of a service run. It calls ready once the
// service is usable and blocks until ctx is canceled or it fails.
type Runner interface {
	Run(ctx context.Context, opts Options, ready func()) error
}

type RunnerFunc func(ctx context.Context, opts Options, ready func()) error

func (f RunnerFunc) Run(ctx context.Context, opts Options, ready func()) error {
	return f(ctx, opts, ready)
}

// Manager owns the background service lifecycle and publishes every
// transition on the message bus.
type Manager struct {
	logger *slog.Logger
	bus    bus.MessageBus
	runner Runner
	now    func() time.Time

	mu     sync.Mutex
	state  State
	mode   Mode
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(logger *slog.Logger, messageBus bus.MessageBus, runner Runner) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		logger: logger,
		bus:    messageBus,
		runner: runner,
		now:    time.Now,
		state:  StateStopped,
	}
}

func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

func (m *Manager) Start(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if m.runner == nil {
		return fmt.Errorf("service runner is not configured")
	}

	m.mu.Lock()
	if m.state != StateStopped {
		state := m.state
		m.mu.Unlock()

		return fmt.Errorf("start service in state %s: %w", state, ErrNotStopped)
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.mode = opts.Mode
	m.transitionLocked(StateStarting, "")
	m.mu.Unlock()

	go m.run(runCtx, opts, done)

	return nil
}

func (m *Manager) run(ctx context.Context, opts Options, done chan struct{}) {
	defer close(done)

	var readyOnce sync.Once
	ready := func() {
		readyOnce.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.state == StateStarting {
				m.transitionLocked(StateConnected, "")
			}
		})
	}

	err := m.runner.Run(ctx, opts, ready)
	if err != nil && errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		m.logger.Warn("service run failed", "mode", opts.Mode, "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateStopping && err == nil {
		m.transitionLocked(StateStopping, "")
	}
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	m.cancel = nil
	m.done = nil
	m.transitionLocked(StateStopped, errText)
}

// Stop cancels the current run and waits for the runner to return.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if m.state == StateStopped || m.cancel == nil {
		m.mu.Unlock()

		return nil
	}
	cancel := m.cancel
	done := m.done
	if m.state != StateStopping {
		m.transitionLocked(StateStopping, "")
	}
	m.mu.Unlock()

	cancel()
	<-done

	return nil
}

func (m *Manager) transitionLocked(next State, errText string) {
	prev := m.state
	m.state = next
	m.logger.Info("service state changed", "from", prev, "to", next, "mode", m.mode, "error", errText)
	if m.bus == nil {
		return
	}
	m.bus.Publish(TopicState, StateEvent{
		State:     next,
		Mode:      m.mode,
		Err:       errText,
		Timestamp: m.now(),
	})
}
