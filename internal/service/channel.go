package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/skobkin/sockgo/internal/bus"
)

// StateSource reports the current service state synchronously.
type StateSource interface {
	CurrentState() State
}

// StateChannel delivers service state transitions to UI callbacks.
// Callbacks are marshaled through RunOnUI, so they never run concurrently with
// each other when RunOnUI serializes onto a single goroutine.
type StateChannel struct {
	bus     bus.MessageBus
	source  StateSource
	runOnUI func(func())
	logger  *slog.Logger
}

func NewStateChannel(messageBus bus.MessageBus, source StateSource, runOnUI func(func()), logger *slog.Logger) *StateChannel {
	if runOnUI == nil {
		runOnUI = func(fn func()) { fn() }
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StateChannel{
		bus:     messageBus,
		source:  source,
		runOnUI: runOnUI,
		logger:  logger,
	}
}

func (c *StateChannel) CurrentState() State {
	if c.source == nil {
		return StateStopped
	}

	return c.source.CurrentState()
}

// Subscription is a single registration with a StateChannel. It is owned by
// whoever called Subscribe and released with Close.
type Subscription struct {
	active   atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	release  func()
}

// Active reports whether callbacks may still be delivered.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

// Close stops delivery. Once Close returns, the callback is never invoked
// again, even for events already queued on the UI context.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		s.active.Store(false)
		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
}

func (c *StateChannel) Subscribe(callback func(State)) (*Subscription, error) {
	if callback == nil {
		return nil, errors.New("state callback is nil")
	}

	sub := &Subscription{done: make(chan struct{})}
	sub.active.Store(true)
	if c.bus == nil {
		c.logger.Debug("state channel has no bus: subscription will not receive events")

		return sub, nil
	}

	ch := c.bus.Subscribe(TopicState)
	sub.release = func() {
		c.bus.Unsubscribe(ch, TopicState)
		c.logger.Debug("state subscription released")
	}
	c.logger.Debug("state subscription registered")

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case raw, ok := <-ch:
				if !ok {
					c.logger.Debug("state subscription closed by bus")

					return
				}
				event, ok := raw.(StateEvent)
				if !ok {
					c.logger.Debug("ignoring unexpected state payload", "payload_type", fmt.Sprintf("%T", raw))

					continue
				}
				c.runOnUI(func() {
					if !sub.active.Load() {
						return
					}
					callback(event.State)
				})
			}
		}
	}()

	return sub, nil
}

func (c *StateChannel) Unsubscribe(sub *Subscription) {
	sub.Close()
}
