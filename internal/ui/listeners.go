package ui

import (
	"sync"

	"github.com/skobkin/sockgo/internal/service"
	"github.com/skobkin/sockgo/internal/settings"
)

// startStateListener forwards service state transitions to onState until the
// returned stop function is called. onState runs on the UI goroutine.
func startStateListener(channel settings.StateChannel, onState func(service.State)) (func(), error) {
	if channel == nil {
		appLogger.Debug("skipping service state listener: channel is nil")

		return func() {}, nil
	}

	sub, err := channel.Subscribe(onState)
	if err != nil {
		return nil, err
	}
	appLogger.Debug("subscribed to service state")

	var stopOnce sync.Once

	return func() {
		stopOnce.Do(func() {
			appLogger.Debug("stopping service state listener")
			channel.Unsubscribe(sub)
		})
	}, nil
}
