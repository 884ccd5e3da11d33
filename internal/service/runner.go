package service

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
)

const defaultListenHost = "127.0.0.1"

// ListenerRunner reserves the local endpoints a mode needs and keeps them open
// for the duration of a run.
type ListenerRunner struct {
	Host   string
	Logger *slog.Logger
}

func NewListenerRunner(logger *slog.Logger) *ListenerRunner {
	return &ListenerRunner{Host: defaultListenHost, Logger: logger}
}

func (r *ListenerRunner) Run(ctx context.Context, opts Options, ready func()) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	host := r.Host
	if host == "" {
		host = defaultListenHost
	}

	lc := net.ListenConfig{}
	if opts.TCPFastOpen {
		lc.Control = tcpFastOpenControl
	}

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	var wg sync.WaitGroup
	listenTCP := func(name string, port int) error {
		ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return fmt.Errorf("listen %s on port %d: %w", name, port, err)
		}
		closers = append(closers, ln.Close)
		wg.Add(1)
		go func() {
			defer wg.Done()
			acceptAndDrop(ln)
		}()
		logger.Info("listener bound", "name", name, "addr", ln.Addr().String(), "tfo", opts.TCPFastOpen)

		return nil
	}

	if err := listenTCP("proxy", opts.PortProxy); err != nil {
		closeAll()
		return err
	}
	if opts.Mode == ModeVPN || opts.Mode == ModeTransproxy {
		pc, err := lc.ListenPacket(ctx, "udp", net.JoinHostPort(host, strconv.Itoa(opts.PortLocalDNS)))
		if err != nil {
			closeAll()
			return fmt.Errorf("listen local dns on port %d: %w", opts.PortLocalDNS, err)
		}
		closers = append(closers, pc.Close)
		logger.Info("listener bound", "name", "local_dns", "addr", pc.LocalAddr().String())
	}
	if opts.Mode == ModeTransproxy {
		if err := listenTCP("transproxy", opts.PortTransproxy); err != nil {
			closeAll()
			return err
		}
	}

	ready()
	<-ctx.Done()
	closeAll()
	wg.Wait()

	return ctx.Err()
}

func acceptAndDrop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_ = conn.Close()
	}
}
