package prefs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/skobkin/sockgo/internal/service"
)

// Persisted option keys.
const (
	KeyServiceMode     = "serviceMode"
	KeyPortProxy       = "portProxy"
	KeyPortLocalDNS    = "portLocalDns"
	KeyPortTransproxy  = "portTransproxy"
	KeyHosts           = "hosts"
	KeyTCPFastOpen     = "tcp_fastopen"
	KeyAutoConnect     = "isAutoConnect"
	KeyDirectBootAware = "directBootAware"
)

const (
	DefaultMode           = service.ModeVPN
	DefaultPortProxy      = 1080
	DefaultPortLocalDNS   = 5450
	DefaultPortTransproxy = 8200

	MinPort = 1025
	MaxPort = 65535
)

// KV is a synchronous string key-value backend.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Store is a typed view over KV. Each key has a fixed type; values are
// validated on the way in and on the way out.
type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) ServiceMode() (service.Mode, error) {
	raw, ok, err := s.kv.Get(KeyServiceMode)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", KeyServiceMode, err)
	}
	if !ok {
		return DefaultMode, nil
	}

	return service.ParseMode(raw)
}

func (s *Store) SetServiceMode(mode service.Mode) error {
	if err := mode.Validate(); err != nil {
		return err
	}

	return s.set(KeyServiceMode, string(mode))
}

func (s *Store) PortProxy() (int, error) {
	return s.port(KeyPortProxy, DefaultPortProxy)
}

func (s *Store) SetPortProxy(port int) error {
	return s.setPort(KeyPortProxy, port)
}

func (s *Store) PortLocalDNS() (int, error) {
	return s.port(KeyPortLocalDNS, DefaultPortLocalDNS)
}

func (s *Store) SetPortLocalDNS(port int) error {
	return s.setPort(KeyPortLocalDNS, port)
}

func (s *Store) PortTransproxy() (int, error) {
	return s.port(KeyPortTransproxy, DefaultPortTransproxy)
}

func (s *Store) SetPortTransproxy(port int) error {
	return s.setPort(KeyPortTransproxy, port)
}

func (s *Store) Hosts() (string, error) {
	raw, _, err := s.kv.Get(KeyHosts)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", KeyHosts, err)
	}

	return raw, nil
}

func (s *Store) SetHosts(text string) error {
	return s.set(KeyHosts, text)
}

func (s *Store) TCPFastOpen() (bool, error) {
	return s.bool(KeyTCPFastOpen)
}

func (s *Store) SetTCPFastOpen(enabled bool) error {
	return s.set(KeyTCPFastOpen, strconv.FormatBool(enabled))
}

func (s *Store) AutoConnect() (bool, error) {
	return s.bool(KeyAutoConnect)
}

func (s *Store) SetAutoConnect(enabled bool) error {
	return s.set(KeyAutoConnect, strconv.FormatBool(enabled))
}

func (s *Store) DirectBootAware() (bool, error) {
	return s.bool(KeyDirectBootAware)
}

func (s *Store) SetDirectBootAware(enabled bool) error {
	return s.set(KeyDirectBootAware, strconv.FormatBool(enabled))
}

// ServiceOptions snapshots the options needed to start the service.
func (s *Store) ServiceOptions() (service.Options, error) {
	var (
		opts service.Options
		err  error
	)
	if opts.Mode, err = s.ServiceMode(); err != nil {
		return service.Options{}, err
	}
	if opts.PortProxy, err = s.PortProxy(); err != nil {
		return service.Options{}, err
	}
	if opts.PortLocalDNS, err = s.PortLocalDNS(); err != nil {
		return service.Options{}, err
	}
	if opts.PortTransproxy, err = s.PortTransproxy(); err != nil {
		return service.Options{}, err
	}
	if opts.TCPFastOpen, err = s.TCPFastOpen(); err != nil {
		return service.Options{}, err
	}

	return opts, nil
}

// ParsePort validates user input for a local port option.
func ParsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", raw)
	}
	if port < MinPort || port > MaxPort {
		return 0, fmt.Errorf("port must be between %d and %d", MinPort, MaxPort)
	}

	return port, nil
}

func (s *Store) port(key string, fallback int) (int, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return fallback, nil
	}
	port, err := ParsePort(raw)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}

	return port, nil
}

func (s *Store) setPort(key string, port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("%s: port must be between %d and %d", key, MinPort, MaxPort)
	}

	return s.set(key, strconv.Itoa(port))
}

func (s *Store) bool(key string) (bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("read %s: invalid bool %q", key, raw)
	}

	return value, nil
}

func (s *Store) set(key, value string) error {
	if err := s.kv.Set(key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}
