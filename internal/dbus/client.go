package dbus

import (
	"context"
	"fmt"
	"sync"

	godbus "github.com/godbus/dbus/v5"
)

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Client holds lazily opened connections to the session and system buses.
//
// Thread Safety: all methods are safe for concurrent use. Connections are
// opened on first use and shared until Close.
type Client struct {
	mu      sync.Mutex
	session *godbus.Conn
	system  *godbus.Conn
	logger  Logger

	// connect is swapped in tests.
	connect func(ctx context.Context, system bool) (*godbus.Conn, error)
}

// NewClient creates a client. No bus is contacted until first use.
func NewClient() *Client {
	return &Client{
		logger:  noopLogger{},
		connect: connectBus,
	}
}

// SetLogger sets the logger.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

func connectBus(ctx context.Context, system bool) (*godbus.Conn, error) {
	if system {
		return godbus.ConnectSystemBus(godbus.WithContext(ctx))
	}
	return godbus.ConnectSessionBus(godbus.WithContext(ctx))
}

// conn returns the connection for the requested bus, opening it if needed.
func (c *Client) conn(ctx context.Context, system bool) (*godbus.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot := &c.session
	name := "session"
	if system {
		slot = &c.system
		name = "system"
	}
	if *slot != nil && (*slot).Connected() {
		return *slot, nil
	}

	conn, err := c.connect(ctx, system)
	if err != nil {
		return nil, fmt.Errorf("%w: %s bus: %w", ErrBusUnavailable, name, err)
	}
	c.logger.Debug("connected to d-bus", "bus", name)
	*slot = conn
	return conn, nil
}

// Call invokes iface.method on the object at path, passing one boolean.
// This is the equivalent of `busctl call <service> <path> <iface> <method> b <arg>`.
func (c *Client) Call(ctx context.Context, system bool, service, path, iface, method string, arg bool) error {
	if !godbus.ObjectPath(path).IsValid() {
		return fmt.Errorf("%w: invalid object path %q", ErrCallFailed, path)
	}

	conn, err := c.conn(ctx, system)
	if err != nil {
		return err
	}

	call := conn.Object(service, godbus.ObjectPath(path)).CallWithContext(ctx, iface+"."+method, 0, arg)
	if call.Err != nil {
		return fmt.Errorf("%w: %s.%s: %w", ErrCallFailed, iface, method, call.Err)
	}
	return nil
}

// Close closes any open bus connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, slot := range []**godbus.Conn{&c.session, &c.system} {
		if *slot == nil {
			continue
		}
		if err := (*slot).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		*slot = nil
	}
	return firstErr
}
