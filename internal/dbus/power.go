package dbus

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"
)

// logind constants.
const (
	logindService   = "org.freedesktop.login1"
	logindPath      = "/org/freedesktop/login1"
	logindInterface = "org.freedesktop.login1.Manager"
	inhibitWhat     = "sleep"
	inhibitWho      = "hostlink"
	inhibitWhy      = "Publish suspended status to Home Assistant"
	inhibitMode     = "delay"
)

// PowerHandler reacts to power transitions.
type PowerHandler interface {
	// Suspending is called when the host is about to sleep, while the
	// inhibitor is still held.
	Suspending()

	// Resumed is called after the host wakes up.
	Resumed()
}

// sleepSource abstracts logind for the monitor.
type sleepSource interface {
	// Inhibit takes a delay inhibitor. Closing it releases the lock.
	Inhibit(ctx context.Context) (io.Closer, error)

	// PrepareForSleep streams the signal argument: true before sleep, false after resume.
	PrepareForSleep(ctx context.Context) (<-chan bool, error)
}

// PowerMonitor watches logind suspend and resume.
//
// While running it holds a delay inhibitor so the handler gets a chance to
// publish before the host sleeps. The inhibitor is released after grace and
// taken again on resume.
type PowerMonitor struct {
	source  sleepSource
	handler PowerHandler
	grace   time.Duration
	logger  Logger

	mu        sync.Mutex
	inhibitor io.Closer
}

// NewPowerMonitor creates a monitor on the system bus of c.
func NewPowerMonitor(c *Client, handler PowerHandler, grace time.Duration) *PowerMonitor {
	return newPowerMonitor(&logind{client: c}, handler, grace, c.logger)
}

func newPowerMonitor(src sleepSource, handler PowerHandler, grace time.Duration, logger Logger) *PowerMonitor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &PowerMonitor{
		source:  src,
		handler: handler,
		grace:   grace,
		logger:  logger,
	}
}

// Run watches for power events until ctx is cancelled.
//
// Returns:
//   - error: If the signal subscription fails. A failed inhibitor is only
//     logged; events are still handled without it.
func (m *PowerMonitor) Run(ctx context.Context) error {
	events, err := m.source.PrepareForSleep(ctx)
	if err != nil {
		return err
	}

	m.acquire(ctx)
	defer m.release()

	m.logger.Info("power monitor started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case sleeping, ok := <-events:
			if !ok {
				return nil
			}
			if sleeping {
				m.suspending(ctx)
			} else {
				m.resumed(ctx)
			}
		}
	}
}

func (m *PowerMonitor) suspending(ctx context.Context) {
	m.logger.Info("system is preparing to sleep")
	m.handler.Suspending()

	timer := time.NewTimer(m.grace)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	m.release()
}

func (m *PowerMonitor) resumed(ctx context.Context) {
	m.logger.Info("system resumed")
	m.acquire(ctx)
	m.handler.Resumed()
}

func (m *PowerMonitor) acquire(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inhibitor != nil {
		return
	}
	inh, err := m.source.Inhibit(ctx)
	if err != nil {
		m.logger.Warn("sleep inhibitor unavailable", "error", err)
		return
	}
	m.inhibitor = inh
	m.logger.Debug("sleep inhibitor acquired")
}

func (m *PowerMonitor) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inhibitor == nil {
		return
	}
	if err := m.inhibitor.Close(); err != nil {
		m.logger.Warn("releasing sleep inhibitor failed", "error", err)
	}
	m.inhibitor = nil
	m.logger.Debug("sleep inhibitor released")
}

// logind implements sleepSource on the system bus.
type logind struct {
	client *Client
}

func (l *logind) Inhibit(ctx context.Context) (io.Closer, error) {
	conn, err := l.client.conn(ctx, true)
	if err != nil {
		return nil, err
	}

	var fd godbus.UnixFD
	err = conn.Object(logindService, logindPath).
		CallWithContext(ctx, logindInterface+".Inhibit", 0, inhibitWhat, inhibitWho, inhibitWhy, inhibitMode).
		Store(&fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInhibitFailed, err)
	}
	return os.NewFile(uintptr(fd), "logind-inhibitor"), nil
}

func (l *logind) PrepareForSleep(ctx context.Context) (<-chan bool, error) {
	conn, err := l.client.conn(ctx, true)
	if err != nil {
		return nil, err
	}

	if err := conn.AddMatchSignal(
		godbus.WithMatchObjectPath(logindPath),
		godbus.WithMatchInterface(logindInterface),
		godbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return nil, fmt.Errorf("subscribing to PrepareForSleep: %w", err)
	}

	signals := make(chan *godbus.Signal, 8)
	conn.Signal(signals)

	out := make(chan bool)
	go func() {
		defer close(out)
		defer conn.RemoveSignal(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				sleeping, ok := parsePrepareForSleep(sig)
				if !ok {
					continue
				}
				select {
				case out <- sleeping:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// parsePrepareForSleep extracts the boolean argument of a PrepareForSleep signal.
func parsePrepareForSleep(sig *godbus.Signal) (bool, bool) {
	if sig == nil || sig.Name != logindInterface+".PrepareForSleep" || len(sig.Body) != 1 {
		return false, false
	}
	v, ok := sig.Body[0].(bool)
	return v, ok
}
