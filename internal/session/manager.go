package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/hostlink/internal/action"
	"github.com/nerrad567/hostlink/internal/discovery"
	"github.com/nerrad567/hostlink/internal/entity"
	"github.com/nerrad567/hostlink/internal/infrastructure/config"
	"github.com/nerrad567/hostlink/internal/infrastructure/mqtt"
	"github.com/nerrad567/hostlink/internal/notify"
	"github.com/nerrad567/hostlink/internal/router"
)

// Defaults used when the session config leaves a value unset.
const (
	defaultRetryInterval = 5 * time.Second
	defaultDrainTimeout  = 10 * time.Second
	defaultActionTimeout = 30 * time.Second
	defaultOutboundQueue = 64

	// localQueue buffers internal events such as power transitions.
	localQueue = 8
)

// stopReason tells Run why serve returned.
type stopReason int

const (
	stopShutdown stopReason = iota
	stopLost
	stopReconnect
)

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer receives session events, typically the metrics collector.
type Observer interface {
	SetSessionState(state string, all []string)
	ObserveConnect(ok bool)
	IncReconnect()
	ObservePublish(result string)
	SetPendingActions(n int)
	ObserveRoute(outcome string)
}

type noopObserver struct{}

func (noopObserver) SetSessionState(string, []string) {}
func (noopObserver) ObserveConnect(bool)              {}
func (noopObserver) IncReconnect()                    {}
func (noopObserver) ObservePublish(string)            {}
func (noopObserver) SetPendingActions(int)            {}
func (noopObserver) ObserveRoute(string)              {}

// StateStore persists switch states across restarts.
type StateStore interface {
	Save(ctx context.Context, entityID, state string) error
}

// Deps are the collaborators of a Manager.
type Deps struct {
	Config    config.SessionConfig
	QoS       byte
	Catalog   *entity.Catalog
	Dialer    Dialer
	Discovery *discovery.Publisher
	Actions   *action.Registry

	// Notifier delivers notifications. Nil disables delivery; the intake
	// topic is still bound and messages are logged and dropped.
	Notifier notify.Sender

	// Store persists switch states. May be nil.
	Store StateStore

	// InitialStates seeds remembered switch states by entity ID.
	InitialStates map[string]string

	// PowerEvents binds the local power event topic.
	PowerEvents bool
}

// Manager owns the broker connection and drives the session state machine.
//
// Only the goroutine running Run touches the connection. Everything else
// hands publish requests to Publish and internal events to Inject.
type Manager struct {
	cfg       config.SessionConfig
	qos       byte
	catalog   *entity.Catalog
	topics    entity.Topics
	dialer    Dialer
	discovery *discovery.Publisher
	actions   *action.Registry
	notifier  notify.Sender
	store     StateStore
	router    *router.Router

	powerEvents bool

	outbound  chan Request
	local     chan mqtt.Message
	reconnect chan struct{}

	state      atomic.Int32
	stopped    atomic.Bool
	generation atomic.Uint64

	// switches is fixed after New; each slot has its own lock.
	switches map[string]*switchSlot

	hookMu    sync.Mutex
	onServing []func()

	logger   Logger
	observer Observer
}

// switchSlot is the remembered state of one switch.
type switchSlot struct {
	mu    sync.Mutex
	state string
}

// New creates a session manager.
func New(deps Deps) (*Manager, error) {
	if deps.Catalog == nil || deps.Dialer == nil || deps.Discovery == nil || deps.Actions == nil {
		return nil, ErrMissingDependency
	}

	cfg := withDefaults(deps.Config)

	m := &Manager{
		cfg:         cfg,
		qos:         deps.QoS,
		catalog:     deps.Catalog,
		topics:      deps.Catalog.Topics,
		dialer:      deps.Dialer,
		discovery:   deps.Discovery,
		actions:     deps.Actions,
		notifier:    deps.Notifier,
		store:       deps.Store,
		router:      router.New(cfg.MaxPendingActions),
		powerEvents: deps.PowerEvents,
		outbound:    make(chan Request, cfg.OutboundQueue),
		local:       make(chan mqtt.Message, localQueue),
		reconnect:   make(chan struct{}, 1),
		switches:    make(map[string]*switchSlot, len(deps.Catalog.Switches)),
		logger:      noopLogger{},
		observer:    noopObserver{},
	}

	for _, e := range deps.Catalog.Switches {
		slot := &switchSlot{}
		if s := deps.InitialStates[e.ID]; s == entity.StateOn || s == entity.StateOff {
			slot.state = s
		}
		m.switches[e.ID] = slot
	}

	return m, nil
}

func withDefaults(cfg config.SessionConfig) config.SessionConfig {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}
	if cfg.OutboundQueue < 1 {
		cfg.OutboundQueue = defaultOutboundQueue
	}
	return cfg
}

// SetLogger sets the logger for the manager and its router.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
	m.router.SetLogger(logger)
}

// SetObserver sets the observer for the manager and its router.
func (m *Manager) SetObserver(o Observer) {
	m.observer = o
	m.router.SetObserver(o)
}

// OnServing registers fn to run each time the session enters Serving.
// fn runs on the session goroutine and must not block.
func (m *Manager) OnServing(fn func()) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.onServing = append(m.onServing, fn)
}

// State returns the current session state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Generation returns the number of the current connection, starting at 1.
func (m *Manager) Generation() uint64 {
	return m.generation.Load()
}

// SwitchState returns the remembered state of a switch, or "" if unknown.
func (m *Manager) SwitchState(entityID string) string {
	slot, ok := m.switches[entityID]
	if !ok {
		return ""
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.state
}

// Publish hands req to the session without blocking.
//
// Requests are accepted while Serving and while draining on shutdown. A
// full queue or any other state drops the request.
//
// Returns:
//   - bool: true if the request was queued
func (m *Manager) Publish(req Request) bool {
	st := m.State()
	if m.stopped.Load() || (st != StateServing && st != StateShuttingDown) {
		m.logger.Debug("not serving, dropping publish", "topic", req.Topic, "state", st.String())
		m.observer.ObservePublish("dropped")
		return false
	}

	select {
	case m.outbound <- req:
		return true
	default:
		m.logger.Warn("outbound queue full, dropping publish", "topic", req.Topic)
		m.observer.ObservePublish("dropped")
		return false
	}
}

// Inject routes an internal event as if it arrived on topic.
// Only topics bound with BindLocal have a handler.
func (m *Manager) Inject(topic string, payload []byte) bool {
	select {
	case m.local <- mqtt.Message{Topic: topic, Payload: payload}:
		return true
	default:
		m.logger.Warn("local event queue full, dropping event", "topic", topic)
		return false
	}
}

// Suspending reports that the host is about to sleep.
func (m *Manager) Suspending() {
	m.Inject(m.topics.Power(), []byte(PowerSleep))
}

// Resumed reports that the host woke up.
func (m *Manager) Resumed() {
	m.Inject(m.topics.Power(), []byte(PowerWake))
}

// Reconnect asks the session to drop the current connection and go
// through discovery and subscription again.
func (m *Manager) Reconnect() {
	select {
	case m.reconnect <- struct{}{}:
	default:
	}
}

// Run drives the session until ctx is cancelled.
//
// Connection failures are retried every retry interval forever. A lost
// connection is redialled at once. On cancellation the session stops
// routing, lets running actions publish their results for up to the drain
// timeout, publishes the offline status and disconnects.
func (m *Manager) Run(ctx context.Context) error {
	for {
		m.setState(StateConnecting)
		conn, err := m.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return m.shutdown(nil, 0)
			}
			m.observer.ObserveConnect(false)
			m.setState(StateDisconnected)
			m.logger.Warn("broker connection failed, will retry",
				"error", err,
				"retry_in", m.cfg.RetryInterval,
			)
			if !sleepCtx(ctx, m.cfg.RetryInterval) {
				return m.shutdown(nil, 0)
			}
			continue
		}
		m.observer.ObserveConnect(true)

		gen := m.generation.Add(1)
		connID := uuid.NewString()
		m.logger.Info("connected to broker", "generation", gen, "connection_id", connID)

		if err := m.establish(conn, gen); err != nil {
			conn.Close()
			if ctx.Err() != nil {
				return m.shutdown(nil, 0)
			}
			m.setState(StateDisconnected)
			m.logger.Warn("session setup failed, will retry",
				"error", err,
				"connection_id", connID,
				"retry_in", m.cfg.RetryInterval,
			)
			if !sleepCtx(ctx, m.cfg.RetryInterval) {
				return m.shutdown(nil, 0)
			}
			continue
		}

		switch m.serve(ctx, conn, gen) {
		case stopShutdown:
			return m.shutdown(conn, gen)
		case stopLost:
			m.observer.IncReconnect()
			m.logger.Warn("connection lost, reconnecting", "connection_id", connID)
		case stopReconnect:
			m.logger.Info("reconnect requested", "connection_id", connID)
		}
		conn.Close()
	}
}

// establish runs Discovering and Subscribing on a fresh connection and
// enters Serving.
func (m *Manager) establish(conn Conn, gen uint64) error {
	m.discardStale()

	m.setState(StateDiscovering)
	n, err := m.discovery.PublishAll(conn, m.catalog.All())
	if err != nil {
		if !conn.IsConnected() {
			return fmt.Errorf("discovery: %w", err)
		}
		m.logger.Warn("some discovery messages failed", "error", err)
	}
	m.logger.Debug("discovery published", "entities", n)

	m.setState(StateSubscribing)
	m.router.Reset()
	if err := m.bind(gen); err != nil {
		return err
	}
	for _, topic := range m.router.Subscriptions() {
		if err := conn.Subscribe(topic, m.qos); err != nil {
			return fmt.Errorf("subscribing %s: %w", topic, err)
		}
	}

	for _, req := range m.announcements() {
		if err := conn.Publish(req.Topic, req.Payload, req.QoS, req.Retained); err != nil {
			if !conn.IsConnected() {
				return fmt.Errorf("announcing: %w", err)
			}
			m.logger.Warn("announcement failed", "topic", req.Topic, "error", err)
		}
	}

	m.setState(StateServing)
	m.logger.Info("serving", "generation", gen, "subscriptions", len(m.router.Subscriptions()))

	m.hookMu.Lock()
	hooks := append([]func(){}, m.onServing...)
	m.hookMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// discardStale drops reconnect requests and power events queued while no
// connection was serving. A fresh connection already reflects both.
func (m *Manager) discardStale() {
	select {
	case <-m.reconnect:
		m.logger.Debug("dropping reconnect request from before this connection")
	default:
	}

	var keep []mqtt.Message
	for drained := false; !drained; {
		select {
		case msg := <-m.local:
			if msg.Topic == m.topics.Power() {
				m.logger.Debug("dropping power event from before this connection", "payload", string(msg.Payload))
				break
			}
			keep = append(keep, msg)
		default:
			drained = true
		}
	}
	for _, msg := range keep {
		m.Inject(msg.Topic, msg.Payload)
	}
}

// announcements are published after subscribing: availability, status and
// every remembered switch state.
func (m *Manager) announcements() []Request {
	reqs := []Request{
		{Topic: m.topics.Availability(), Payload: []byte(mqtt.PayloadOnline), QoS: m.qos, Retained: true},
		m.statusRequest(StatusOn, 0),
	}
	for _, e := range m.catalog.Switches {
		if s := m.SwitchState(e.ID); s != "" {
			reqs = append(reqs, Request{Topic: m.topics.State(e), Payload: []byte(s), QoS: m.qos, Retained: true})
		}
	}
	return reqs
}

func (m *Manager) statusRequest(status string, gen uint64) Request {
	payload, _ := json.Marshal(struct {
		Status string `json:"status"`
	}{status})
	return Request{
		Topic:      m.topics.State(m.catalog.Status),
		Payload:    payload,
		QoS:        m.qos,
		Retained:   true,
		Generation: gen,
	}
}

// serve is the event loop of one connection.
func (m *Manager) serve(ctx context.Context, conn Conn, gen uint64) stopReason {
	for {
		select {
		case <-ctx.Done():
			return stopShutdown

		case err := <-conn.Lost():
			m.logger.Warn("transport error", "error", err)
			return stopLost

		case msg := <-conn.Inbound():
			m.router.Route(msg.Topic, msg.Payload)
			m.observer.SetPendingActions(m.router.Pending())

		case msg := <-m.local:
			m.router.Route(msg.Topic, msg.Payload)

		case req := <-m.outbound:
			if !m.write(conn, gen, req) {
				return stopLost
			}
			m.observer.SetPendingActions(m.router.Pending())

		case <-m.reconnect:
			return stopReconnect
		}
	}
}

// write publishes req on conn.
//
// Returns false when the connection is gone.
func (m *Manager) write(conn Conn, gen uint64, req Request) bool {
	if req.Generation != 0 && req.Generation != gen {
		m.logger.Info("dropping publish from an earlier connection",
			"topic", req.Topic,
			"request_generation", req.Generation,
			"generation", gen,
		)
		m.observer.ObservePublish("stale")
		return true
	}

	if err := conn.Publish(req.Topic, req.Payload, req.QoS, req.Retained); err != nil {
		m.observer.ObservePublish("failed")
		if !conn.IsConnected() || errors.Is(err, mqtt.ErrNotConnected) {
			m.logger.Warn("publish failed, connection gone", "topic", req.Topic, "error", err)
			return false
		}
		m.logger.Warn("publish failed", "topic", req.Topic, "error", err)
		return true
	}
	m.observer.ObservePublish("published")
	return true
}

// shutdown stops routing, drains running actions and says goodbye.
// conn is nil when no connection is up.
func (m *Manager) shutdown(conn Conn, gen uint64) error {
	m.setState(StateShuttingDown)
	m.router.Close()
	m.logger.Info("shutting down", "pending_actions", m.router.Pending())

	drainCtx, cancel := context.WithTimeout(context.Background(), m.cfg.DrainTimeout)
	defer cancel()

	drained := make(chan error, 1)
	go func() { drained <- m.router.Wait(drainCtx) }()

drain:
	for {
		select {
		case err := <-drained:
			if err != nil {
				m.logger.Warn("drain timeout reached, abandoning running actions",
					"pending_actions", m.router.Pending(),
				)
			}
			break drain
		case req := <-m.outbound:
			if conn != nil {
				m.write(conn, gen, req)
			}
		}
	}

	m.stopped.Store(true)

	if conn != nil {
	flush:
		for {
			select {
			case req := <-m.outbound:
				m.write(conn, gen, req)
			default:
				break flush
			}
		}

		goodbye := []Request{
			m.statusRequest(StatusOff, 0),
			{Topic: m.topics.Availability(), Payload: []byte(mqtt.PayloadOffline), QoS: m.qos, Retained: true},
		}
		for _, req := range goodbye {
			if err := conn.Publish(req.Topic, req.Payload, req.QoS, req.Retained); err != nil {
				m.logger.Warn("goodbye publish failed", "topic", req.Topic, "error", err)
			}
		}
		conn.Close()
	}

	m.logger.Info("session stopped")
	return nil
}

func (m *Manager) setState(s State) {
	if State(m.state.Swap(int32(s))) == s {
		return
	}
	m.logger.Debug("session state", "state", s.String())
	m.observer.SetSessionState(s.String(), stateNames)
}

// sleepCtx waits for d. Returns false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
