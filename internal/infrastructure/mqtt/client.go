package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/hostlink/internal/infrastructure/config"
)

// Message is one inbound publish received on a subscribed topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer is told about inbound messages dropped on a full queue.
type Observer interface {
	IncInboundDropped()
}

type noopObserver struct{}

func (noopObserver) IncInboundDropped() {}

// Dialer opens broker connections. Each Dial returns a fresh Conn; a lost
// Conn is never revived.
type Dialer struct {
	cfg          config.MQTTConfig
	will         *Will
	inboundQueue int
	logger       Logger
	observer     Observer

	// newClient is swapped in tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
}

// NewDialer creates a dialer for the configured broker.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//   - will: Last Will registered on every connection (may be nil)
//   - inboundQueue: Buffer size between the paho callback and Inbound().
//     Messages arriving on a full buffer are dropped.
func NewDialer(cfg config.MQTTConfig, will *Will, inboundQueue int) *Dialer {
	if inboundQueue < 1 {
		inboundQueue = defaultInboundQueue
	}
	return &Dialer{
		cfg:          cfg,
		will:         will,
		inboundQueue: inboundQueue,
		logger:       noopLogger{},
		observer:     noopObserver{},
		newClient:    pahomqtt.NewClient,
	}
}

// SetLogger sets a logger used by every Conn the dialer creates.
func (d *Dialer) SetLogger(logger Logger) {
	d.logger = logger
}

// SetObserver sets the observer used by every Conn the dialer creates.
func (d *Dialer) SetObserver(o Observer) {
	d.observer = o
}

// Broker returns the broker URL for log lines.
func (d *Dialer) Broker() string {
	return brokerURL(d.cfg)
}

// Dial performs one connection attempt.
//
// The attempt is bounded by ctx and by the connect timeout. Automatic
// reconnection is off: when the connection later drops, the error is
// delivered on Conn.Lost and the caller dials again.
//
// Returns:
//   - *Conn: Connected client ready for Subscribe and Publish
//   - error: ErrConnectionFailed wrapping the cause
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	opts := buildClientOptions(d.cfg, d.will)

	c := &Conn{
		qos:      byte(d.cfg.QoS),
		inbound:  make(chan Message, d.inboundQueue),
		lost:     make(chan error, 1),
		done:     make(chan struct{}),
		logger:   d.logger,
		observer: d.observer,
	}

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleLost(err)
	})

	c.client = d.newClient(opts)
	token := c.client.Connect()

	timer := time.NewTimer(defaultConnectTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	case <-timer.C:
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.connected.Store(true)
	return c, nil
}

// Conn is one live broker connection.
//
// Thread Safety:
//   - Publish and Subscribe are safe for concurrent use, though the session
//     calls them from its event loop only.
//   - Inbound and Lost may be read from one goroutine while paho writes to them.
type Conn struct {
	client pahomqtt.Client
	qos    byte

	inbound chan Message
	lost    chan error

	connected atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	logger   Logger
	observer Observer
}

// Inbound returns the stream of received messages.
func (c *Conn) Inbound() <-chan Message {
	return c.inbound
}

// Lost delivers one error when the connection drops unexpectedly.
func (c *Conn) Lost() <-chan error {
	return c.lost
}

// IsConnected returns the current connection state.
func (c *Conn) IsConnected() bool {
	return c.connected.Load() && c.client.IsConnected()
}

// QoS returns the configured default QoS.
func (c *Conn) QoS() byte {
	return c.qos
}

// Close disconnects from the broker. Safe to call more than once.
//
// Call it after publishing the graceful "offline" availability so that the
// broker does not fire the will.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		close(c.done)
		c.client.Disconnect(defaultDisconnectQuiesce)
	})
}

// handleLost is called by paho when the connection drops.
func (c *Conn) handleLost(err error) {
	c.connected.Store(false)
	if err == nil {
		err = ErrConnectionLost
	}
	select {
	case c.lost <- fmt.Errorf("%w: %w", ErrConnectionLost, err):
	default:
	}
}

// deliver hands a paho message to Inbound. It never blocks: paho runs it on
// the goroutine that also completes PUBACKs, so a full queue drops the message.
func (c *Conn) deliver(_ pahomqtt.Client, msg pahomqtt.Message) {
	m := Message{Topic: msg.Topic(), Payload: msg.Payload()}
	select {
	case c.inbound <- m:
	case <-c.done:
		c.logger.Debug("connection closed, dropping inbound message", "topic", m.Topic)
	default:
		c.logger.Warn("inbound queue full, dropping message", "topic", m.Topic)
		c.observer.IncInboundDropped()
	}
}
