package session

import (
	"context"

	"github.com/nerrad567/hostlink/internal/infrastructure/mqtt"
)

// Conn is one live broker connection. *mqtt.Conn satisfies it.
type Conn interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte) error
	Inbound() <-chan mqtt.Message
	Lost() <-chan error
	IsConnected() bool
	Close()
}

// Dialer performs one connection attempt.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

// MQTTDialer adapts *mqtt.Dialer, whose Dial returns the concrete type.
func MQTTDialer(d *mqtt.Dialer) Dialer {
	return DialerFunc(func(ctx context.Context) (Conn, error) {
		c, err := d.Dial(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// Request is one outbound publish handed to the session.
type Request struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool

	// Generation is the connection the request belongs to. Zero means
	// whichever connection is current when the request is written.
	Generation uint64
}
