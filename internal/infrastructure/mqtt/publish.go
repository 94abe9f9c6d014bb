package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// maxPayloadSize caps a single outgoing message. Discovery bodies and the
// performance JSON are a few kilobytes at most.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits for the broker acknowledgement
// (QoS 1 and 2) or the local write (QoS 0).
//
// Discovery, state and availability topics are published retained so the
// hub sees the latest value after its own restart. Commands never are.
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or
//     ErrPublishFailed wrapping the cause
func (c *Conn) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := c.ready(topic, qos); err != nil {
		return err
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %d byte payload for %s exceeds %d", ErrPublishFailed, len(payload), topic, maxPayloadSize)
	}
	return await(c.client.Publish(topic, qos, retained, payload), ErrPublishFailed)
}

// ready checks the arguments shared by Publish and Subscribe and the
// connection state.
func (c *Conn) ready(topic string, qos byte) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case !c.IsConnected():
		return ErrNotConnected
	}
	return nil
}

// await waits for token and tags any failure with kind.
func await(token pahomqtt.Token, kind error) error {
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: %w after %v", kind, ErrTimeout, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return nil
}
