package mqtt

import "errors"

// Transport errors. The session treats all of them the same way: drop the
// connection and dial again. Match with errors.Is.
var (
	// ErrConnectionFailed wraps the cause of a failed Dial.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrConnectionLost is sent on Conn.Lost when an established connection drops.
	ErrConnectionLost = errors.New("mqtt: connection lost")

	// ErrNotConnected is returned by Publish and Subscribe on a dead Conn.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrPublishFailed wraps a rejected, oversized or timed out publish.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed wraps a rejected or timed out subscribe.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrTimeout marks a broker acknowledgement that never came.
	ErrTimeout = errors.New("mqtt: operation timed out")
)

// Argument errors. These point at a bug in the caller, not the broker.
var (
	ErrInvalidQoS   = errors.New("mqtt: qos must be 0, 1 or 2")
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
