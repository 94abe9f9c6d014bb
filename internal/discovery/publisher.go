package discovery

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/hostlink/internal/entity"
)

// discoveryQoS is the QoS of discovery messages. They are always retained.
const discoveryQoS = 1

// Conn is the part of the broker connection discovery needs.
type Conn interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Publisher emits Home Assistant discovery messages for a set of entities.
// It holds no connection; the caller passes the live one to PublishAll.
type Publisher struct {
	topics entity.Topics
	device DeviceInfo
	origin OriginInfo
}

// NewPublisher creates a publisher for the host described by topics.
func NewPublisher(topics entity.Topics, device DeviceInfo, version string) *Publisher {
	return &Publisher{
		topics: topics,
		device: device,
		origin: OriginInfo{Name: "hostlink", SWVersion: version},
	}
}

// Payload returns the encoded discovery body for e.
func (p *Publisher) Payload(e entity.Entity) ([]byte, error) {
	data, err := json.Marshal(p.buildConfig(e))
	if err != nil {
		return nil, fmt.Errorf("encoding discovery for %s: %w", e, err)
	}
	return data, nil
}

// PublishAll publishes one retained discovery message per entity.
//
// Publishing is idempotent on the hub, so it is safe to call after every
// connection. A failure for one entity does not stop the others unless the
// connection itself is gone, in which case PublishAll returns immediately.
//
// Returns:
//   - int: Number of messages published
//   - error: All failures joined, or nil
func (p *Publisher) PublishAll(conn Conn, entities []entity.Entity) (int, error) {
	var errs []error
	published := 0

	for _, e := range entities {
		payload, err := p.Payload(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := conn.Publish(p.topics.Config(e), payload, discoveryQoS, true); err != nil {
			errs = append(errs, fmt.Errorf("publishing discovery for %s: %w", e, err))
			if !conn.IsConnected() {
				break
			}
			continue
		}
		published++
	}

	return published, errors.Join(errs...)
}
