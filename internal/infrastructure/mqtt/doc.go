// Package mqtt provides broker connectivity for hostlink.
//
// This package manages:
//   - One-shot connection attempts to the broker (Dialer)
//   - Message publishing with QoS guarantees
//   - Exact-topic subscriptions delivered through a bounded channel
//   - Last Will and Testament (LWT) for the availability topic
//   - Connection loss notification
//
// # Architecture
//
// paho's automatic reconnect is disabled. A Conn is a single connection:
// when it drops, Lost() fires and the session dials a new one, then
// re-publishes discovery and re-subscribes. Inbound messages are pushed by
// paho's callback into a bounded channel read by the session event loop.
//
//	paho callback → Conn.Inbound() → session event loop → router
//
// # Security Considerations
//
//   - Use TLS (cfg.Broker.TLS=true) for any broker not on localhost
//   - Credentials should come from HOSTLINK_MQTT_USERNAME / HOSTLINK_MQTT_PASSWORD
//
// # Usage
//
//	dialer := mqtt.NewDialer(cfg.MQTT, mqtt.AvailabilityWill(topics.Availability()), 64)
//	conn, err := dialer.Dial(ctx)
//	if err != nil {
//	    // retry later
//	}
//	defer conn.Close()
//
//	_ = conn.Subscribe("homeassistant/switch/desk_caffeine/set", 1)
//	for msg := range conn.Inbound() {
//	    log.Printf("Received: %s = %s", msg.Topic, msg.Payload)
//	}
package mqtt
