package entity

import "fmt"

// AgentTopicPrefix is the root for hostlink's own topics outside the discovery tree.
const AgentTopicPrefix = "hostlink"

// Fixed slugs of the built-in entities.
const (
	SlugNotifications = "notifications"
	SlugStatus        = "status"
	SlugPerformance   = "system_performance"
)

// Topics provides builders for the MQTT topics of one host.
// Using these helpers keeps topic naming consistent across the agent.
//
//	topics := entity.Topics{Prefix: "homeassistant", Hostname: "desk"}
//	topics.Command(e) // "homeassistant/switch/desk_caffeine/set"
type Topics struct {
	Prefix   string
	Hostname string
}

// =============================================================================
// Discovery tree
// =============================================================================

// Config returns the retained discovery topic of e.
//
// Example: homeassistant/switch/desk_caffeine/config
func (t Topics) Config(e Entity) string {
	return fmt.Sprintf("%s/%s/%s/config", t.Prefix, e.Kind, e.ID)
}

// Command returns the topic the hub sends commands for e on.
//
// Example: homeassistant/switch/desk_caffeine/set
func (t Topics) Command(e Entity) string {
	return fmt.Sprintf("%s/%s/%s/set", t.Prefix, e.Kind, e.ID)
}

// State returns the topic e publishes its state on.
// Sensors sharing a JSON document read their owner's topic.
//
// Example: homeassistant/sensor/desk_system_performance/state
func (t Topics) State(e Entity) string {
	id := e.ID
	if e.SharedState != "" {
		id = t.Hostname + "_" + e.SharedState
	}
	return fmt.Sprintf("%s/%s/%s/state", t.Prefix, e.Kind, id)
}

// Notify returns the notification intake topic.
//
// Example: homeassistant/notify/desk_notifications/set
func (t Topics) Notify() string {
	return fmt.Sprintf("%s/%s/%s_%s/set", t.Prefix, KindNotify, t.Hostname, SlugNotifications)
}

// Status returns the state topic of the status sensor.
//
// Example: homeassistant/sensor/desk_status/state
func (t Topics) Status() string {
	return fmt.Sprintf("%s/%s/%s_%s/state", t.Prefix, KindSensor, t.Hostname, SlugStatus)
}

// Performance returns the shared state topic of the system performance sensors.
//
// Example: homeassistant/sensor/desk_system_performance/state
func (t Topics) Performance() string {
	return fmt.Sprintf("%s/%s/%s_%s/state", t.Prefix, KindSensor, t.Hostname, SlugPerformance)
}

// =============================================================================
// Agent topics
// =============================================================================

// Availability returns the retained online/offline topic, also used as the broker will.
//
// Example: hostlink/desk/availability
func (t Topics) Availability() string {
	return fmt.Sprintf("%s/%s/availability", AgentTopicPrefix, t.Hostname)
}

// Power returns the local event topic carrying suspend and resume transitions.
// It is routed internally and never subscribed on the broker.
//
// Example: hostlink/desk/event/power
func (t Topics) Power() string {
	return fmt.Sprintf("%s/%s/event/power", AgentTopicPrefix, t.Hostname)
}
