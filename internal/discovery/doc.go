// Package discovery renders and publishes Home Assistant MQTT discovery messages.
//
// Every entity gets one retained message on
// <prefix>/<kind>/<hostname>_<slug>/config declaring its id, name, topics,
// sensor metadata and the device block shared by all entities of the host.
// The session re-publishes the full set after every connection.
package discovery
