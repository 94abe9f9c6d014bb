// Package telemetry samples CPU, memory and disk figures of the host and
// hands each sample to a set of sinks: the MQTT performance sensors,
// Prometheus gauges and the optional InfluxDB history.
package telemetry
