// Package influxdb keeps an optional history of hostlink telemetry and
// action outcomes in InfluxDB v2.
//
// Writes go through the client's non-blocking batched WriteAPI, so a slow
// or unreachable server never stalls the agent. Asynchronous failures are
// reported through SetOnError.
package influxdb
