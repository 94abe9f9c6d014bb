package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementPerformance = "system_performance"
	measurementAction      = "action"
)

// WritePerformance records one telemetry sample.
//
// Parameters:
//   - fields: Field name to value, e.g. "cpu_load" -> 12.5
//   - at: Sample time
func (c *Client) WritePerformance(fields map[string]float64, at time.Time) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}
	c.writeAPI.WritePoint(performancePoint(c.host, fields, at))
}

// WriteAction records one action execution.
func (c *Client) WriteAction(entityID, kind, outcome string, d time.Duration, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(actionPoint(c.host, entityID, kind, outcome, d, at))
}

func performancePoint(host string, fields map[string]float64, at time.Time) *write.Point {
	p := write.NewPointWithMeasurement(measurementPerformance).
		AddTag("host", host).
		SetTime(at)
	for name, v := range fields {
		p.AddField(name, v)
	}
	return p
}

func actionPoint(host, entityID, kind, outcome string, d time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		measurementAction,
		map[string]string{
			"host":    host,
			"entity":  entityID,
			"kind":    kind,
			"outcome": outcome,
		},
		map[string]interface{}{
			"duration_ms": d.Milliseconds(),
		},
		at,
	)
}
