package telemetry

import (
	"time"
)

// Gauges receives each field as a gauge value.
type Gauges interface {
	SetPerformance(field string, value float64)
	MarkTelemetry(t time.Time)
}

// History stores samples for later analysis.
type History interface {
	WritePerformance(fields map[string]float64, at time.Time)
}

// GaugeSink mirrors samples into gauges.
func GaugeSink(g Gauges) Sink {
	return SinkFunc(func(s Sample) {
		for name, v := range s.Fields() {
			g.SetPerformance(name, v)
		}
		g.MarkTelemetry(s.At)
	})
}

// HistorySink writes samples to h.
func HistorySink(h History) Sink {
	return SinkFunc(func(s Sample) {
		h.WritePerformance(s.Fields(), s.At)
	})
}
