package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hostlink"

// Metrics holds the agent's Prometheus collectors.
//
// All methods are safe on a nil *Metrics, so components can be built
// without metrics and call them unconditionally.
type Metrics struct {
	sessionState     *prometheus.GaugeVec
	connectAttempts  *prometheus.CounterVec
	reconnects       prometheus.Counter
	routed           *prometheus.CounterVec
	actions          *prometheus.CounterVec
	actionDuration   *prometheus.HistogramVec
	pendingActions   prometheus.Gauge
	publishes        *prometheus.CounterVec
	inboundDropped   prometheus.Counter
	performance      *prometheus.GaugeVec
	telemetryLastRun prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_state",
				Help:      "1 for the current session state, 0 for the others.",
			},
			[]string{"state"},
		),
		connectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connect_attempts_total",
				Help:      "Broker connection attempts by result.",
			},
			[]string{"result"},
		),
		reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconnects_total",
				Help:      "Connections lost while serving.",
			},
		),
		routed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "routed_messages_total",
				Help:      "Inbound messages by routing outcome.",
			},
			[]string{"outcome"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Action executions by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Action execution time.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"kind"},
		),
		pendingActions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_actions",
				Help:      "Actions currently executing.",
			},
		),
		publishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publishes_total",
				Help:      "Outbound publish requests by result.",
			},
			[]string{"result"},
		),
		inboundDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inbound_dropped_total",
				Help:      "Inbound messages dropped on a full queue.",
			},
		),
		performance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_performance",
				Help:      "Last sampled system performance value by field.",
			},
			[]string{"field"},
		),
		telemetryLastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "telemetry_last_sample_timestamp_seconds",
				Help:      "Unix time of the last telemetry sample.",
			},
		),
	}

	reg.MustRegister(
		m.sessionState,
		m.connectAttempts,
		m.reconnects,
		m.routed,
		m.actions,
		m.actionDuration,
		m.pendingActions,
		m.publishes,
		m.inboundDropped,
		m.performance,
		m.telemetryLastRun,
	)
	return m
}

// SetSessionState marks state as current among all.
func (m *Metrics) SetSessionState(state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.sessionState.WithLabelValues(s).Set(v)
	}
}

// ObserveConnect counts one connection attempt.
func (m *Metrics) ObserveConnect(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.connectAttempts.WithLabelValues(result).Inc()
}

// IncReconnect counts a connection lost while serving.
func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// ObserveRoute counts one routed message.
func (m *Metrics) ObserveRoute(outcome string) {
	if m == nil {
		return
	}
	m.routed.WithLabelValues(outcome).Inc()
}

// ObserveAction records one action execution. The entity is not a label.
func (m *Metrics) ObserveAction(_, kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(kind, outcome).Inc()
	m.actionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetPendingActions sets the number of running actions.
func (m *Metrics) SetPendingActions(n int) {
	if m == nil {
		return
	}
	m.pendingActions.Set(float64(n))
}

// ObservePublish counts one outbound publish request.
// result is one of "published", "failed", "stale", "dropped".
func (m *Metrics) ObservePublish(result string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(result).Inc()
}

// IncInboundDropped counts one inbound message dropped on a full queue.
func (m *Metrics) IncInboundDropped() {
	if m == nil {
		return
	}
	m.inboundDropped.Inc()
}

// SetPerformance records one sampled system performance field.
func (m *Metrics) SetPerformance(field string, value float64) {
	if m == nil {
		return
	}
	m.performance.WithLabelValues(field).Set(value)
}

// MarkTelemetry records the time of a telemetry sample.
func (m *Metrics) MarkTelemetry(t time.Time) {
	if m == nil {
		return
	}
	m.telemetryLastRun.Set(float64(t.Unix()))
}
