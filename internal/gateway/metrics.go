package gateway

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	connections prometheus.Gauge
	sessions    prometheus.Gauge
	inbound     *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	bytesOut    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}

	m := &metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yepcord",
			Subsystem: "gateway",
			Name:      "connections_active",
			Help:      "Number of open client sockets",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yepcord",
			Subsystem: "gateway",
			Name:      "sessions_active",
			Help:      "Number of identified sessions, attached or awaiting resume",
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yepcord",
			Subsystem: "gateway",
			Name:      "inbound_frames_total",
			Help:      "Client frames received by opcode",
		}, []string{"op"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yepcord",
			Subsystem: "gateway",
			Name:      "dispatches_total",
			Help:      "Dispatches queued to sessions by event name",
		}, []string{"event"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yepcord",
			Subsystem: "gateway",
			Name:      "bus_events_dropped_total",
			Help:      "Bus events the gateway could not handle",
		}, []string{"reason"}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yepcord",
			Subsystem: "gateway",
			Name:      "bytes_written_total",
			Help:      "Uncompressed bytes written to client sockets",
		}),
	}
	reg.MustRegister(m.connections, m.sessions, m.inbound, m.dispatches, m.dropped, m.bytesOut)
	return m
}

// All methods are nil-safe so that tests can run without a registry.

func (m *metrics) connOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *metrics) connClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *metrics) sessionAdded() {
	if m != nil {
		m.sessions.Inc()
	}
}

func (m *metrics) sessionRemoved() {
	if m != nil {
		m.sessions.Dec()
	}
}

func (m *metrics) frameIn(op string) {
	if m != nil {
		m.inbound.WithLabelValues(op).Inc()
	}
}

func (m *metrics) dispatched(name string) {
	if m != nil {
		m.dispatches.WithLabelValues(name).Inc()
	}
}

func (m *metrics) drop(reason string) {
	if m != nil {
		m.dropped.WithLabelValues(reason).Inc()
	}
}

func (m *metrics) written(n int) {
	if m != nil {
		m.bytesOut.Add(float64(n))
	}
}
