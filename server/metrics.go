package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dotside-studios/nfc-reader-bridge/bridge"
)

// serverMetrics counts transport activity. A nil *serverMetrics records nothing.
type serverMetrics struct {
	clients prometheus.Gauge
	calls   *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	if reg == nil {
		return nil
	}

	m := &serverMetrics{
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nfcbridge",
			Name:      "clients_connected",
			Help:      "Number of connected WebSocket clients.",
		}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nfcbridge",
			Name:      "method_calls_total",
			Help:      "Total number of method calls received, by method.",
		}, []string{"method"}),
	}
	reg.MustRegister(m.clients, m.calls)
	return m
}

// call counts a method call. Unknown method names share one label value.
func (m *serverMetrics) call(method string) {
	if m == nil {
		return
	}
	switch method {
	case bridge.MethodRead, bridge.MethodStop, bridge.MethodWrite, bridge.MethodAvailable:
	default:
		method = "other"
	}
	m.calls.WithLabelValues(method).Inc()
}

func (m *serverMetrics) connected(delta float64) {
	if m != nil {
		m.clients.Add(delta)
	}
}
