package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts plugin activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsStarted prometheus.Counter
	TagsRead        prometheus.Counter
	SessionErrors   *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	BusyRejections  prometheus.Counter
}

// NewMetrics creates the plugin counters and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nfcbridge",
			Name:      "sessions_started_total",
			Help:      "Total number of reader sessions started by NfcRead.",
		}),
		TagsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nfcbridge",
			Name:      "tags_read_total",
			Help:      "Total number of tags read successfully.",
		}),
		SessionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nfcbridge",
			Name:      "session_errors_total",
			Help:      "Total number of reads resolved with an error, by session error code.",
		}, []string{"code"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nfcbridge",
			Name:      "events_dropped_total",
			Help:      "Total number of tag events dropped because no listener was registered.",
		}),
		BusyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nfcbridge",
			Name:      "busy_rejections_total",
			Help:      "Total number of NfcRead calls rejected because a read was in flight.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.SessionsStarted, m.TagsRead, m.SessionErrors, m.EventsDropped, m.BusyRejections)
	}
	return m
}

func (m *Metrics) sessionStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

func (m *Metrics) tagRead() {
	if m != nil {
		m.TagsRead.Inc()
	}
}

func (m *Metrics) sessionError(code string) {
	if m != nil {
		m.SessionErrors.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) eventDropped() {
	if m != nil {
		m.EventsDropped.Inc()
	}
}

func (m *Metrics) busyRejected() {
	if m != nil {
		m.BusyRejections.Inc()
	}
}
