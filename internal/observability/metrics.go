package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the process counters. A nil *Metrics is valid and
// records nothing, so tests can pass nil.
type Metrics struct {
	requests     *prometheus.CounterVec
	changeEvents *prometheus.CounterVec
	cleanupTasks *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_requests_total",
			Help: "Cart API requests by operation and result.",
		}, []string{"op", "result"}),
		changeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_change_events_total",
			Help: "Store change notifications by kind.",
		}, []string{"kind"}),
		cleanupTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_cleanup_tasks_total",
			Help: "Cleanup tasks by outcome.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.requests, m.changeEvents, m.cleanupTasks)
	return m
}

func (m *Metrics) Request(op, result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, result).Inc()
}

func (m *Metrics) ChangeEvent(kind string) {
	if m == nil {
		return
	}
	m.changeEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) CleanupTask(result string) {
	if m == nil {
		return
	}
	m.cleanupTasks.WithLabelValues(result).Inc()
}
