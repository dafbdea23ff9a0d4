// Package metrics holds the Prometheus collectors for gophauth.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome labels for AuthOperations.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the custom counters. It also satisfies notify.Observer.
type Metrics struct {
	Registry *prometheus.Registry

	AuthOperations *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
}

// New creates a dedicated registry with the Go and process collectors and
// registers the custom metrics on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_auth_operations_total",
				Help: "Total number of credential operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_notifications_total",
				Help: "Total number of notifications by kind and status",
			},
			[]string{"kind", "status"},
		),
	}

	reg.MustRegister(m.AuthOperations)
	reg.MustRegister(m.Notifications)
	return m
}

// RecordAuth increments the operation counter. A nil receiver is a no-op.
func (m *Metrics) RecordAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) NotificationDelivered(kind string) {
	m.Notifications.WithLabelValues(kind, "delivered").Inc()
}

func (m *Metrics) NotificationFailed(kind string) {
	m.Notifications.WithLabelValues(kind, "failed").Inc()
}

func (m *Metrics) NotificationDropped(kind string) {
	m.Notifications.WithLabelValues(kind, "dropped").Inc()
}
