// Package metrics exposes Prometheus counters for the staff lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Registrations prometheus.Counter
	Approvals     prometheus.Counter
	Rejections    prometheus.Counter
	Deactivations prometheus.Counter
	Reactivations prometheus.Counter
	TermsEnded    prometheus.Counter
	AuditDrops    prometheus.Counter
}

// New registers the lifecycle counters on reg. Pass prometheus.NewRegistry()
// in tests to avoid global registration conflicts.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curia_staff_registrations_total",
			Help: "Staff registrations that produced a pending account.",
		}),
		Approvals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curia_staff_approvals_total",
			Help: "Pending accounts approved to active.",
		}),
		Rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curia_staff_rejections_total",
			Help: "Pending accounts rejected.",
		}),
		Deactivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curia_staff_deactivations_total",
			Help: "Active accounts deactivated.",
		}),
		Reactivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curia_staff_reactivations_total",
			Help: "Inactive accounts reactivated.",
		}),
		TermsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curia_staff_terms_ended_total",
			Help: "Tenures formally closed with a term record.",
		}),
		AuditDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curia_audit_events_dropped_total",
			Help: "Audit events dropped because the publisher inbox was full.",
		}),
	}
	reg.MustRegister(
		m.Registrations, m.Approvals, m.Rejections,
		m.Deactivations, m.Reactivations, m.TermsEnded, m.AuditDrops,
	)
	return m
}
