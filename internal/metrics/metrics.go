package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the referral API.
type Metrics struct {
	UsersRegistered  prometheus.Counter
	LoginFailures    prometheus.Counter
	ReferralsCreated prometheus.Counter
	StatusChanges    *prometheus.CounterVec
	UploadsAccepted  prometheus.Counter
	UploadsRejected  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "referrals_users_registered_total",
			Help: "Total number of accounts registered",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "referrals_login_failures_total",
			Help: "Total number of rejected login attempts",
		}),
		ReferralsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "referrals_created_total",
			Help: "Total number of referrals submitted",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "referrals_status_changes_total",
			Help: "Referral status updates by target status",
		}, []string{"status"}),
		UploadsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "referrals_uploads_accepted_total",
			Help: "Total number of resume documents stored",
		}),
		UploadsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "referrals_uploads_rejected_total",
			Help: "Rejected resume uploads by reason",
		}, []string{"reason"}),
	}
}

// Noop returns collectors registered nowhere, for callers that do not export metrics.
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncUsersRegistered() {
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncLoginFailures() {
	m.LoginFailures.Inc()
}

func (m *Metrics) IncReferralsCreated() {
	m.ReferralsCreated.Inc()
}

func (m *Metrics) IncStatusChange(status string) {
	m.StatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncUploadsAccepted() {
	m.UploadsAccepted.Inc()
}

func (m *Metrics) IncUploadsRejected(reason string) {
	m.UploadsRejected.WithLabelValues(reason).Inc()
}
