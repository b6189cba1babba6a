package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	CeremoniesTotal    *prometheus.CounterVec
	SessionsIssued     prometheus.Counter
	ChallengesSwept    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chainpass_registrations_total",
			Help: "Total number of identities registered in the on-chain registry",
		}),
		CeremoniesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chainpass_ceremonies_total",
			Help: "Ceremony completions by kind and outcome",
		}, []string{"kind", "outcome"}),
		SessionsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chainpass_sessions_issued_total",
			Help: "Session tokens minted after successful authentication",
		}),
		ChallengesSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chainpass_challenges_swept_total",
			Help: "Abandoned challenges removed by the background sweep",
		}),
	}
}

// ObserveCeremony records the outcome of one ceremony phase.
func (m *Metrics) ObserveCeremony(kind, outcome string) {
	if m == nil {
		return
	}
	m.CeremoniesTotal.WithLabelValues(kind, outcome).Inc()
}

// IncrementRegistrations increments the registered-identities counter by 1.
func (m *Metrics) IncrementRegistrations() {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Inc()
}

// IncrementSessionsIssued increments the issued-sessions counter by 1.
func (m *Metrics) IncrementSessionsIssued() {
	if m == nil {
		return
	}
	m.SessionsIssued.Inc()
}

// AddChallengesSwept records how many entries one sweep pass removed.
func (m *Metrics) AddChallengesSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ChallengesSwept.Add(float64(n))
}
