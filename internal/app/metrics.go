package app

import (
	"onboarding-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts flow activity. A nil *Metrics records nothing.
type Metrics struct {
	stageEntered   *prometheus.CounterVec
	completed      *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		stageEntered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboarding",
			Name:      "stage_entered_total",
			Help:      "Number of times a session entered each flow stage.",
		}, []string{"stage"}),
		completed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboarding",
			Name:      "completed_total",
			Help:      "Submitted onboardings by persona.",
		}, []string{"persona"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboarding",
			Name:      "rejected_operations_total",
			Help:      "Operations rejected because they were invalid for the current stage or input.",
		}, []string{"op"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "onboarding",
			Name:      "active_sessions",
			Help:      "Sessions currently held in the session store.",
		}),
	}
}

func (m *Metrics) stage(s domain.Stage) {
	if m == nil {
		return
	}
	m.stageEntered.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) complete(p domain.Persona) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(string(p)).Inc()
}

func (m *Metrics) reject(op string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(op).Inc()
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) sessionEnded() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
