package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reminder outcomes recorded by Metrics.
const (
	OutcomeSent                = "sent"
	OutcomeFailed              = "failed"
	OutcomeSkippedNoRecipients = "skipped_no_recipients"
	OutcomeSMSSent             = "sms_sent"
	OutcomeSMSFailed           = "sms_failed"
)

// Metrics provides Prometheus metrics for the reminder pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	runsTotal      *prometheus.CounterVec
	remindersTotal *prometheus.CounterVec

	// RequestDuration is observed by the HTTP timing middleware.
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoactas_reminder_runs_total",
				Help: "Total number of reminder dispatcher runs by result",
			},
			[]string{"result"},
		),
		remindersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoactas_reminders_total",
				Help: "Total number of event reminders by outcome",
			},
			[]string{"outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autoactas_http_request_duration_seconds",
				Help:    "HTTP request latency by method, route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
	reg.MustRegister(m.runsTotal, m.remindersTotal, m.RequestDuration)
	return m
}

func (m *Metrics) observeRun(result string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) observeReminder(outcome string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(outcome).Inc()
}
