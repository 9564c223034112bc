// Package metrics holds the Prometheus instruments used across the contact
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Submit attempts by outcome (invalid, submitted, failed).",
		}, []string{"outcome"})

	FieldErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_field_errors_total",
			Help: "Fields marked as errored on submit, by field.",
		}, []string{"field"})

	RelayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contact_relay_duration_seconds",
			Help:    "Time spent waiting on the remote submission endpoint.",
			Buckets: prometheus.DefBuckets,
		})

	ConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_confirmations_total",
			Help: "Confirmation page hits by result (shown, redirected).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		FieldErrorsTotal,
		RelayDuration,
		ConfirmationsTotal,
	)
}
