// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	portalRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stalker_portal_requests_total",
		Help: "Portal API requests by action and outcome",
	}, []string{"action", "outcome"}) // outcome=success|network_error|protocol_error

	portalRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stalker_portal_request_duration_seconds",
		Help:    "Round-trip time of portal API requests, excluding pacing delay",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"action"})

	portalRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stalker_portal_retries_total",
		Help: "Retried portal requests after a transient network error",
	}, []string{"action"})

	pacingDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stalker_pacing_delay_seconds",
		Help:    "Randomized delay observed before each portal request",
		Buckets: []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 2, 5},
	})

	profileFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stalker_profile_failures_total",
		Help: "get_profile calls that failed and were replaced by an empty profile",
	})
)

// ObservePortalRequest records one completed portal request.
func ObservePortalRequest(action, outcome string, d time.Duration) {
	portalRequestsTotal.WithLabelValues(action, outcome).Inc()
	portalRequestDuration.WithLabelValues(action).Observe(d.Seconds())
}

func IncPortalRetry(action string)        { portalRetriesTotal.WithLabelValues(action).Inc() }
func ObservePacingDelay(d time.Duration) { pacingDelaySeconds.Observe(d.Seconds()) }
func IncProfileFailure()                 { profileFailuresTotal.Inc() }
