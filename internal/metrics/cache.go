// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stalker_cache_lookups_total",
	Help: "Cache store lookups by artifact and result",
}, []string{"artifact", "result"}) // result=hit|miss|expired|stale|error

var cacheWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stalker_cache_writes_total",
	Help: "Cache store writes by artifact and outcome",
}, []string{"artifact", "outcome"}) // outcome=success|failure

// RecordCacheLookup counts one cache read.
func RecordCacheLookup(artifact, result string) {
	cacheLookupsTotal.WithLabelValues(artifact, result).Inc()
}

// RecordCacheWrite counts one cache write.
func RecordCacheWrite(artifact string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	cacheWritesTotal.WithLabelValues(artifact, outcome).Inc()
}
