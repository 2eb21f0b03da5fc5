// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stalker_catalog_pages_fetched_total",
		Help: "Catalog pages fetched from the portal",
	})

	catalogChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stalker_catalog_channels",
		Help: "Number of channels in the catalog used by the last run",
	})

	catalogPartialTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stalker_catalog_partial_total",
		Help: "Catalog fetches interrupted after partial success",
	})

	playlistEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stalker_playlist_entries",
		Help: "Entries in the playlist produced by the last run",
	})

	refreshFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stalker_refresh_failures_total",
		Help: "Refresh failures by stage",
	}, []string{"stage"}) // stage=config|token|catalog|playlist|output

	refreshDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stalker_refresh_duration_seconds",
		Help:    "Wall time of a full refresh run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	lastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stalker_refresh_last_success_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	})
)

func IncCatalogPage()                    { catalogPagesFetched.Inc() }
func RecordCatalogChannels(n int)        { catalogChannels.Set(float64(n)) }
func IncCatalogPartial()                 { catalogPartialTotal.Inc() }
func RecordPlaylistEntries(n int)        { playlistEntries.Set(float64(n)) }
func IncRefreshFailure(stage string)     { refreshFailuresTotal.WithLabelValues(stage).Inc() }
func ObserveRefreshDuration(sec float64) { refreshDurationSeconds.Observe(sec) }
func MarkRefreshSuccess()                { lastSuccessTimestamp.SetToCurrentTime() }
