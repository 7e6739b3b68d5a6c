// Package telemetry registers the Prometheus collectors for the refresh
// pipeline. Exposed on /metrics via promhttp.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mktpulse_refresh_total",
		Help: "Dashboard refreshes, by outcome.",
	}, []string{"outcome"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mktpulse_refresh_duration_seconds",
		Help:    "Wall time of a full load-reconcile-compute refresh.",
		Buckets: prometheus.DefBuckets,
	})

	factRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mktpulse_fact_rows",
		Help: "Fact rows produced by the most recent refresh.",
	})

	sourceRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mktpulse_source_rows_total",
		Help: "Raw rows ingested, by source.",
	}, []string{"source"})
)

func ObserveRefresh(d time.Duration, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	refreshTotal.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(d.Seconds())
	if err == nil {
		factRows.Set(float64(rows))
	}
}

func ObserveSource(source string, rows int) {
	sourceRows.WithLabelValues(source).Add(float64(rows))
}
