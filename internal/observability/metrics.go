// Package observability holds process-wide gauges shared across packages.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var runPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "pacer",
	Subsystem: "persistence",
	Name:      "last_run_persisted_timestamp_seconds",
	Help:      "Unix timestamp of the most recent run persisted.",
})

func init() {
	prometheus.MustRegister(runPersistGauge)
}

// RecordRunPersisted updates the persistence watermark gauge.
func RecordRunPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	runPersistGauge.Set(float64(ts.Unix()))
}
