package outbox

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeDelivered    = "delivered"
	outcomeDeadLettered = "dead_lettered"
)

var (
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacer",
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox events settled by the relay, labeled by outcome.",
	}, []string{"outcome"})

	deadLetterTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacer",
		Subsystem: "outbox",
		Name:      "dead_letter_total",
		Help:      "Outbox events copied to outbox_dlq, labeled by topic.",
	}, []string{"topic"})

	flushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pacer",
		Subsystem: "outbox",
		Name:      "flush_duration_seconds",
		Help:      "Time spent delivering and settling a claimed batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(eventsTotal, deadLetterTotal, flushDuration)
}

func recordOutcome(outcome string, n int) {
	eventsTotal.WithLabelValues(outcome).Add(float64(n))
}
