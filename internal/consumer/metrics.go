package consumer

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeProcessed    = "processed"
	outcomeHandlerError = "handler_error"
	outcomeMalformed    = "malformed"
)

var (
	messagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacer",
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Kafka records seen by the consumer, labeled by topic, event type and outcome.",
	}, []string{"topic", "event_type", "outcome"})

	lastProcessedGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pacer",
		Subsystem: "consumer",
		Name:      "last_processed_timestamp_seconds",
		Help:      "Record timestamp of the most recent committed message per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(messagesTotal, lastProcessedGauge)
}

func observe(topic, eventType, outcome string) {
	messagesTotal.WithLabelValues(topic, eventType, outcome).Inc()
}

func markLatest(msg Message) {
	if !msg.Timestamp.IsZero() {
		lastProcessedGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}
