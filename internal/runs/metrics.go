package runs

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK        = "ok"
	outcomeStatus    = "status_error"
	outcomeDecode    = "decode_error"
	outcomeTransport = "transport_error"
)

var requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pacer",
	Subsystem: "runs_client",
	Name:      "requests_total",
	Help:      "Requests issued against the runs resource, labeled by operation and outcome.",
}, []string{"operation", "outcome"})

func init() {
	prometheus.MustRegister(requestCounter)
}

func recordRequest(op, outcome string) {
	requestCounter.WithLabelValues(op, outcome).Inc()
}
