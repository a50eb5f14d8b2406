package discovergy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeTransport = "transport"
	outcomeProtocol  = "protocol"
	outcomeDecode    = "decode"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovergy_client",
			Name:      "requests_total",
			Help:      "API round trips by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	decodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovergy_client",
			Name:      "decode_failures_total",
			Help:      "Successful responses whose body could not be decoded.",
		},
		[]string{"op"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discovergy_client",
			Name:      "request_duration_seconds",
			Help:      "Latency of API round trips by operation.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func observe(op, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
