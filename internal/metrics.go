package internal

import (
	"checkout/gateway"
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"strconv"
	"sync"
)

var (
	registerOnce sync.Once

	signaturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_signatures_total",
			Help: "Signed payloads by gateway and result (ok|invalid|config).",
		},
		[]string{"gateway", "result"},
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_callbacks_total",
			Help: "Verified gateway callbacks by gateway, authenticity and approval.",
		},
		[]string{"gateway", "authentic", "approved"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_upstream_duration_seconds",
			Help:    "Duration of server-to-server gateway calls by result (ok|timeout|failed).",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"gateway", "result"},
	)
)

// RegisterMetrics registers the service collectors with reg exactly once.
func RegisterMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(signaturesTotal, callbacksTotal, upstreamDuration)
	})
}

func countCallback(gatewayName string, authentic, approved bool) {
	callbacksTotal.WithLabelValues(gatewayName, strconv.FormatBool(authentic), strconv.FormatBool(approved)).Inc()
}

// metricGateway keeps label values bounded: names the registry rejected are "unknown".
func metricGateway(name string, err error) string {
	if errors.Is(err, gateway.ErrUnknownGateway) {
		return "unknown"
	}
	return name
}
