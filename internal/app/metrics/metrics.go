// Package metrics provides Prometheus instrumentation for the relay.
// It exposes gauges for connection and room counts, counters for message
// throughput and store failures, and a histogram for fan-out sizes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive tracks the current number of connected sessions.
	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relaychat_connections_active",
		Help: "Current number of connected sessions",
	})

	// RoomsActive tracks the current number of rooms with at least one member.
	RoomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relaychat_rooms_active",
		Help: "Current number of rooms with at least one member",
	})

	// MessagesTotal counts message deliveries by outcome:
	// "delivered" (queued to a recipient), "dropped" (recipient queue full or
	// closed), or "rejected" (payload failed validation).
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaychat_messages_total",
		Help: "Total number of message deliveries by outcome",
	}, []string{"outcome"})

	// StoreFailuresTotal counts message store errors by operation ("append", "list").
	StoreFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaychat_store_failures_total",
		Help: "Total number of message store failures by operation",
	}, []string{"op"})

	// FanoutSize records the number of recipients per broadcast.
	FanoutSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "relaychat_fanout_recipients",
		Help:    "Number of recipients per broadcast",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsActive,
		RoomsActive,
		MessagesTotal,
		StoreFailuresTotal,
		FanoutSize,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
