// Package metrics exposes Prometheus instrumentation for the CodeShare
// server. All collectors are registered at init time via promauto and
// published on the /metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebSocket metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeshare_ws_connections_active",
		Help: "The current number of active WebSocket connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshare_ws_connections_total",
		Help: "The total number of WebSocket connections accepted.",
	})
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshare_ws_messages_received_total",
		Help: "The total number of protocol messages received from clients.",
	})
	BroadcastsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeshare_ws_broadcasts_total",
		Help: "The total number of messages broadcast to session participants.",
	}, []string{"type"})
	DroppedWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshare_ws_dropped_writes_total",
		Help: "The total number of outbound messages dropped because a client's send buffer was full.",
	})

	// Session metrics
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeshare_sessions_active",
		Help: "The current number of live sessions.",
	})
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshare_sessions_created_total",
		Help: "The total number of sessions created.",
	})
	SessionsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshare_sessions_reaped_total",
		Help: "The total number of abandoned sessions reclaimed by the reaper.",
	})
)

// Handler returns the HTTP handler serving the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
