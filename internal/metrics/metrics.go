package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Queue metrics
	MessagesQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xmpp_messages_queued_total",
			Help: "Total inbound messages queued",
		},
	)

	MessagesEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xmpp_messages_evicted_total",
			Help: "Total queued messages removed by eviction",
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xmpp_queue_depth",
			Help: "Current number of queued messages",
		},
	)

	// Dispatch metrics
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xmpp_dispatch_total",
			Help: "Dispatch outcomes",
		},
		[]string{"route", "result"}, // route: "direct" or "gateway"; result: "delivered" or "failed"
	)

	DirectSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xmpp_direct_send_failures_total",
			Help: "Direct sends that failed and fell back to the gateway",
		},
	)

	GatewaySpawnFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xmpp_gateway_spawn_failures_total",
			Help: "External gateway processes that could not be started",
		},
	)
)

// SetQueueDepth records the current queue depth.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// RecordDispatch counts one dispatch outcome.
func RecordDispatch(route string, delivered bool) {
	result := "failed"
	if delivered {
		result = "delivered"
	}
	Dispatches.WithLabelValues(route, result).Inc()
}
