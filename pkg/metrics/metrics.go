package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_frames_total",
			Help: "Total number of frames exchanged on the backend stream (count)",
		},
		[]string{"direction"},
	)

	ReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_reconnects_total",
			Help: "Total number of reconnect attempts to the backend stream (count)",
		},
	)

	PendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "connector_pending_requests",
			Help: "Number of conversations currently awaiting a backend reply (count)",
		},
	)

	RequeuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_requeued_total",
			Help: "Total number of envelopes re-queued after a reconnect (count)",
		},
	)

	RepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_replies_total",
			Help: "Total number of backend replies by outcome (count)",
		},
		[]string{"outcome"},
	)

	BroadcastDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_broadcast_deliveries_total",
			Help: "Total number of broadcast deliveries by status (count)",
		},
		[]string{"status"},
	)

	RenderFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_render_failures_total",
			Help: "Total number of markup rendering failures that fell back to plain text (count)",
		},
	)

	ReplyTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_reply_timeouts_total",
			Help: "Total number of conversations that timed out waiting for a reply (count)",
		},
	)
)

func RegisterConnectorMetrics() {
	prometheus.MustRegister(
		FramesTotal,
		ReconnectsTotal,
		PendingRequests,
		RequeuedTotal,
		RepliesTotal,
		BroadcastDeliveries,
		RenderFailuresTotal,
		ReplyTimeoutsTotal,
	)
}
