package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transport metrics
	ConnectionUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connection_up",
			Help: "Whether the realtime connection is currently established",
		},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_received_total",
			Help: "Total number of events received from the realtime transport",
		},
		[]string{"event"},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of messages sent over the realtime transport",
		},
	)

	// Session metrics
	RoomsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_rooms_loaded_total",
			Help: "Total number of rooms accepted from room-list loads",
		},
	)

	InvalidRoomsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_invalid_rooms_dropped_total",
			Help: "Total number of room records dropped for failing validation",
		},
	)

	PendingOperations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_pending_operations",
			Help: "Number of in-flight operations awaiting a transport event",
		},
		[]string{"kind"},
	)

	// History API metrics
	HistoryRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_history_request_duration_seconds",
			Help:    "Message-history request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"status"},
	)
)
