package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketDisconnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_websocket_disconnections_total",
			Help: "Total number of WebSocket disconnections",
		},
		[]string{"reason"},
	)

	WebSocketDroppedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_websocket_dropped_messages_total",
			Help: "Total number of messages dropped due to slow clients",
		},
		[]string{"event_type"},
	)

	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of messages persisted, by delivery outcome",
		},
		[]string{"delivery"},
	)

	MessagePushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_message_push_failures_total",
			Help: "Total number of failed live-delivery pushes",
		},
	)

	MessagesMarkedSeenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_marked_seen_total",
			Help: "Total number of messages flipped to seen",
		},
	)

	ConversationFetchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_conversation_fetches_total",
			Help: "Total number of conversation fetches",
		},
	)
)
