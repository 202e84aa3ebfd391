package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	// connectionsActive gauges authenticated connections attached to the hub,
	// including displaced sessions that have not closed yet.
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Current number of authenticated websocket connections.",
		},
	)

	// sessionsOnline gauges registry entries (one per online user).
	sessionsOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_sessions_online",
			Help: "Current number of users with an active session.",
		},
	)

	typingStates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_typing_states",
			Help: "Current number of live typing indicators.",
		},
	)

	// eventsTotal counts inbound events by name; unknown names share one label.
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_total",
			Help: "Total number of inbound websocket events.",
		},
		[]string{"event"},
	)

	outboundDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_outbound_dropped_total",
			Help: "Outbound frames dropped because the target was closed or saturated.",
		},
	)
)

func init() {
	prometheus.MustRegister(connectionsActive, sessionsOnline, typingStates, eventsTotal, outboundDropped)
}

// eventLabel bounds the cardinality of the event label.
func eventLabel(name string) string {
	switch name {
	case EventJoinConversation, EventLeaveConversation, EventSendMessage,
		EventTypingStart, EventTypingStop, EventMarkMessagesRead, EventGetOnlineUsers:
		return name
	}
	return "unknown"
}
