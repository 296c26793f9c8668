package websocket

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "livechat_ws_connections",
			Help: "Current number of active websocket connections.",
		},
		[]string{"role"},
	)
	wsRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "livechat_rooms",
			Help: "Current number of rooms held by the store.",
		},
	)
	wsEventsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_ws_events_delivered_total",
			Help: "Total websocket events queued for delivery, by event type.",
		},
		[]string{"event"},
	)
	wsEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_ws_events_dropped_total",
			Help: "Total websocket events dropped on full client buffers.",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsRooms, wsEventsDelivered, wsEventsDropped)
}

func incConnections(role string) {
	wsConnections.WithLabelValues(role).Inc()
}

func decConnections(role string) {
	wsConnections.WithLabelValues(role).Dec()
}

func setRooms(count int) {
	wsRooms.Set(float64(count))
}

func addDelivered(event string) {
	wsEventsDelivered.WithLabelValues(event).Inc()
}

func addDropped(event string) {
	wsEventsDropped.WithLabelValues(event).Inc()
}
