package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricsHandledEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bot_events_handled_total",
	Help: "Gateway events dispatched to plugin handlers",
}, []string{"type"})

var eventLabelMessageCreate = prometheus.Labels{"type": "message_create"}

var metricsConnectedGuilds = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "bot_connected_guilds",
	Help: "Guilds visible on the current gateway connection",
})
