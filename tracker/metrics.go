package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricsMessagesRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tracker_messages_recorded_total",
	Help: "Messages durably recorded from tracked channels",
})

var metricsCommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tracker_commands_handled_total",
	Help: "Commands matched and dispatched, by trigger",
}, []string{"trigger"})

var metricsStorageErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tracker_storage_errors_total",
	Help: "Storage operations that failed and were surfaced to the user or log",
})
