package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Total sensor readings ingested, labeled by outcome (created, duplicate)
var ReadingsIngested = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "backend_sensor_readings_total",
		Help: "The total number of ingested sensor readings",
	},
	[]string{"outcome"},
)

// Total device commands dispatched, labeled by terminal status
var CommandsDispatched = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "backend_device_commands_total",
		Help: "The total number of dispatched device commands",
	},
	[]string{"status"},
)
