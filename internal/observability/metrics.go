package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	commandsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sockctl",
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "Commands dispatched, by command name and result code.",
		},
		[]string{"server", "command", "code"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sockctl",
			Subsystem: "dispatch",
			Name:      "command_duration_seconds",
			Help:      "Command dispatch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "command"},
	)
	activeConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sockctl",
			Subsystem: "socket",
			Name:      "active_connections",
			Help:      "Currently accepted socket connections.",
		},
		[]string{"server"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sockctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sockctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			commandsDispatched,
			commandDuration,
			activeConnections,
			httpRequests,
			httpDuration,
		)
	})
}

// RecordCommand counts one dispatched command. code is "OK" for success or
// the wire error code for failures.
func RecordCommand(server, command, code string, duration time.Duration) {
	RegisterMetrics()
	commandsDispatched.WithLabelValues(server, command, code).Inc()
	commandDuration.WithLabelValues(server, command).Observe(duration.Seconds())
}

func ConnectionOpened(server string) {
	RegisterMetrics()
	activeConnections.WithLabelValues(server).Inc()
}

func ConnectionClosed(server string) {
	RegisterMetrics()
	activeConnections.WithLabelValues(server).Dec()
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}
