package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// WebSocket metrics
	WebSocketConnections prometheus.Gauge
	WebSocketMessages    *prometheus.CounterVec

	// Intent resolution metrics
	IntentResolutions *prometheus.CounterVec
	ClassifyLatency   prometheus.Histogram

	// Command execution metrics
	CommandsExecuted *prometheus.CounterVec
	CommandLatency   prometheus.Histogram

	// Machine health metrics (updated by the periodic probe job)
	MachinesReachable prometheus.Gauge
	MachinesTotal     prometheus.Gauge

	// Connection manager reference for dynamic metrics
	connManager *ConnectionManager
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics(connManager *ConnectionManager) *Metrics {
	metrics := &Metrics{
		connManager: connManager,

		// WebSocket active connections (gauge - can go up and down)
		WebSocketConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sshmate_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		}),

		// WebSocket messages by type (counter - only goes up)
		WebSocketMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sshmate_websocket_messages_total",
			Help: "Total number of WebSocket messages by type",
		}, []string{"type", "direction"}), // direction: "inbound" or "outbound"

		// Intent resolutions by resolved action
		IntentResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sshmate_intent_resolutions_total",
			Help: "Total number of intent resolutions by action",
		}, []string{"action"}),

		// Classification latency histogram
		ClassifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sshmate_intent_classify_duration_seconds",
			Help:    "Intent classification latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		// Commands executed by intent and result
		CommandsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sshmate_commands_executed_total",
			Help: "Total number of remote commands executed by intent and result",
		}, []string{"intent", "result"}), // result: "success", "failure", "skipped", "transport_error"

		// Command execution latency histogram
		CommandLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sshmate_command_duration_seconds",
			Help:    "Remote command execution latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}, // up to 5 minutes for long installs
		}),

		MachinesReachable: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sshmate_machines_reachable",
			Help: "Number of machines reachable at the last health probe",
		}),

		MachinesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sshmate_machines_total",
			Help: "Number of machines probed at the last health probe",
		}),
	}

	// Register a collector that updates WebSocket connections from ConnectionManager
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sshmate_websocket_connections_current",
			Help: "Current number of active WebSocket connections (from connection manager)",
		},
		func() float64 {
			if connManager != nil {
				return float64(connManager.Count())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordWebSocketConnect records a new WebSocket connection
func (m *Metrics) RecordWebSocketConnect() {
	m.WebSocketConnections.Inc()
}

// RecordWebSocketDisconnect records a WebSocket disconnection
func (m *Metrics) RecordWebSocketDisconnect() {
	m.WebSocketConnections.Dec()
}

// RecordWebSocketMessage records a WebSocket message
func (m *Metrics) RecordWebSocketMessage(msgType, direction string) {
	m.WebSocketMessages.WithLabelValues(msgType, direction).Inc()
}

// RecordIntentResolution records a resolved intent by action name
func (m *Metrics) RecordIntentResolution(action string) {
	m.IntentResolutions.WithLabelValues(action).Inc()
}

// RecordClassifyLatency records intent classification latency
func (m *Metrics) RecordClassifyLatency(seconds float64) {
	m.ClassifyLatency.Observe(seconds)
}

// RecordCommand records an executed command with its result class
func (m *Metrics) RecordCommand(intent, result string, seconds float64) {
	m.CommandsExecuted.WithLabelValues(intent, result).Inc()
	m.CommandLatency.Observe(seconds)
}

// RecordMachineHealth records the outcome of a full health probe pass
func (m *Metrics) RecordMachineHealth(reachable, total int) {
	m.MachinesReachable.Set(float64(reachable))
	m.MachinesTotal.Set(float64(total))
}
