// Package metrics provides Prometheus instrumentation for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ply"
	subsystem = "relay"
)

// Metrics holds the relay's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	connections       *prometheus.GaugeVec
	connectionEvents  *prometheus.CounterVec
	eventsRelayed     *prometheus.CounterVec
	requestsForwarded *prometheus.CounterVec
	noTargetErrors    prometheus.Counter
	invalidEvents     *prometheus.CounterVec
	droppedMessages   *prometheus.CounterVec
	registryFaults    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil registerer yields nil metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connections",
			Help:      "Number of live connections per group",
		}, []string{"group"}),

		connectionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connection_events_total",
			Help:      "Connection lifecycle transitions",
		}, []string{"group", "transition"}),

		eventsRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_relayed_total",
			Help:      "Producer events fanned out to consumers",
		}, []string{"kind"}),

		requestsForwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_forwarded_total",
			Help:      "Consumer requests forwarded to producers",
		}, []string{"kind"}),

		noTargetErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "no_target_errors_total",
			Help:      "Consumer requests answered with a no-target error",
		}),

		invalidEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "invalid_events_total",
			Help:      "Producer events dropped because their payload could not be decoded",
		}, []string{"kind"}),

		droppedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dropped_messages_total",
			Help:      "Outbound messages dropped because a connection queue was full",
		}, []string{"group"}),

		registryFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "registry_faults_total",
			Help:      "Connection lifecycle faults (duplicate or unknown connections)",
		}, []string{"code"}),
	}

	reg.MustRegister(
		m.connections,
		m.connectionEvents,
		m.eventsRelayed,
		m.requestsForwarded,
		m.noTargetErrors,
		m.invalidEvents,
		m.droppedMessages,
		m.registryFaults,
	)

	return m
}

// ConnectionChanged records a lifecycle transition and the new group sizes.
func (m *Metrics) ConnectionChanged(group string, connected bool, producers, consumers int) {
	if m == nil {
		return
	}
	transition := "disconnected"
	if connected {
		transition = "connected"
	}
	m.connectionEvents.WithLabelValues(group, transition).Inc()
	m.connections.WithLabelValues("producer").Set(float64(producers))
	m.connections.WithLabelValues("consumer").Set(float64(consumers))
}

// EventRelayed counts a producer event fanned out to consumers.
func (m *Metrics) EventRelayed(kind string) {
	if m == nil {
		return
	}
	m.eventsRelayed.WithLabelValues(kind).Inc()
}

// RequestForwarded counts a consumer request forwarded to producers.
func (m *Metrics) RequestForwarded(kind string) {
	if m == nil {
		return
	}
	m.requestsForwarded.WithLabelValues(kind).Inc()
}

// NoTarget counts a request that had no producer to go to.
func (m *Metrics) NoTarget() {
	if m == nil {
		return
	}
	m.noTargetErrors.Inc()
}

// InvalidEvent counts a producer event with an undecodable payload.
func (m *Metrics) InvalidEvent(kind string) {
	if m == nil {
		return
	}
	m.invalidEvents.WithLabelValues(kind).Inc()
}

// Dropped counts an outbound message lost to a full queue.
func (m *Metrics) Dropped(group string) {
	if m == nil {
		return
	}
	m.droppedMessages.WithLabelValues(group).Inc()
}

// RegistryFault counts a duplicate or unknown connection fault.
func (m *Metrics) RegistryFault(code string) {
	if m == nil {
		return
	}
	m.registryFaults.WithLabelValues(code).Inc()
}
