package hub

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tailored-agentic-units/agentcomm/messaging"
)

// Delivery paths recorded in the deliveries counter.
const (
	DeliveryInbox   = "inbox"
	DeliveryHandler = "handler"
)

type MetricsSnapshot struct {
	Messages       int64
	Deliveries     int64
	HandlerErrors  int64
	AverageLatency time.Duration
}

// Metrics keeps in-process counters for Stats and mirrors them to
// Prometheus collectors. Collectors are registered only when a Registerer
// is supplied.
type Metrics struct {
	messages      atomic.Int64
	deliveries    atomic.Int64
	handlerErrors atomic.Int64
	latencyTotal  atomic.Int64

	messagesTotal      *prometheus.CounterVec
	deliveriesTotal    *prometheus.CounterVec
	handlerErrorsTotal prometheus.Counter
	deliveryLatency    prometheus.Histogram
	agents             prometheus.Gauge
	threads            prometheus.Gauge
	subscriptions      prometheus.Gauge
}

func NewMetrics(hubName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"hub": hubName}

	return &Metrics{
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "agentcomm",
			Name:        "messages_total",
			Help:        "Messages accepted by the hub.",
			ConstLabels: labels,
		}, []string{"kind", "priority"}),
		deliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "agentcomm",
			Name:        "deliveries_total",
			Help:        "Messages placed in inboxes or handed to handlers.",
			ConstLabels: labels,
		}, []string{"path"}),
		handlerErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "agentcomm",
			Name:        "handler_errors_total",
			Help:        "Subscription handler invocations that returned an error.",
			ConstLabels: labels,
		}),
		deliveryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "agentcomm",
			Name:        "delivery_latency_seconds",
			Help:        "Time from message creation to delivery.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		agents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "agentcomm",
			Name:        "agents",
			Help:        "Registered agents.",
			ConstLabels: labels,
		}),
		threads: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "agentcomm",
			Name:        "threads",
			Help:        "Open threads.",
			ConstLabels: labels,
		}),
		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "agentcomm",
			Name:        "subscriptions",
			Help:        "Active subscriptions.",
			ConstLabels: labels,
		}),
	}
}

func (m *Metrics) RecordMessage(kind messaging.Kind, priority messaging.Priority) {
	m.messages.Add(1)
	m.messagesTotal.WithLabelValues(string(kind), priority.String()).Inc()
}

func (m *Metrics) RecordDelivery(path string, latency time.Duration) {
	m.deliveries.Add(1)
	m.latencyTotal.Add(int64(latency))
	m.deliveriesTotal.WithLabelValues(path).Inc()
	m.deliveryLatency.Observe(latency.Seconds())
}

func (m *Metrics) RecordHandlerError() {
	m.handlerErrors.Add(1)
	m.handlerErrorsTotal.Inc()
}

func (m *Metrics) SetAgents(n int) {
	m.agents.Set(float64(n))
}

func (m *Metrics) SetThreads(n int) {
	m.threads.Set(float64(n))
}

func (m *Metrics) SetSubscriptions(n int) {
	m.subscriptions.Set(float64(n))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{
		Messages:      m.messages.Load(),
		Deliveries:    m.deliveries.Load(),
		HandlerErrors: m.handlerErrors.Load(),
	}
	if snapshot.Deliveries > 0 {
		snapshot.AverageLatency = time.Duration(m.latencyTotal.Load() / snapshot.Deliveries)
	}
	return snapshot
}
