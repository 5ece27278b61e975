package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SignupsTotal        prometheus.Counter
	UnregistersTotal    prometheus.Counter
	EventsPublished     *prometheus.CounterVec
	Subscribers         prometheus.Gauge
	SubscriberOverflows prometheus.Counter
	TxRetriesTotal      prometheus.Counter
	DeliveryErrorsTotal prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SignupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterhub_signups_total",
			Help: "Total number of committed activity signups",
		}),
		UnregistersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterhub_unregisters_total",
			Help: "Total number of committed activity unregistrations",
		}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterhub_events_published_total",
			Help: "Total number of events published to the bus, by event type",
		}, []string{"type"}),
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rosterhub_subscribers",
			Help: "Current number of live event subscribers",
		}),
		SubscriberOverflows: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterhub_subscriber_overflows_total",
			Help: "Total number of subscribers disconnected because their queue overflowed",
		}),
		TxRetriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterhub_tx_retries_total",
			Help: "Total number of store transaction retries due to contention",
		}),
		DeliveryErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterhub_delivery_errors_total",
			Help: "Total number of failed event deliveries to subscribers",
		}),
	}
}

func (m *Metrics) IncrementSignups() {
	if m == nil {
		return
	}
	m.SignupsTotal.Inc()
}

func (m *Metrics) IncrementUnregisters() {
	if m == nil {
		return
	}
	m.UnregistersTotal.Inc()
}

func (m *Metrics) IncrementEventsPublished(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) AddSubscribers(delta int) {
	if m == nil {
		return
	}
	m.Subscribers.Add(float64(delta))
}

func (m *Metrics) IncrementSubscriberOverflows() {
	if m == nil {
		return
	}
	m.SubscriberOverflows.Inc()
}

func (m *Metrics) IncrementTxRetries() {
	if m == nil {
		return
	}
	m.TxRetriesTotal.Inc()
}

func (m *Metrics) IncrementDeliveryErrors() {
	if m == nil {
		return
	}
	m.DeliveryErrorsTotal.Inc()
}
