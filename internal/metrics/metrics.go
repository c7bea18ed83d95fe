package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway's Prometheus collectors.
// All methods are safe on a nil *Metrics so callers can leave metrics unwired.
type Metrics struct {
	// Outbound provider commands
	CommandTotal    *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Stats workflow
	StatsRecordsTotal prometheus.Counter
	StatsPollTotal    *prometheus.CounterVec

	// Inbound webhooks
	InboundTotal           *prometheus.CounterVec
	DuplicateDeliveryTotal prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vpbx_commands_total",
			Help: "Total number of commands sent to the provider",
		}, []string{"endpoint", "outcome"}),

		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vpbx_command_duration_seconds",
			Help:    "Provider round trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		StatsRecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vpbx_stats_records_total",
			Help: "Total number of stats rows parsed from provider results",
		}),

		StatsPollTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vpbx_stats_polls_total",
			Help: "Total number of stats/result polls by outcome",
		}, []string{"outcome"}),

		InboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vpbx_inbound_total",
			Help: "Total number of inbound webhook deliveries by verification result",
		}, []string{"event", "result"}),

		DuplicateDeliveryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vpbx_inbound_duplicates_total",
			Help: "Total number of inbound deliveries skipped as duplicates",
		}),
	}

	m.CommandTotal = registerOrGet(reg, m.CommandTotal)
	m.CommandDuration = registerOrGet(reg, m.CommandDuration)
	m.StatsRecordsTotal = registerOrGet(reg, m.StatsRecordsTotal)
	m.StatsPollTotal = registerOrGet(reg, m.StatsPollTotal)
	m.InboundTotal = registerOrGet(reg, m.InboundTotal)
	m.DuplicateDeliveryTotal = registerOrGet(reg, m.DuplicateDeliveryTotal)
	return m
}

// registerOrGet registers c, returning the already registered collector when
// an identical one exists (e.g. New called twice against the default registry).
func registerOrGet[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) ObserveCommand(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandTotal.WithLabelValues(endpoint, outcome).Inc()
	m.CommandDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveStatsPoll(outcome string) {
	if m == nil {
		return
	}
	m.StatsPollTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddStatsRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StatsRecordsTotal.Add(float64(n))
}

func (m *Metrics) ObserveInbound(event, result string) {
	if m == nil {
		return
	}
	m.InboundTotal.WithLabelValues(event, result).Inc()
}

func (m *Metrics) ObserveDuplicateDelivery() {
	if m == nil {
		return
	}
	m.DuplicateDeliveryTotal.Inc()
}
