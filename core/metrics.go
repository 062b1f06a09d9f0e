package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is optional; every method is a no-op on a nil receiver.
type Metrics struct {
	operations   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	priceReads   *prometheus.CounterVec
	liquidations prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsc",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engine operations segmented by action and outcome.",
		}, []string{"action", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dsc",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Latency distribution of engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		priceReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsc",
			Subsystem: "oracle",
			Name:      "price_reads_total",
			Help:      "Oracle reads segmented by asset and status.",
		}, []string{"asset", "status"}),
		liquidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dsc",
			Subsystem: "engine",
			Name:      "liquidations_total",
			Help:      "Successful liquidations.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.latency, m.priceReads, m.liquidations)
	}
	return m
}

func (m *Metrics) observeOperation(action ActionType, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
	}
	m.operations.WithLabelValues(action.String(), outcome).Inc()
	m.latency.WithLabelValues(action.String()).Observe(elapsed.Seconds())
	if action == ATLiquidate && err == nil {
		m.liquidations.Inc()
	}
}

func (m *Metrics) observePriceRead(assetId, status string) {
	if m == nil {
		return
	}
	m.priceReads.WithLabelValues(assetId, status).Inc()
}
