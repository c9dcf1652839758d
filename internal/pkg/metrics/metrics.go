package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "portfolio_tracker"

// Metrics groups the collectors exported by the aggregation pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AggregationCycles   *prometheus.CounterVec
	AggregationDuration prometheus.Histogram
	CoalescedCycles     prometheus.Counter
	BalanceFailures     *prometheus.CounterVec
	PriceFetchFailures  prometheus.Counter
	PortfolioTotalUSD   *prometheus.GaugeVec
	UpstreamRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AggregationCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_cycles_total",
			Help:      "Portfolio aggregation cycles by outcome.",
		}, []string{"outcome"}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Wall time of a portfolio aggregation cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		CoalescedCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_coalesced_total",
			Help:      "Aggregation requests served by an already running cycle.",
		}),
		BalanceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_failures_total",
			Help:      "Balance lookups that failed and were replaced by zero.",
		}, []string{"symbol"}),
		PriceFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fetch_failures_total",
			Help:      "Bulk price fetches that failed.",
		}),
		PortfolioTotalUSD: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_total_usd",
			Help:      "Total fiat value of the last polled snapshot per configured wallet.",
		}, []string{"wallet"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to upstream HTTP APIs by method and status class.",
		}, []string{"method", "status"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.AggregationCycles,
			m.AggregationDuration,
			m.CoalescedCycles,
			m.BalanceFailures,
			m.PriceFetchFailures,
			m.PortfolioTotalUSD,
			m.UpstreamRequests,
		)
	}
	return m
}

// ObserveCycle records the outcome and duration of one aggregation cycle.
func (m *Metrics) ObserveCycle(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.AggregationCycles.WithLabelValues(outcome).Inc()
	m.AggregationDuration.Observe(time.Since(started).Seconds())
}

// IncCoalesced counts a request that joined an in-flight cycle.
func (m *Metrics) IncCoalesced() {
	if m == nil {
		return
	}
	m.CoalescedCycles.Inc()
}

// IncBalanceFailure counts a failed balance lookup.
func (m *Metrics) IncBalanceFailure(symbol string) {
	if m == nil {
		return
	}
	m.BalanceFailures.WithLabelValues(symbol).Inc()
}

// IncPriceFailure counts a failed bulk price fetch.
func (m *Metrics) IncPriceFailure() {
	if m == nil {
		return
	}
	m.PriceFetchFailures.Inc()
}

// SetPortfolioTotal publishes the total of the latest snapshot.
func (m *Metrics) SetPortfolioTotal(wallet string, total float64) {
	if m == nil {
		return
	}
	m.PortfolioTotalUSD.WithLabelValues(wallet).Set(total)
}

// IncUpstream counts an upstream HTTP request.
func (m *Metrics) IncUpstream(method, status string) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(method, status).Inc()
}
