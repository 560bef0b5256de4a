package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 采集结果标签
const (
	OutcomeOK           = "ok"
	OutcomeTransport    = "transport"
	OutcomeStatus       = "status"
	OutcomeTooShort     = "too_short"
	OutcomeHTML         = "html"
	OutcomeUnrecognized = "unrecognized"

	CycleCommitted = "committed"
	CycleStale     = "stale"
	CycleCancelled = "cancelled"
)

// Metrics 所有方法对 nil 接收者安全，未启用指标时可直接传 nil
type Metrics struct {
	fetchAttempts  *prometheus.CounterVec
	sourceArticles *prometheus.GaugeVec
	cycleDuration  prometheus.Histogram
	cycles         *prometheus.CounterVec
	liveSources    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_fetch_attempts_total",
			Help: "Fetch attempts by access path and outcome.",
		}, []string{"path", "outcome"}),
		sourceArticles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "herald_source_articles",
			Help: "Articles contributed by each source in the last committed cycle.",
		}, []string{"source"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "herald_cycle_duration_seconds",
			Help:    "Wall time of aggregation cycles.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_cycles_total",
			Help: "Aggregation cycles by result.",
		}, []string{"result"}),
		liveSources: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "herald_live_sources",
			Help: "Sources that produced at least one article in the last committed cycle.",
		}),
	}
	reg.MustRegister(m.fetchAttempts, m.sourceArticles, m.cycleDuration, m.cycles, m.liveSources)
	return m
}

func (m *Metrics) ObserveAttempt(path, outcome string) {
	if m == nil {
		return
	}
	m.fetchAttempts.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) SetSourceArticles(source string, n int) {
	if m == nil {
		return
	}
	m.sourceArticles.WithLabelValues(source).Set(float64(n))
}

func (m *Metrics) ObserveCycle(d time.Duration, result string) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
	m.cycles.WithLabelValues(result).Inc()
}

func (m *Metrics) SetLiveSources(n int) {
	if m == nil {
		return
	}
	m.liveSources.Set(float64(n))
}
