package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for sweeps and the HTTP surface
type Metrics struct {
	SweepsTotal   *prometheus.CounterVec
	CellsTotal    prometheus.Counter
	SweepDuration prometheus.Histogram
	CacheHits     prometheus.Counter
	RateLimited   prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates all collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SweepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retainsim_sweeps_total",
				Help: "Number of policy sweeps by outcome",
			},
			[]string{"outcome"},
		),
		CellsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "retainsim_cells_evaluated_total",
			Help: "Number of policy cells evaluated",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "retainsim_sweep_duration_seconds",
			Help:    "Wall time of one policy sweep",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "retainsim_cache_hits_total",
			Help: "Number of simulate requests served from the result cache",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "retainsim_rate_limited_total",
			Help: "Number of requests rejected by the rate limiter",
		}),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retainsim_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retainsim_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// ObserveSweep records one finished sweep. A nil receiver is a no-op.
func (m *Metrics) ObserveSweep(cells int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SweepsTotal.WithLabelValues(outcome).Inc()
	if err == nil {
		m.CellsTotal.Add(float64(cells))
		m.SweepDuration.Observe(elapsed.Seconds())
	}
}
