package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	inferenceLatency *prometheus.HistogramVec
	inferenceBatch   prometheus.Histogram
	inferenceErrors  *prometheus.CounterVec
	inferenceWaiting prometheus.Gauge

	snapshotBuild   *prometheus.HistogramVec
	snapshotVersion prometheus.Gauge
	snapshotSize    *prometheus.GaugeVec

	recommendations *prometheus.CounterVec
	cacheResults    *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	changeEvents    *prometheus.CounterVec

	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics, or nil before Init. Every method
// is nil-safe so call sites never need to check.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

// New builds an isolated registry; tests use it directly.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "movierec_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "movierec_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "movierec_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		inferenceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "movierec_inference_duration_seconds",
			Help:    "Model scoring latency in seconds by scorer/status.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"scorer", "status"}),
		inferenceBatch: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "movierec_inference_batch_pairs",
			Help:    "Number of (user, movie) pairs per scoring call.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 9),
		}),
		inferenceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "movierec_inference_errors_total",
			Help: "Model scoring failures by scorer/reason.",
		}, []string{"scorer", "reason"}),
		inferenceWaiting: f.NewGauge(prometheus.GaugeOpts{
			Name: "movierec_inference_waiting",
			Help: "Requests waiting for an inference slot.",
		}),
		snapshotBuild: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "movierec_snapshot_build_duration_seconds",
			Help:    "Snapshot build duration in seconds by status.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"status"}),
		snapshotVersion: f.NewGauge(prometheus.GaugeOpts{
			Name: "movierec_snapshot_version",
			Help: "Version of the snapshot currently serving requests.",
		}),
		snapshotSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "movierec_snapshot_size",
			Help: "Snapshot dimensions (movies, users, ratings, genres).",
		}, []string{"dimension"}),
		recommendations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "movierec_recommendations_total",
			Help: "Recommendation requests by kind/outcome.",
		}, []string{"kind", "outcome"}),
		cacheResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "movierec_cache_requests_total",
			Help: "Recommendation cache lookups by result.",
		}, []string{"result"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "movierec_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
		changeEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "movierec_change_events_total",
			Help: "Rating change events by direction (published/received).",
		}, []string{"direction"}),
		redisUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "movierec_redis_up",
			Help: "Redis reachability (1 up, 0 down).",
		}),
		redisPing: f.NewGauge(prometheus.GaugeOpts{
			Name: "movierec_redis_ping_seconds",
			Help: "Last redis ping latency in seconds.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveInference(scorer, status string, pairs int, dur time.Duration) {
	if m == nil {
		return
	}
	m.inferenceLatency.WithLabelValues(scorer, status).Observe(dur.Seconds())
	m.inferenceBatch.Observe(float64(pairs))
}

func (m *Metrics) IncInferenceError(scorer, reason string) {
	if m != nil {
		m.inferenceErrors.WithLabelValues(scorer, reason).Inc()
	}
}

func (m *Metrics) InferenceWaitingAdd(delta float64) {
	if m != nil {
		m.inferenceWaiting.Add(delta)
	}
}

func (m *Metrics) ObserveSnapshotBuild(status string, dur time.Duration) {
	if m != nil {
		m.snapshotBuild.WithLabelValues(status).Observe(dur.Seconds())
	}
}

func (m *Metrics) SetSnapshot(version int64, movies, users, ratings, genres int) {
	if m == nil {
		return
	}
	m.snapshotVersion.Set(float64(version))
	m.snapshotSize.WithLabelValues("movies").Set(float64(movies))
	m.snapshotSize.WithLabelValues("users").Set(float64(users))
	m.snapshotSize.WithLabelValues("ratings").Set(float64(ratings))
	m.snapshotSize.WithLabelValues("genres").Set(float64(genres))
}

func (m *Metrics) IncRecommendation(kind, outcome string) {
	if m != nil {
		m.recommendations.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) IncCache(result string) {
	if m != nil {
		m.cacheResults.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) SetBreakerState(name string, state int) {
	if m != nil {
		m.breakerState.WithLabelValues(name).Set(float64(state))
	}
}

func (m *Metrics) IncChangeEvent(direction string) {
	if m != nil {
		m.changeEvents.WithLabelValues(direction).Inc()
	}
}

// RegisterDBStats exports database/sql pool statistics for db.
func (m *Metrics) RegisterDBStats(log *logger.Logger, db *gorm.DB, name string) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: db stats unavailable", "error", err)
		}
		return
	}
	if err := m.registry.Register(collectors.NewDBStatsCollector(sqlDB, name)); err != nil && log != nil {
		log.Warn("metrics: db stats register failed", "error", err)
	}
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
