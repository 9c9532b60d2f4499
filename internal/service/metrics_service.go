package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/vanity-bot/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	evaluations       *prometheus.CounterVec
	evaluationLatency prometheus.Observer
	mutations         *prometheus.CounterVec
	announcements     *prometheus.CounterVec
	ledgerWrites      *prometheus.CounterVec
	intakeEvents      *prometheus.CounterVec
	sweepDuration     prometheus.Observer
	sweepMembers      prometheus.Gauge
	cacheHitRatio     prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter

	evaluationCount      uint64
	evaluationErrorCount uint64
	grantCount           uint64
	revokeCount          uint64
	announcementCount    uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64

	sweepMu          sync.Mutex
	lastSweepAt      time.Time
	lastSweepMembers int
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vanity_evaluations_total",
		Help: "Reconciliations by trigger and outcome",
	}, []string{"trigger", "outcome"})

	evaluationLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vanity_evaluation_duration_seconds",
		Help:    "Duration of a single reconciliation",
		Buckets: prometheus.DefBuckets,
	})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vanity_directory_mutations_total",
		Help: "Role mutations sent to the directory by action and result",
	}, []string{"action", "result"})

	announcements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vanity_announcements_total",
		Help: "Announcement sends by result",
	}, []string{"result"})

	ledgerWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vanity_ledger_writes_total",
		Help: "Ledger writes by operation and result",
	}, []string{"op", "result"})

	intakeEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vanity_intake_events_total",
		Help: "Events received by the intake by kind and disposition",
	}, []string{"kind", "disposition"})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vanity_sweep_duration_seconds",
		Help:    "Duration of full sweeps",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	sweepMembers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vanity_sweep_members",
		Help: "Members evaluated by the last sweep",
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, evaluations, evaluationLatency, mutations, announcements,
		ledgerWrites, intakeEvents, sweepDuration, sweepMembers, cacheHitRatio, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		evaluations:       evaluations,
		evaluationLatency: evaluationLatency,
		mutations:         mutations,
		announcements:     announcements,
		ledgerWrites:      ledgerWrites,
		intakeEvents:      intakeEvents,
		sweepDuration:     sweepDuration,
		sweepMembers:      sweepMembers,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveEvaluation records a finished reconciliation.
func (m *MetricsService) ObserveEvaluation(trigger models.Trigger, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(string(trigger), outcome).Inc()
	m.evaluationLatency.Observe(duration.Seconds())
	atomic.AddUint64(&m.evaluationCount, 1)
	if outcome == OutcomeFailed {
		atomic.AddUint64(&m.evaluationErrorCount, 1)
	}
}

// RecordMutation records a directory role mutation.
func (m *MetricsService) RecordMutation(kind models.ActionKind, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(string(kind), resultLabel(err)).Inc()
	if err != nil {
		return
	}
	switch kind {
	case models.ActionGrantRole:
		atomic.AddUint64(&m.grantCount, 1)
	case models.ActionRevokeRole:
		atomic.AddUint64(&m.revokeCount, 1)
	}
}

// RecordAnnouncement records an announcement send attempt.
func (m *MetricsService) RecordAnnouncement(err error) {
	if m == nil {
		return
	}
	m.announcements.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		atomic.AddUint64(&m.announcementCount, 1)
	}
}

// RecordLedgerWrite records a ledger add or reset.
func (m *MetricsService) RecordLedgerWrite(op string, err error) {
	if m == nil {
		return
	}
	m.ledgerWrites.WithLabelValues(op, resultLabel(err)).Inc()
}

// RecordIntake records how the intake disposed of an incoming event.
func (m *MetricsService) RecordIntake(kind, disposition string) {
	if m == nil {
		return
	}
	m.intakeEvents.WithLabelValues(kind, disposition).Inc()
}

// ObserveSweep records a completed sweep.
func (m *MetricsService) ObserveSweep(members int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepMembers.Set(float64(members))
	m.sweepMu.Lock()
	m.lastSweepAt = time.Now().UTC()
	m.lastSweepMembers = members
	m.sweepMu.Unlock()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// Snapshot returns aggregated metrics suitable for the stats endpoint.
func (m *MetricsService) Snapshot() models.BotMetricsSnapshot {
	if m == nil {
		return models.BotMetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	m.sweepMu.Lock()
	lastSweepAt := m.lastSweepAt
	lastSweepMembers := m.lastSweepMembers
	m.sweepMu.Unlock()

	return models.BotMetricsSnapshot{
		Evaluations:      atomic.LoadUint64(&m.evaluationCount),
		EvaluationErrors: atomic.LoadUint64(&m.evaluationErrorCount),
		RolesGranted:     atomic.LoadUint64(&m.grantCount),
		RolesRevoked:     atomic.LoadUint64(&m.revokeCount),
		Announcements:    atomic.LoadUint64(&m.announcementCount),
		LastSweepAt:      lastSweepAt,
		LastSweepMembers: lastSweepMembers,
		CacheHitRatio:    cacheRatio,
		RequestsTotal:    atomic.LoadUint64(&m.requestCount),
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
