// Package metrics 는 카드 서버의 Prometheus 지표를 정의한다.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "card"

// Compile 결과 라벨
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Cache 조회 결과 라벨
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
	CacheError  = "error"
)

// Metrics: 지표 묶음. 전용 Registry 를 써서 테스트마다 새로 만들 수 있다.
type Metrics struct {
	registry *prometheus.Registry

	CompileTotal    *prometheus.CounterVec
	CompileDuration prometheus.Histogram
	ArtifactBytes   prometheus.Histogram
	CacheLookups    *prometheus.CounterVec
	ExportedCards   prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New 는 Go 런타임/프로세스 수집기를 포함한 Registry 를 만든다.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		CompileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_total",
			Help:      "Card compilations by result",
		}, []string{"result"}),
		CompileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Time spent normalizing and rendering one card",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		ArtifactBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_size_bytes",
			Help:      "Size of compiled card documents",
			Buckets:   prometheus.ExponentialBuckets(8<<10, 2, 8),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_cache_total",
			Help:      "Artifact cache lookups by result",
		}, []string{"result"}),
		ExportedCards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_cards_total",
			Help:      "Cards written into bulk export archives",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CompileTotal,
		m.CompileDuration,
		m.ArtifactBytes,
		m.CacheLookups,
		m.ExportedCards,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Registry 는 테스트에서 값을 읽을 때 쓴다.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler: /metrics 핸들러
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCompile 은 nil 수신자에서도 안전하다.
func (m *Metrics) ObserveCompile(result string, elapsed time.Duration, size int) {
	if m == nil {
		return
	}
	m.CompileTotal.WithLabelValues(result).Inc()
	m.CompileDuration.Observe(elapsed.Seconds())
	if size > 0 {
		m.ArtifactBytes.Observe(float64(size))
	}
}

// ObserveCache: 캐시 조회 결과 기록
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveExport: 내보낸 카드 수 기록
func (m *Metrics) ObserveExport(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ExportedCards.Add(float64(n))
}

// ObserveHTTP: route 는 gin 의 FullPath (파라미터 치환 전 패턴)
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
