package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// HTTP метрики
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Бизнес-метрики
	ReportsCreatedTotal      *prometheus.CounterVec
	ReportGenerationDuration *prometheus.HistogramVec
	DownloadsTotal           *prometheus.CounterVec
	ExportsTotal             *prometheus.CounterVec
	AggregateFallbacksTotal  *prometheus.CounterVec
	PathRejectionsTotal      prometheus.Counter

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ReportsCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reports_created_total",
				Help:      "Total number of report creation attempts by terminal status",
			},
			[]string{"format", "status"},
		),

		ReportGenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_generation_duration_seconds",
				Help:      "Duration of report content generation and file write",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		),

		DownloadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "downloads_total",
				Help:      "Total number of report download attempts by outcome",
			},
			[]string{"outcome"},
		),

		ExportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "exports_total",
				Help:      "Total number of collection exports by format",
			},
			[]string{"format", "status"},
		),

		AggregateFallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aggregate_fallbacks_total",
				Help:      "Total number of dashboard aggregate queries that fell back to the next candidate",
			},
			[]string{"metric"},
		),

		PathRejectionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "path_rejections_total",
				Help:      "Total number of rejected file path resolutions",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service version information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get возвращает глобальный контейнер метрик.
// До InitMetrics возвращает контейнер с метриками вне реестра,
// чтобы тесты не зависели от порядка инициализации.
func Get() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = newUnregistered()
	}
	return defaultMetrics
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

func newUnregistered() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total"},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "http_request_duration_seconds"},
			[]string{"method", "path"},
		),
		ReportsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "reports_created_total"},
			[]string{"format", "status"},
		),
		ReportGenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "report_generation_duration_seconds"},
			[]string{"format"},
		),
		DownloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "downloads_total"},
			[]string{"outcome"},
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "exports_total"},
			[]string{"format", "status"},
		),
		AggregateFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "aggregate_fallbacks_total"},
			[]string{"metric"},
		),
		PathRejectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "path_rejections_total"},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "service_info"},
			[]string{"version", "environment"},
		),
	}
}
