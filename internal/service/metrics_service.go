package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventmgr/checkin-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// admission/import domains.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	scanTotal       *prometheus.CounterVec
	scanDuration    prometheus.Observer
	importRows      *prometheus.CounterVec
	importBatches   *prometheus.CounterVec
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

	scanTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scans_total",
		Help: "Scan attempts classified by outcome",
	}, []string{"outcome"})

	scanDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scan_evaluate_duration_seconds",
		Help:    "Latency of admission evaluation",
		Buckets: prometheus.DefBuckets,
	})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Imported roster rows classified by result",
	}, []string{"result"})

	importBatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_batches_total",
		Help: "Import batches classified by final state",
	}, []string{"state"})

	registry.MustRegister(requestDuration, requestTotal, scanTotal, scanDuration, importRows, importBatches)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		scanTotal:       scanTotal,
		scanDuration:    scanDuration,
		importRows:      importRows,
		importBatches:   importBatches,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveScan records one admission evaluation.
func (s *MetricsService) ObserveScan(outcome models.ScanOutcome, duration time.Duration) {
	s.scanTotal.WithLabelValues(string(outcome)).Inc()
	s.scanDuration.Observe(duration.Seconds())
}

// ObserveImportRows records validated/committed/failed roster rows.
func (s *MetricsService) ObserveImportRows(result string, count int) {
	if count <= 0 {
		return
	}
	s.importRows.WithLabelValues(result).Add(float64(count))
}

// ObserveImportBatch records the final state of one import run.
func (s *MetricsService) ObserveImportBatch(state string) {
	s.importBatches.WithLabelValues(state).Inc()
}
