package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	segmentTotal      *prometheus.CounterVec
	segmentDuration   *prometheus.HistogramVec
	segmentInFlight   prometheus.Gauge
	queueLag          *prometheus.HistogramVec
	pagesPerDocument  *prometheus.HistogramVec
	chunksPerDocument *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	segmentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prag",
			Subsystem: "worker",
			Name:      "document_segment_total",
			Help:      "Total segmented documents by status.",
		},
		[]string{"service", "status"},
	)
	segmentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prag",
			Subsystem: "worker",
			Name:      "document_segment_duration_seconds",
			Help:      "Document segmentation duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	segmentInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prag",
			Subsystem: "worker",
			Name:      "document_segment_in_flight",
			Help:      "Number of in-flight segmentation tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prag",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and segmentation start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	pagesPerDocument := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prag",
			Subsystem: "worker",
			Name:      "document_pages",
			Help:      "Distribution of page counts per segmented document.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
		[]string{"service"},
	)
	chunksPerDocument := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prag",
			Subsystem: "worker",
			Name:      "document_chunks",
			Help:      "Distribution of chunk counts per segmented document by content type.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"service", "content_type"},
	)

	registry.MustRegister(
		segmentTotal,
		segmentDuration,
		segmentInFlight,
		queueLag,
		pagesPerDocument,
		chunksPerDocument,
	)

	return &WorkerMetrics{
		registry:          registry,
		segmentTotal:      segmentTotal,
		segmentDuration:   segmentDuration,
		segmentInFlight:   segmentInFlight,
		queueLag:          queueLag,
		pagesPerDocument:  pagesPerDocument,
		chunksPerDocument: chunksPerDocument,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.segmentInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.segmentInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.segmentTotal.WithLabelValues(service, status).Inc()
	m.segmentDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObserveSegmentation(service string, pages, textChunks, tableChunks int) {
	m.pagesPerDocument.WithLabelValues(service).Observe(float64(pages))
	m.chunksPerDocument.WithLabelValues(service, "text").Observe(float64(textChunks))
	m.chunksPerDocument.WithLabelValues(service, "table").Observe(float64(tableChunks))
}
