package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "charstudio",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	CharactersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "charstudio",
		Name:      "characters_created_total",
		Help:      "Total number of character profiles persisted",
	})

	GenAIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "charstudio",
		Name:      "genai_request_duration_seconds",
		Help:      "Duration of generative AI calls",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"operation"})

	GenAIFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "charstudio",
		Name:      "genai_failures_total",
		Help:      "Generative AI calls that failed or returned unusable output",
	}, []string{"operation"})

	BlobBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "charstudio",
		Name:      "blob_bytes_written_total",
		Help:      "Bytes of reference images written to object storage",
	})

	LibraryEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "charstudio",
		Name:      "library_events_published_total",
		Help:      "Library events published, by type and outcome",
	}, []string{"type", "outcome"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "charstudio",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
