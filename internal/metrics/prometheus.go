package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus metrics of the audio notes service
type Metrics struct {
	registry *prometheus.Registry

	// Relay metrics
	TranscriptionRequests *prometheus.CounterVec
	TranscriptionDuration prometheus.Histogram
	UploadSize            prometheus.Histogram

	// Notes metrics
	NotesSaved     prometheus.Counter
	NotesDeleted   prometheus.Counter
	OrphanedBlobs  prometheus.Counter
	NoteListCache  *prometheus.CounterVec
	StorageFailure *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics on a private registry that also carries the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TranscriptionRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audionotes_transcription_requests_total",
			Help: "Transcription relay requests by outcome",
		}, []string{"outcome"}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "audionotes_transcription_duration_seconds",
			Help:    "Time spent waiting on the transcription provider",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		UploadSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "audionotes_upload_size_bytes",
			Help:    "Size of audio files received by the relay",
			Buckets: prometheus.ExponentialBuckets(16<<10, 4, 7),
		}),

		NotesSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "audionotes_notes_saved_total",
			Help: "Notes persisted",
		}),
		NotesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "audionotes_notes_deleted_total",
			Help: "Notes deleted",
		}),
		OrphanedBlobs: f.NewCounter(prometheus.CounterOpts{
			Name: "audionotes_orphaned_blobs_total",
			Help: "Audio objects left in storage after their note row was deleted",
		}),
		NoteListCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audionotes_note_list_cache_total",
			Help: "Note list cache lookups by result",
		}, []string{"result"}),
		StorageFailure: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audionotes_storage_failures_total",
			Help: "Failed storage backend calls by operation",
		}, []string{"op"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audionotes_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audionotes_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
