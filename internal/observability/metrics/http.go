package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal  *prometheus.CounterVec
	chatFollowUpTotal  *prometheus.CounterVec
	chatChunksUsed     *prometheus.HistogramVec
	chatConfidence     *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
	memoryResetsTotal  *prometheus.CounterVec
	memoryRelatedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ragchat",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total chat requests by grounding outcome.",
		},
		[]string{"service", "grounded"},
	)
	chatFollowUpTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "followup_total",
			Help:      "Total detected follow-up questions by type.",
		},
		[]string{"service", "type"},
	)
	chatChunksUsed := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "chunks_used",
			Help:      "Distribution of chunks grounding each answer.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		},
		[]string{"service"},
	)
	chatConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "confidence",
			Help:      "Distribution of response confidence.",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.7, 0.85, 0.95, 1},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	memoryResetsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "memory",
			Name:      "resets_total",
			Help:      "Total thread-switch memory resets.",
		},
		[]string{"service"},
	)
	memoryRelatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "memory",
			Name:      "related_hits_total",
			Help:      "Total related-exchange lookups that enriched an answer.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatFollowUpTotal,
		chatChunksUsed,
		chatConfidence,
		chatDuration,
		memoryResetsTotal,
		memoryRelatedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatRequestsTotal:  chatRequestsTotal,
		chatFollowUpTotal:  chatFollowUpTotal,
		chatChunksUsed:     chatChunksUsed,
		chatConfidence:     chatConfidence,
		chatDuration:       chatDuration,
		memoryResetsTotal:  memoryResetsTotal,
		memoryRelatedTotal: memoryRelatedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordChat observes one completed chat turn. grounded tells whether any
// retrieved chunk backed the answer.
func (m *HTTPServerMetrics) RecordChat(service string, chunksUsed int, confidence float64, duration time.Duration) {
	grounded := "no"
	if chunksUsed > 0 {
		grounded = "yes"
	}
	m.chatRequestsTotal.WithLabelValues(service, grounded).Inc()
	m.chatChunksUsed.WithLabelValues(service).Observe(float64(chunksUsed))
	m.chatConfidence.WithLabelValues(service).Observe(confidence)
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordFollowUp(service, followUpType string) {
	if followUpType == "" {
		followUpType = "generic"
	}
	m.chatFollowUpTotal.WithLabelValues(service, followUpType).Inc()
}

func (m *HTTPServerMetrics) RecordMemoryReset(service string) {
	m.memoryResetsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordRelatedHit(service string) {
	m.memoryRelatedTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
