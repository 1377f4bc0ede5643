package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "powermon"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	wsFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "frames_total",
			Help:      "Messages received from the device by kind.",
		},
		[]string{"kind"},
	)
	decodeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "decode_errors_total",
			Help:      "Binary frames dropped because they failed to decode.",
		},
	)
	envelopes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "envelopes_total",
			Help:      "Decoded envelopes dispatched by payload tag.",
		},
		[]string{"tag"},
	)
	sessionOpens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "opens_total",
			Help:      "Sessions that reached the open state.",
		},
	)
	sessionCloses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "closes_total",
			Help:      "Session closes by reason.",
		},
		[]string{"reason"},
	)
	sessionReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "reconnects_total",
			Help:      "Replacement sessions started after a close.",
		},
	)
	sessionOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "online",
			Help:      "1 while a device session is open.",
		},
	)
	seriesInserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "inserts_total",
			Help:      "Window inserts by metric.",
		},
		[]string{"metric"},
	)
	seriesScaleChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "scale_changes_total",
			Help:      "Display scale changes by metric.",
		},
		[]string{"metric"},
	)
	seriesScaleMax = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "scale_max",
			Help:      "Current display scale maximum by metric.",
		},
		[]string{"metric"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			wsFrames,
			decodeErrors,
			envelopes,
			sessionOpens,
			sessionCloses,
			sessionReconnects,
			sessionOnline,
			seriesInserts,
			seriesScaleChanges,
			seriesScaleMax,
		)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrame(kind string) {
	RegisterMetrics()
	wsFrames.WithLabelValues(kind).Inc()
}

func RecordDecodeError() {
	RegisterMetrics()
	decodeErrors.Inc()
}

func RecordEnvelope(tag string) {
	RegisterMetrics()
	envelopes.WithLabelValues(tag).Inc()
}

func RecordSessionOpen() {
	RegisterMetrics()
	sessionOpens.Inc()
	sessionOnline.Set(1)
}

func RecordSessionClose(reason string) {
	RegisterMetrics()
	sessionCloses.WithLabelValues(reason).Inc()
	sessionOnline.Set(0)
}

func RecordReconnect() {
	RegisterMetrics()
	sessionReconnects.Inc()
}

func RecordSeriesInsert(metric string, scaleMax float64, scaleChanged bool) {
	RegisterMetrics()
	seriesInserts.WithLabelValues(metric).Inc()
	seriesScaleMax.WithLabelValues(metric).Set(scaleMax)
	if scaleChanged {
		seriesScaleChanges.WithLabelValues(metric).Inc()
	}
}
