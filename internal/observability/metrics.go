package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and pipeline flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal         *prometheus.CounterVec
	httpRequestDuration       *prometheus.HistogramVec
	notificationsQueuedTotal  *prometheus.CounterVec
	notificationsSentTotal    prometheus.Counter
	notificationsFailedTotal  *prometheus.CounterVec
	gatewaySendDuration       prometheus.Histogram
	deliveryInflight          prometheus.Gauge
	requestsExpiredTotal      prometheus.Counter
	queueRecordsDeletedTotal  prometheus.Counter
	donorsSkippedNoTokenTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "blood_notifier",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "blood_notifier",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		notificationsQueuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "blood_notifier",
				Name:      "notifications_queued_total",
				Help:      "Total number of notifications appended to the outbound queue by source.",
			},
			[]string{"source"},
		),
		notificationsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "blood_notifier",
				Name:      "notifications_sent_total",
				Help:      "Total number of notifications delivered by the push gateway.",
			},
		),
		notificationsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "blood_notifier",
				Name:      "notifications_failed_total",
				Help:      "Total number of notifications marked processed with an error.",
			},
			[]string{"reason"},
		),
		gatewaySendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "blood_notifier",
				Name:      "gateway_send_duration_seconds",
				Help:      "Push gateway call duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		deliveryInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "blood_notifier",
				Name:      "delivery_inflight",
				Help:      "Current number of in-flight delivery worker operations.",
			},
		),
		requestsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "blood_notifier",
				Name:      "requests_expired_total",
				Help:      "Total number of donation requests transitioned to expired by the sweeper.",
			},
		),
		queueRecordsDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "blood_notifier",
				Name:      "queue_records_deleted_total",
				Help:      "Total number of processed queue records removed by the retention sweeper.",
			},
		),
		donorsSkippedNoTokenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "blood_notifier",
				Name:      "donors_skipped_no_token_total",
				Help:      "Total number of donors skipped during fan-out for lack of a push token.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.notificationsQueuedTotal,
		m.notificationsSentTotal,
		m.notificationsFailedTotal,
		m.gatewaySendDuration,
		m.deliveryInflight,
		m.requestsExpiredTotal,
		m.queueRecordsDeletedTotal,
		m.donorsSkippedNoTokenTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncNotificationQueued(source string) {
	if m == nil {
		return
	}
	sourceLabel := strings.TrimSpace(strings.ToLower(source))
	if sourceLabel == "" {
		sourceLabel = "unknown"
	}
	m.notificationsQueuedTotal.WithLabelValues(sourceLabel).Inc()
}

func (m *Metrics) IncNotificationSent() {
	if m == nil {
		return
	}
	m.notificationsSentTotal.Inc()
}

func (m *Metrics) IncNotificationFailed(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.notificationsFailedTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) ObserveGatewaySendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.gatewaySendDuration.Observe(seconds)
}

func (m *Metrics) IncDeliveryInFlight() {
	if m == nil {
		return
	}
	m.deliveryInflight.Inc()
}

func (m *Metrics) DecDeliveryInFlight() {
	if m == nil {
		return
	}
	m.deliveryInflight.Dec()
}

func (m *Metrics) AddRequestsExpired(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.requestsExpiredTotal.Add(float64(count))
}

func (m *Metrics) AddQueueRecordsDeleted(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.queueRecordsDeletedTotal.Add(float64(count))
}

func (m *Metrics) IncDonorSkippedNoToken() {
	if m == nil {
		return
	}
	m.donorsSkippedNoTokenTotal.Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
