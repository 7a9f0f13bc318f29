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

// Metrics stores Prometheus collectors used by the api and worker flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	tokensIssuedTotal     *prometheus.CounterVec
	deliveriesSentTotal   prometheus.Counter
	deliveriesFailedTotal *prometheus.CounterVec
	deliveryDuration      prometheus.Histogram
	deliveryInflight      prometheus.Gauge
	dispatchesFailedTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "push_relay",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		tokensIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "tokens_issued_total",
				Help:      "Total number of access token exchange attempts by result.",
			},
			[]string{"result"},
		),
		deliveriesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "deliveries_sent_total",
				Help:      "Total number of per-recipient deliveries accepted by the provider.",
			},
		),
		deliveriesFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "deliveries_failed_total",
				Help:      "Total number of per-recipient deliveries that ended in failure.",
			},
			[]string{"reason"},
		),
		deliveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "push_relay",
				Name:      "delivery_duration_seconds",
				Help:      "Provider send duration in seconds per recipient.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		deliveryInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "push_relay",
				Name:      "delivery_inflight",
				Help:      "Current number of in-flight per-recipient deliveries.",
			},
		),
		dispatchesFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "dispatches_failed_total",
				Help:      "Total number of whole dispatch calls that failed before sending.",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.tokensIssuedTotal,
		m.deliveriesSentTotal,
		m.deliveriesFailedTotal,
		m.deliveryDuration,
		m.deliveryInflight,
		m.dispatchesFailedTotal,
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

func (m *Metrics) IncTokenIssued(result string) {
	if m == nil {
		return
	}
	resultLabel := strings.TrimSpace(strings.ToLower(result))
	if resultLabel == "" {
		resultLabel = "unknown"
	}
	m.tokensIssuedTotal.WithLabelValues(resultLabel).Inc()
}

func (m *Metrics) IncDeliverySent() {
	if m == nil {
		return
	}
	m.deliveriesSentTotal.Inc()
}

func (m *Metrics) IncDeliveryFailed(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.deliveriesFailedTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) ObserveDeliveryDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.deliveryDuration.Observe(seconds)
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

func (m *Metrics) IncDispatchFailed(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.dispatchesFailedTotal.WithLabelValues(reasonLabel).Inc()
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
