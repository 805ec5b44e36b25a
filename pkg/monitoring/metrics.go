package monitoring

import (
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes that are scraped or polled and would drown the request metrics.
var unmeasuredRoutes = map[string]bool{
	"/metrics": true,
	"/health":  true,
}

// MetricsCollector records per-route HTTP metrics under the service namespace.
type MetricsCollector struct {
	gatherer prometheus.Gatherer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewMetricsCollector creates a collector registered on the default registry
func NewMetricsCollector(serviceName, version, commit string) *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, serviceName, version, commit)
}

// NewMetricsCollectorWithRegistry creates a collector bound to a specific registry.
func NewMetricsCollectorWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer, serviceName, version, commit string) *MetricsCollector {
	// Prometheus metric names cannot contain hyphens
	namespace := strings.ReplaceAll(serviceName, "-", "_")
	factory := promauto.With(reg)

	mc := &MetricsCollector{
		gatherer: gatherer,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method", "endpoint"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of in-flight HTTP requests",
		}),
	}

	factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information; always 1",
	}, []string{"version", "commit", "go_version"}).WithLabelValues(version, commit, runtime.Version()).Set(1)

	return mc
}

// MetricsMiddleware returns middleware that collects HTTP metrics
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if unmeasuredRoutes[endpoint] {
			c.Next()
			return
		}
		if endpoint == "" {
			endpoint = "unmatched"
		}

		start := time.Now()
		mc.inFlight.Inc()
		defer mc.inFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		mc.requestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		mc.requestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(mc.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
