package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat store.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_store_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_operations_total",
			Help: "Total number of store operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_store_operation_duration_seconds",
			Help:    "Store operation latencies in seconds, transaction included.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)
	auditPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_store_audit_publish_errors_total",
			Help: "Total number of audit events that could not be published.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		storeOperationsTotal,
		storeOperationDuration,
		auditPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveStoreOperation records one store operation.
func ObserveStoreOperation(operation, outcome string, elapsed time.Duration) {
	storeOperationsTotal.WithLabelValues(operation, outcome).Inc()
	storeOperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func IncAuditPublishError() {
	auditPublishErrorsTotal.Inc()
}
