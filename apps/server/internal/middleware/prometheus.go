package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lovmap_http_requests_total",
			Help: "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lovmap_http_request_duration_seconds",
			Help:    "HTTP 请求耗时分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lovmap_http_requests_in_flight",
			Help: "处理中的 HTTP 请求数",
		},
	)

	// WebSocketConnections 在线 WebSocket 连接数
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lovmap_websocket_connections",
			Help: "在线 WebSocket 连接数",
		},
	)

	// LiveEventsPublished 实时事件发布总数
	LiveEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lovmap_live_events_published_total",
			Help: "实时事件发布总数",
		},
		[]string{"type"},
	)
)

// PrometheusMiddleware 请求指标采集中间件
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		c.Next()

		httpRequestsInFlight.Dec()

		// 使用路由模板而非原始路径，避免 path 参数导致指标基数爆炸
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
