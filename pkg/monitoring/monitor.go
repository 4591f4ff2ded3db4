package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 铸造流水线指标
	MintCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nft_mints_total",
			Help: "Mint attempts by outcome",
		},
		[]string{"outcome"}, // started / completed / failed / retried
	)

	MintStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nft_mint_step_duration_seconds",
			Help:    "Duration of each mint pipeline step",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"step"},
	)

	PaymentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nft_payments_total",
			Help: "Payment operations by provider and outcome",
		},
		[]string{"provider", "outcome"}, // created / confirmed / failed / refunded
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(MintCounter)
	prometheus.MustRegister(MintStepDuration)
	prometheus.MustRegister(PaymentCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
