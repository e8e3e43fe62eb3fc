package monitoring

import (
	"strconv"
	"sync"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 60},
		},
		[]string{"method", "endpoint"},
	)

	// MintTotal result: issued / pending / failed
	MintTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nft_mint_total",
			Help: "NFT mint attempts by result",
		},
		[]string{"result"},
	)

	CollectionAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_collection_attempts_total",
			Help: "Attempts made to obtain an NFT collection owned by the admin signer",
		},
	)

	CertificatesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates recorded, by status",
		},
		[]string{"status"},
	)

	CertificatesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "certificates_by_status",
			Help: "Current number of certificates in each status",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(MintTotal)
		prometheus.MustRegister(CollectionAttempts)
		prometheus.MustRegister(CertificatesIssued)
		prometheus.MustRegister(CertificatesByStatus)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
