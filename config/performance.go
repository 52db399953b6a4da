package config

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const slowRequestThreshold = 200 * time.Millisecond

// PerformanceLogger logs every request with its latency and records it in
// the given histogram when one is provided.
func PerformanceLogger(log logrus.FieldLogger, durations *prometheus.HistogramVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()

		if durations != nil {
			durations.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Observe(latency.Seconds())
		}

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
		})
		if latency > slowRequestThreshold {
			entry.Warn("slow request")
			return
		}
		entry.Debug("request")
	}
}
