package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var FanOutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bojio_fanout_failures_total",
	Help: "Multi-document operations that failed, by operation and step",
}, []string{"op", "step"})

var Votes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bojio_poll_votes_total",
	Help: "Vote attempts by outcome",
}, []string{"result"})

var Revalidations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bojio_revalidations_total",
	Help: "Path revalidation signals by sink and result",
}, []string{"sink", "result"})

var CascadeSize = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "bojio_cascade_documents",
	Help:    "Number of documents removed by one cascading delete",
	Buckets: prometheus.ExponentialBuckets(1, 2, 10),
})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "bojio_http_request_duration_seconds",
	Help:    "HTTP request latency by route and status",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// Vote outcomes
const (
	VoteApplied        = "applied"
	VoteAlreadyVoted   = "already_voted"
	VoteOptionNotFound = "option_not_found"
)

// Middleware records request latency under the matched route pattern
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
