package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests no route matched, so scanners probing random
// paths cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guias",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	requestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "guias",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	responseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "guias",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response body size by method and route.",
		// JSON pages are a few KiB; PDF manifests with a logo reach MiBs.
		Buckets: prometheus.ExponentialBuckets(256, 4, 9),
	}, []string{"method", "route"})

	inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "guias",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Requests currently being served.",
	})

	replaysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guias",
		Subsystem: "http",
		Name:      "idempotent_replays_total",
		Help:      "Write requests answered from a stored idempotency record.",
	}, []string{"route"})

	rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guias",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by identity kind (station or ip).",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestSeconds, responseBytes, inFlight, replaysTotal, rateLimitedTotal)
}

// Metrics records Prometheus request metrics labelled by the matched route
// template (e.g. /api/registros/:id).
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		inFlight.Inc()
		start := time.Now()

		c.Next()

		inFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method

		requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if n := c.Writer.Size(); n >= 0 {
			responseBytes.WithLabelValues(method, route).Observe(float64(n))
		}
		if IsReplay(c) {
			replaysTotal.WithLabelValues(route).Inc()
		}
	}
}
