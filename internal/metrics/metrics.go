// Package metrics provides Prometheus instrumentation for the exchange.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts total trades executed, partitioned by instrument
	// and liquidity side (maker/taker).
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hourglass_trades_total",
		Help: "Total number of trades executed",
	}, []string{"instrument", "liquidity"})

	// LiquidationsTotal counts forced position closes.
	LiquidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hourglass_liquidations_total",
		Help: "Total number of liquidations applied",
	}, []string{"instrument"})

	// OrderRejectionsTotal counts rejected OpenOrder requests by reason.
	OrderRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hourglass_order_rejections_total",
		Help: "Total number of rejected orders",
	}, []string{"reason"})

	// MarginRatio tracks the most recent account-wide equity/required-margin
	// ratio; CheckLiquidation updates it only when PositionMarginMode is Cross.
	MarginRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hourglass_margin_ratio",
		Help: "Current cross-margin equity to required-margin ratio",
	})

	// OpenPositions tracks the number of currently open positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hourglass_open_positions",
		Help: "Number of currently open positions",
	})

	// EventSubscribers tracks connected event-stream WebSocket clients.
	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hourglass_event_subscribers",
		Help: "Number of connected event-stream WebSocket clients",
	})

	// RequestDuration tracks dispatcher request latency by kind.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hourglass_request_duration_seconds",
		Help:    "Dispatcher request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hourglass_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hourglass_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency for every HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// ObserveRequest records one dispatcher request's duration.
func ObserveRequest(kind string, d time.Duration) {
	RequestDuration.WithLabelValues(kind).Observe(d.Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
