// Package httpserver assembles the exchange's observability and
// event-stream surface: health check, Prometheus scrape target, and the
// WebSocket event feed. It never touches the account or engine directly
// — every account operation still goes through internal/dispatcher.
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hourglass-exchange/hourglass/internal/events"
	"github.com/hourglass-exchange/hourglass/internal/metrics"
)

// New assembles the chi router: /health, /metrics, and /ws (the event
// hub's WebSocket upgrade endpoint).
func New(hub *events.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"hourglass"}`))
	})

	r.Handle("/metrics", metrics.Handler())

	r.Get("/ws", hub.HandleWS)

	return r
}
