package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rosterhub/internal/gateway"
	"rosterhub/internal/platform/middleware"
	"rosterhub/internal/roster/handler"
)

// NewRouter wires all public endpoints. The WebSocket endpoint is mounted
// outside the logging middleware: response wrappers break the hijack the
// handshake needs, and a connection that never ends makes a poor log line.
func NewRouter(h *handler.Handler, gw *gateway.Gateway, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/ws", gw.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.Recovery(logger))
		r.Use(middleware.Logger(logger))
		h.Register(r)
	})

	return r
}
