// Package gateway maintains one long-lived WebSocket per subscriber and drains
// bus events to each connection independently, preserving publish order.
package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"rosterhub/internal/event"
	"rosterhub/internal/platform/metrics"
)

// DefaultSendTimeout bounds a single frame write. A subscriber that cannot
// accept a frame within it is treated as dead and unsubscribed.
const DefaultSendTimeout = 5 * time.Second

// Gateway bridges the event bus to WebSocket subscribers. Each connection is
// registered with the bus on open and unregistered on close; a subscriber
// never receives events published before its registration.
type Gateway struct {
	bus         *event.Bus
	logger      *slog.Logger
	metrics     *metrics.Metrics
	sendTimeout time.Duration

	mu       sync.Mutex
	shutdown chan struct{}
	closed   bool
}

func New(bus *event.Bus, logger *slog.Logger, m *metrics.Metrics, sendTimeout time.Duration) *Gateway {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Gateway{
		bus:         bus,
		logger:      logger,
		metrics:     m,
		sendTimeout: sendTimeout,
		shutdown:    make(chan struct{}),
	}
}

// Handler serves the subscription endpoint.
func (g *Gateway) Handler() http.Handler {
	return websocket.Handler(g.serve)
}

// Close disconnects all live subscribers. Idempotent; used at shutdown.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	close(g.shutdown)
}

func (g *Gateway) serve(conn *websocket.Conn) {
	defer conn.Close()

	sub := g.bus.Subscribe()
	defer g.bus.Unsubscribe(sub)

	logger := g.logger.With("subscription_id", sub.ID().String())
	logger.Info("subscriber connected", "remote", conn.Request().RemoteAddr)
	defer logger.Info("subscriber disconnected")

	// Reader loop: inbound frames are ignored, but a read error is the only
	// way to notice a client-initiated close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = io.Copy(io.Discard, conn)
	}()

	for {
		select {
		case <-g.shutdown:
			return
		case <-done:
			return
		case e, ok := <-sub.Events():
			if !ok {
				// Subscription ended: queue overflow or bus shutdown.
				return
			}
			if err := g.send(conn, e); err != nil {
				g.metrics.IncrementDeliveryErrors()
				logger.Warn("event delivery failed, dropping subscriber",
					"event_type", string(e.Kind),
					"error", err.Error(),
				)
				return
			}
		}
	}
}

func (g *Gateway) send(conn *websocket.Conn, e event.Event) error {
	payload, err := e.WirePayload()
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(g.sendTimeout)); err != nil {
		return err
	}
	return websocket.Message.Send(conn, string(payload))
}
