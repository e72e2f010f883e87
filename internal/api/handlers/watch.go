package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/narvanalabs/domain-registry/internal/events"
)

const (
	watchWriteWait  = 10 * time.Second
	watchPongWait   = 60 * time.Second
	watchPingPeriod = (watchPongWait * 9) / 10
)

// WatchHandler streams domain change events over a websocket.
type WatchHandler struct {
	broker   *events.Broker
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWatchHandler creates a watch handler fed by broker.
func NewWatchHandler(broker *events.Broker, logger *slog.Logger) *WatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchHandler{
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Watch handles GET /v1/domains/watch. The optional app query parameter
// limits the stream to one application.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket", "error", err)
		return
	}
	defer conn.Close()

	appID := r.URL.Query().Get("app")
	sub := h.broker.Subscribe(appID)
	defer h.broker.Unsubscribe(sub)

	h.logger.Info("domain watch started", "subscriber_id", sub.ID, "app_id", appID)
	defer h.logger.Info("domain watch ended", "subscriber_id", sub.ID)

	// The read loop only services control frames and notices the close.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(watchPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
