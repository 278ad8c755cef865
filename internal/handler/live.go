package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pitboss/internal/session"
	"pitboss/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// LiveHandler streams session events over a websocket.
type LiveHandler struct {
	service  *session.Service
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// NewLiveHandler creates a LiveHandler.
func NewLiveHandler(service *session.Service, log logger.Logger) *LiveHandler {
	return &LiveHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS policy is enforced by middleware before the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Stream upgrades the connection and forwards session events until the
// client disconnects.
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	events, cancel := h.service.Subscribe()
	defer cancel()

	// Reader goroutine exists only to process control frames and detect
	// disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
