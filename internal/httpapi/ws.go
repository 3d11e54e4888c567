package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/t31hub/t31hub/internal/pubsub"
)

const wsBufferSize = 1024

// wsHandler upgrades /ws/status connections and forwards every message
// published to pubsub.LineStatusTopic to the client, the same
// subscribe-and-forward shape as the teacher's call feed.
type wsHandler struct {
	ps       pubsub.PubSub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func newWSHandler(ps pubsub.PubSub, log *slog.Logger) *wsHandler {
	return &wsHandler{
		ps:  ps,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsBufferSize,
			WriteBufferSize: wsBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *wsHandler) handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.ps.Subscribe(pubsub.LineStatusTopic)
	defer sub.Close()

	readFailed := make(chan struct{})
	go func() {
		defer close(readFailed)
		for {
			t, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == "PING" {
				if err := conn.WriteMessage(t, []byte("PONG")); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-readFailed:
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
