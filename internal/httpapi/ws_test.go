package httpapi

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/t31hub/t31hub/internal/config"
	"github.com/t31hub/t31hub/internal/pubsub"
)

func newTestPubSub(t *testing.T) pubsub.PubSub {
	t.Helper()
	ps, err := pubsub.MakePubSub(context.Background(), &config.Config{})
	require.NoError(t, err)
	return ps
}

func TestWSHandlerForwardsPublishedMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ps := newTestPubSub(t)
	h := newWSHandler(ps, slog.Default())

	r := gin.New()
	r.GET("/ws/status", h.handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the handler time to subscribe before publishing.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ps.Publish(pubsub.LineStatusTopic, []byte(`{"line":0,"modem":"v21-tx"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, `{"line":0,"modem":"v21-tx"}`, string(msg))
}

func TestWSHandlerRespondsToPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ps := newTestPubSub(t)
	h := newWSHandler(ps, slog.Default())

	r := gin.New()
	r.GET("/ws/status", h.handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("PING")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "PONG", string(msg))
}
