package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", NewHandler(hub, nil, zerolog.Nop()).HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func waitForClients(t *testing.T, hub *Hub, path string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.GetClientsCount(path) == n }, time.Second, 10*time.Millisecond)
}

func TestHubDeliversOnlyToSubscribedPath(t *testing.T) {
	hub, url := newTestServer(t)

	event, _, err := gorilla.DefaultDialer.Dial(url+"?path=/event/1", nil)
	require.NoError(t, err)
	defer event.Close()

	other, _, err := gorilla.DefaultDialer.Dial(url+"?path=/profile/2", nil)
	require.NoError(t, err)
	defer other.Close()

	waitForClients(t, hub, "/event/1", 1)
	waitForClients(t, hub, "/profile/2", 1)

	require.NoError(t, hub.PathStale(context.Background(), "/event/1"))

	event.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := event.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeRevalidate, msg.Type)
	assert.Equal(t, "/event/1", msg.Path)

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "other path must not receive the signal")
}

func TestHandlerRequiresPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewHandler(NewHub(zerolog.Nop()), nil, zerolog.Nop()).HandleConnection)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, url := newTestServer(t)

	conn, _, err := gorilla.DefaultDialer.Dial(url+"?path=/", nil)
	require.NoError(t, err)
	waitForClients(t, hub, "/", 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, "/", 0)
}

func TestUpgraderOrigins(t *testing.T) {
	u := newUpgrader([]string{"https://bojio.app"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://bojio.app")
	assert.True(t, u.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, u.CheckOrigin(req))
}
