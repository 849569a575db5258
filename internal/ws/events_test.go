package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPublisherReachesWebSocket(t *testing.T) {
	hub, _ := startHub(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/queues/:id/ws", QueueWebSocketHandler(hub))
	ts := httptest.NewServer(r)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/queues/5/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount("5") == 1 }, time.Second, 10*time.Millisecond)

	pub := NewLocalPublisher(hub)
	require.NoError(t, pub.Publish(context.Background(), NewEvent(EventPatientAdvanced, 5, map[string]interface{}{"patient_id": 9})))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, EventPatientAdvanced, ev["event_type"])
	assert.Equal(t, "5", ev["queue_id"])
	assert.Equal(t, float64(9), ev["data"].(map[string]interface{})["patient_id"])
}

func TestWebSocketRejectsBadQueueID(t *testing.T) {
	hub, _ := startHub(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/queues/:id/ws", QueueWebSocketHandler(hub))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/queues/abc/ws", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRedisRelay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub, _ := startHub(t)
	watcher := fakeClient(hub, "3", 4)
	require.True(t, hub.Register(watcher))

	relay := NewRelay(client, hub, zerolog.Nop())
	require.NoError(t, relay.Start(context.Background()))

	pub := NewRedisPublisher(client)
	require.NoError(t, pub.Publish(context.Background(), NewEvent(EventPatientAdded, 3, map[string]interface{}{"position": 1})))

	var ev Event
	require.NoError(t, json.Unmarshal(receive(t, watcher), &ev))
	assert.Equal(t, EventPatientAdded, ev.EventType)
	assert.Equal(t, "3", ev.QueueID)

	assert.NoError(t, relay.Close())
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "clinic:queue:12", Channel("12"))
}
