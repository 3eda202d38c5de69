package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHub(t *testing.T, h *Hub) *httptest.Server {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.RegisterClient(conn, "admin")
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.UnregisterClient(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBroadcastReachesClient(t *testing.T) {
	h := NewHub()
	srv := serveHub(t, h)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Broadcast(Message{Event: EventSettingsUpdate, Data: map[string]int{"max_lunch": 50}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, EventSettingsUpdate, got.Event)
	assert.Equal(t, float64(50), got.Data.(map[string]interface{})["max_lunch"])
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() {
		h.Broadcast(Message{Event: EventOccupancyUpdate})
	})
	assert.Equal(t, 0, h.ClientCount())
}

func TestBroadcastDoesNotBlockOnStalledClient(t *testing.T) {
	h := NewHub()
	srv := serveHub(t, h)

	// client yang tidak pernah membaca pesan
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	payload := strings.Repeat("x", 64*1024)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			h.Broadcast(Message{Event: EventOccupancyUpdate, Data: payload})
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("broadcast blocked by a client that never reads")
	}
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestUnregisterClientTwice(t *testing.T) {
	h := NewHub()
	srv := serveHub(t, h)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.mutex.Lock()
	var serverConn *websocket.Conn
	for c := range h.clients {
		serverConn = c
	}
	h.mutex.Unlock()

	assert.NotPanics(t, func() {
		h.UnregisterClient(serverConn)
		h.UnregisterClient(serverConn)
	})
	assert.Equal(t, 0, h.ClientCount())
}
