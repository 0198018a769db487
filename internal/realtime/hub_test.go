package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialTestConn(t *testing.T, hub *Hub, userID uint) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(userID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// registration happens on the server goroutine after the handshake
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.conns[userID]) > 0
	}, time.Second, 10*time.Millisecond)

	return conn
}

func TestPushReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub()
	mine := dialTestConn(t, hub, 1)
	theirs := dialTestConn(t, hub, 2)

	hub.Push(1, Event{Type: "INSERT", Table: "notifications", Payload: map[string]string{"title": "hi"}})

	mine.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := mine.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	require.Equal(t, "INSERT", ev.Type)
	require.Equal(t, "notifications", ev.Table)

	theirs.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = theirs.ReadMessage()
	require.Error(t, err, "other users must not receive the event")
}

func TestConcurrentPushesToOneConnection(t *testing.T) {
	hub := NewHub()
	client := dialTestConn(t, hub, 1)

	const pushes = 8
	var wg sync.WaitGroup
	for i := 0; i < pushes; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.Push(1, Event{Type: "INSERT", Table: "notifications", Payload: map[string]int{"n": n}})
		}(i)
	}
	wg.Wait()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < pushes; i++ {
		_, data, err := client.ReadMessage()
		require.NoError(t, err)

		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev), "every frame must arrive intact")
		require.Equal(t, "notifications", ev.Table)
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	var serverConn *websocket.Conn
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConn = conn
		hub.Register(1, conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return serverConn != nil && len(hub.conns[1]) > 0
	}, time.Second, 10*time.Millisecond)

	hub.Unregister(1, serverConn)
	hub.Push(1, Event{Type: "INSERT", Table: "notifications"})

	client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = client.ReadMessage()
	require.Error(t, err)
}
