package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/sumstack/game/engine"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil || hub.query == nil {
		t.Error("Hub channels must be initialized")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:       hub,
		sessionID: "test-session",
		send:      make(chan []byte, 256),
	}

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if len(hub.sessions["test-session"]) != 1 {
		t.Errorf("Expected 1 client in session, got %d", len(hub.sessions["test-session"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:       hub,
		sessionID: "test-session",
		send:      make(chan []byte, 256),
	}

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	_, open := <-client.send
	assert.False(t, open, "send channel must be closed")

	// A second unregister is a no-op
	assert.NotPanics(t, func() { hub.unregisterClient(client) })
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := &Client{hub: hub, sessionID: sessionID, send: make(chan []byte, 256)}
	client2 := &Client{hub: hub, sessionID: sessionID, send: make(chan []byte, 256)}

	hub.registerClient(client1)
	hub.registerClient(client2)
	assert.Len(t, hub.sessions[sessionID], 2)

	hub.unregisterClient(client1)
	assert.Len(t, hub.sessions[sessionID], 1)
	assert.True(t, hub.sessions[sessionID][client2])
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	sessionID := "broadcast-test"

	client := &Client{hub: hub, sessionID: sessionID, send: make(chan []byte, 256)}
	other := &Client{hub: hub, sessionID: "other", send: make(chan []byte, 256)}
	hub.registerClient(client)
	hub.registerClient(other)

	gameState := &engine.GameState{
		Grid:   []engine.Tile{{ID: "a", Value: 5, Row: 9, Col: 0}},
		Target: 12,
		Score:  100,
		Status: engine.StatusPlaying,
	}

	hub.broadcastMessage(&Message{SessionID: sessionID, Event: EventStateUpdate, Cause: "match", GameState: gameState})

	select {
	case data := <-client.send:
		var message Message
		require.NoError(t, json.Unmarshal(data, &message))
		assert.Equal(t, sessionID, message.SessionID)
		assert.Equal(t, EventStateUpdate, message.Event)
		assert.Equal(t, "match", message.Cause)
		assert.Equal(t, 12, message.GameState.Target)
		assert.Equal(t, 100, message.GameState.Score)
		require.Len(t, message.GameState.Grid, 1)
	case <-time.After(100 * time.Millisecond):
		t.Error("No message received within timeout")
	}

	assert.Empty(t, other.send, "other sessions must not receive the update")
}

func TestHubSlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(client)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: EventStateUpdate})
	assert.NotContains(t, hub.sessions, "slow")
}

func TestHubNotifyStateNeverBlocks(t *testing.T) {
	hub := NewHub()

	// No Run loop: the queue fills and further pushes are dropped
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+10; i++ {
			hub.NotifyState("s", "tick", &engine.GameState{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyState blocked")
	}
	assert.Len(t, hub.broadcast, broadcastBuffer)
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()
	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		assert.Equal(t, "event-test", message.SessionID)
		assert.Equal(t, "custom-event", message.Event)
		assert.Equal(t, "test-data", message.Data)
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message queued")
	}
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hub.done
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients in %s, got %d", want, sessionID, hub.ClientCount(sessionID))
}

func TestWebSocketLifecycle(t *testing.T) {
	hub, server := startHub(t)

	conn := dial(t, server, "ws-test")
	waitForClients(t, hub, "ws-test", 1)

	conn.Close()
	waitForClients(t, hub, "ws-test", 0)
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub, server := startHub(t)

	conn := dial(t, server, "msg-test")
	defer conn.Close()
	waitForClients(t, hub, "msg-test", 1)

	hub.NotifyState("msg-test", "tick", &engine.GameState{
		Score:    200,
		TimeLeft: 7,
		Mode:     engine.ModeTime,
		Status:   engine.StatusPlaying,
	})
	hub.NotifyState("msg-test", "row_injected", &engine.GameState{TimeLeft: 10})

	conn.SetReadDeadline(time.Now().Add(time.Second))

	var first, second Message
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, "msg-test", first.SessionID)
	assert.Equal(t, EventStateUpdate, first.Event)
	assert.Equal(t, "tick", first.Cause)
	assert.Equal(t, 200, first.GameState.Score)
	assert.Equal(t, 7, first.GameState.TimeLeft)

	assert.Equal(t, "row_injected", second.Cause, "pushes arrive in order")
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "stop-test")
	}))
	defer server.Close()

	conn := dial(t, server, "stop-test")
	defer conn.Close()
	waitForClients(t, hub, "stop-test", 1)

	cancel()
	<-hub.done

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection should be closed when the hub stops")
	assert.Equal(t, 0, hub.ClientCount("stop-test"))
}
