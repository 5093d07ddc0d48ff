package websocket

import (
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/snapline/backend/internal/logger"
	"github.com/snapline/backend/internal/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

func TestNewHub(t *testing.T) {
	hub := NewHub(presence.NewMemoryStore())
	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.allClients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.unicast)
	assert.NotNil(t, hub.metrics)
	assert.NotNil(t, hub.presence)
}

func TestRateLimiter(t *testing.T) {
	// 5 per second with burst of 10
	rl := NewRateLimiter(5, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(), "Request %d should be allowed", i+1)
	}

	assert.False(t, rl.Allow(), "Request 11 should be denied")

	time.Sleep(300 * time.Millisecond)
	assert.True(t, rl.Allow(), "Request after wait should be allowed")
}

func TestNewMessage(t *testing.T) {
	payload := map[string]string{"test": "data"}
	msg := NewMessage(MessageTypeNewMessage, payload)

	assert.Equal(t, MessageTypeNewMessage, msg.Type)
	assert.NotNil(t, msg.Payload)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("test_error", "Something went wrong")

	assert.Equal(t, MessageTypeError, msg.Type)

	payload, ok := msg.Payload.(ErrorPayload)
	assert.True(t, ok)
	assert.Equal(t, "test_error", payload.Code)
	assert.Equal(t, "Something went wrong", payload.Message)
}

func TestMessageParsePayload(t *testing.T) {
	msg := NewMessage(MessageTypeNewMessage, DirectMessagePayload{
		MessageID: "m1",
		SenderID:  "alice",
		Body:      "hey",
	})

	var payload DirectMessagePayload
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, "m1", payload.MessageID)
	assert.Equal(t, "alice", payload.SenderID)
	assert.Equal(t, "hey", payload.Body)
}

func TestFlexibleTimeUnmarshal(t *testing.T) {
	// Unix milliseconds
	var ft FlexibleTime
	require.NoError(t, json.Unmarshal([]byte("1700000000000"), &ft))
	assert.Equal(t, int64(1700000000000), ft.UnixMilli())

	// RFC3339 string
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-01T12:00:00Z"`), &ft))
	assert.Equal(t, 2024, ft.Year())

	// Anything else fails
	assert.Error(t, json.Unmarshal([]byte(`{"bad":1}`), &ft))
}

// Register/unregister update presence and trigger online-user broadcasts.
func TestHubPresenceLifecycle(t *testing.T) {
	store := presence.NewMemoryStore()
	hub := NewHub(store)

	alice := &Client{
		hub:    hub,
		UserID: "alice",
		ConnID: "conn-a1",
		send:   make(chan []byte, sendBufferSize),
	}
	bob := &Client{
		hub:    hub,
		UserID: "bob",
		ConnID: "conn-b1",
		send:   make(chan []byte, sendBufferSize),
	}

	hub.registerClient(alice)
	hub.registerClient(bob)

	assert.True(t, hub.IsUserOnline("alice"))
	assert.True(t, hub.IsUserOnline("bob"))
	assert.ElementsMatch(t, []string{"alice", "bob"}, hub.GetOnlineUsers())

	// Both clients get the online-user broadcast triggered by bob's
	// registration. Drain alice's queue and inspect the last frame.
	var last []byte
	for len(alice.send) > 0 {
		last = <-alice.send
	}
	require.NotNil(t, last)

	var msg Message
	require.NoError(t, json.Unmarshal(last, &msg))
	assert.Equal(t, MessageTypeOnlineUsers, msg.Type)

	var payload OnlineUsersPayload
	require.NoError(t, msg.ParsePayload(&payload))
	assert.ElementsMatch(t, []string{"alice", "bob"}, payload.Users)

	hub.unregisterClient(bob)
	assert.False(t, hub.IsUserOnline("bob"))
	assert.ElementsMatch(t, []string{"alice"}, hub.GetOnlineUsers())
	assert.Equal(t, int64(1), hub.GetMetrics().ActiveConnections)
}

// A user reconnecting gets a fresh conn ID; the old socket's teardown
// must not erase the new presence entry.
func TestHubReconnectKeepsUserOnline(t *testing.T) {
	store := presence.NewMemoryStore()
	hub := NewHub(store)

	first := &Client{hub: hub, UserID: "alice", ConnID: "conn-1", send: make(chan []byte, sendBufferSize)}
	second := &Client{hub: hub, UserID: "alice", ConnID: "conn-2", send: make(chan []byte, sendBufferSize)}

	hub.registerClient(first)
	hub.registerClient(second)
	hub.unregisterClient(first)

	assert.True(t, hub.IsUserOnline("alice"))
	assert.Equal(t, []string{"alice"}, hub.GetOnlineUsers())
}

func TestHubMetrics(t *testing.T) {
	hub := NewHub(presence.NewMemoryStore())

	client := &Client{hub: hub, UserID: "alice", ConnID: "c1", send: make(chan []byte, sendBufferSize)}
	hub.registerClient(client)

	m := hub.GetMetrics()
	assert.Equal(t, int64(1), m.TotalConnections)
	assert.Equal(t, int64(1), m.ActiveConnections)
	assert.Contains(t, m.String(), "connections=1/1")
}

// Unregistering a client while other goroutines are mid-Send (pong
// replies, presence snapshots) must not panic on the closed send
// channel; late sends just fail with an error.
func TestSendDuringUnregisterDoesNotPanic(t *testing.T) {
	hub := NewHub(presence.NewMemoryStore())

	client := NewClient(hub, nil, "alice", "alice", "conn-1")
	hub.registerClient(client)

	msg := NewMessage(MessageTypePing, PingPayload{ClientTime: time.Now().UnixMilli()})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = client.Send(msg)
			}
		}()
	}

	hub.unregisterClient(client)
	wg.Wait()

	// The channel is closed now, so sends report failure instead of
	// panicking.
	assert.Error(t, client.Send(msg))
}
