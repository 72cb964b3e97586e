package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pionia-project/pionia/internal/crud"
	"github.com/pionia-project/pionia/internal/database"
	"github.com/pionia-project/pionia/internal/shared/testutil"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

// testClient builds a bare client without a network connection so the
// hub loop can be exercised directly.
func testClient(buffer int) *Client {
	return &Client{send: make(chan []byte, buffer)}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if hub.ClientCount() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHubStartStopIdempotent(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)

	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := newTestHub(t)

	client := testClient(1)
	hub.register <- client
	waitForClients(t, hub, 1)

	hub.unregister <- client
	waitForClients(t, hub, 0)

	// The hub closes the send channel on unregister.
	_, open := <-client.send
	assert.False(t, open)
}

func TestRecordChangedBroadcasts(t *testing.T) {
	hub := newTestHub(t)

	client := testClient(4)
	hub.register <- client
	waitForClients(t, hub, 1)

	hub.RecordChanged(crud.Event{
		Type:    "created",
		Service: "todo",
		Table:   "todos",
		Record:  database.Record{"id": 1, "title": "broadcast me"},
	})

	select {
	case payload := <-client.send:
		var event crud.Event
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, "created", event.Type)
		assert.Equal(t, "todos", event.Table)
		assert.Equal(t, "broadcast me", event.Record["title"])
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub := newTestHub(t)

	slow := testClient(0)
	hub.register <- slow
	waitForClients(t, hub, 1)

	hub.RecordChanged(crud.Event{Type: "created", Table: "todos"})
	waitForClients(t, hub, 0)
}

func TestDetachDoesNotBlockAfterStop(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()

	client := testClient(1)
	require.True(t, hub.attach(client))
	waitForClients(t, hub, 1)

	hub.Stop()

	// A client pump exiting after shutdown must not hang on the
	// unregister channel the loop no longer reads.
	done := make(chan struct{})
	go func() {
		hub.detach(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("detach blocked after hub stop")
	}

	assert.False(t, hub.attach(testClient(1)))
}

func TestStopClosesClients(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()

	client := testClient(1)
	hub.register <- client
	waitForClients(t, hub, 1)

	hub.Stop()

	select {
	case _, open := <-client.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on shutdown")
	}
}
