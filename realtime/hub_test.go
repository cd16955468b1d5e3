package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitForRoom(t *testing.T, hub *Hub, room string, size int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.RoomSize(room) == size }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub := newTestHub(t)
	room := TournamentRoom("42")
	other := TournamentRoom("7")

	a := NewClient(hub, nil, room)
	b := NewClient(hub, nil, other)
	require.True(t, hub.Join(a))
	require.True(t, hub.Join(b))
	waitForRoom(t, hub, room, 1)
	waitForRoom(t, hub, other, 1)

	hub.BroadcastToRoom(room, Message{Type: MessageBracketUpdated, Payload: map[string]int{"version": 3}, RoomID: room})

	select {
	case raw := <-a.Send:
		var got Message
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, MessageBracketUpdated, got.Type)
		assert.Equal(t, "tournament_42", got.RoomID)
	case <-time.After(time.Second):
		t.Fatal("client in room did not receive the broadcast")
	}
	assert.Empty(t, b.Send)
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := newTestHub(t)
	room := TournamentRoom("1")
	c := NewClient(hub, nil, room)

	require.True(t, hub.Join(c))
	waitForRoom(t, hub, room, 1)
	hub.Leave(c)
	waitForRoom(t, hub, room, 0)

	_, open := <-c.Send
	assert.False(t, open)

	// broadcasting to an empty room is a no-op
	hub.BroadcastToRoom(room, Message{Type: MessageTournamentFinished})
}

func TestHub_FullBufferDropsMessage(t *testing.T) {
	hub := newTestHub(t)
	room := TournamentRoom("9")
	c := NewClient(hub, nil, room)
	require.True(t, hub.Join(c))
	waitForRoom(t, hub, room, 1)

	for i := 0; i < sendBufferSize+5; i++ {
		hub.BroadcastToRoom(room, Message{Type: MessageBracketUpdated})
	}
	assert.Len(t, c.Send, sendBufferSize)
}

func TestHub_JoinAndLeaveAfterShutdown(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	room := TournamentRoom("5")
	c := NewClient(hub, nil, room)
	require.True(t, hub.Join(c))
	waitForRoom(t, hub, room, 1)

	cancel()
	<-stopped

	_, open := <-c.Send
	assert.False(t, open, "shutdown closes registered clients")
	assert.Zero(t, hub.RoomSize(room))

	returned := make(chan struct{})
	go func() {
		hub.Leave(c)
		assert.False(t, hub.Join(NewClient(hub, nil, room)))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Join or Leave blocked after the hub stopped")
	}
}
