package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(NewRoomManager(nil), NewSessionManager(nil))
}

// seatClient registers a hub client bound to an existing room player without
// a real websocket; only the send buffer is exercised.
func seatClient(hub *Hub, sessionID, playerID, roomCode, name string) *Client {
	client := NewClient(hub, nil, sessionID)
	client.setBinding(playerID, roomCode, name)
	hub.Register(client)
	return client
}

func drain(c *Client) []ServerMessage {
	var msgs []ServerMessage
	for {
		select {
		case data := <-c.send:
			var msg ServerMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				msgs = append(msgs, msg)
			}
		default:
			return msgs
		}
	}
}

func TestBroadcastReachesRoomOnly(t *testing.T) {
	hub := newTestHub()
	a := seatClient(hub, "s1", "p1", "BEAR", "Alice")
	b := seatClient(hub, "s2", "p2", "BEAR", "Bob")
	other := seatClient(hub, "s3", "p3", "WOLF", "Carol")

	hub.BroadcastMessage("BEAR", NewMessage(MsgRoomUpdated, nil))

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(other))
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	hub := newTestHub()
	a := seatClient(hub, "s1", "p1", "BEAR", "Alice")
	b := seatClient(hub, "s2", "p2", "BEAR", "Bob")

	hub.BroadcastMessageExcept("BEAR", "s1", NewMessage(MsgPlayerJoined, nil))

	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub()
	a := seatClient(hub, "s1", "p1", "BEAR", "Alice")

	for i := 0; i < sendBufferSize+10; i++ {
		hub.BroadcastMessage("BEAR", NewMessage(MsgRoomUpdated, nil))
	}

	assert.Len(t, drain(a), sendBufferSize)
}

func TestBroadcastConcurrentWithRebindIsSafe(t *testing.T) {
	hub := newTestHub()
	a := seatClient(hub, "s1", "p1", "BEAR", "Alice")
	seatClient(hub, "s2", "p2", "BEAR", "Bob")

	// Fan-out reads each client's room binding while the client's own pump
	// goroutine may be rewriting it (join, leave, kick).
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.BroadcastMessage("BEAR", NewMessage(MsgRoomUpdated, nil))
		}
	}()
	for i := 0; i < 1000; i++ {
		a.setBinding("p1", "WOLF", "Alice")
		a.clearBinding()
		a.setBinding("p1", "BEAR", "Alice")
	}
	<-done

	playerID, roomCode, name := a.Binding()
	assert.Equal(t, "p1", playerID)
	assert.Equal(t, "BEAR", roomCode)
	assert.Equal(t, "Alice", name)
}

func TestSendToClient(t *testing.T) {
	hub := newTestHub()
	a := seatClient(hub, "s1", "p1", "BEAR", "Alice")

	data, err := json.Marshal(NewMessage(MsgError, ErrorPayload{Code: "X"}))
	require.NoError(t, err)
	hub.SendToClient("s1", data)
	hub.SendToClient("unknown", data)

	msgs := drain(a)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgError, msgs[0].Type)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := newTestHub()
	a := seatClient(hub, "s1", "", "", "")

	hub.Unregister(a)
	hub.Unregister(a)

	assert.Nil(t, hub.GetClientBySession("s1"))
}

func TestDisconnectMarksPlayerAndKeepsRoom(t *testing.T) {
	hub := newTestHub()
	room, hostID, err := hub.rooms.CreateRoom("Alice")
	require.NoError(t, err)
	bob := room.AddPlayer("Bob")

	seatClient(hub, "s1", hostID, room.Code, "Alice")
	bobClient := seatClient(hub, "s2", bob.ID, room.Code, "Bob")

	hub.Unregister(bobClient)

	require.NotNil(t, hub.rooms.GetRoom(room.Code))
	assert.False(t, room.GetPlayer(bob.ID).IsConnected)
}

func TestHostDisconnectMidGameDisbandsRoom(t *testing.T) {
	hub := newTestHub()
	room, hostID, err := hub.rooms.CreateRoom("Alice")
	require.NoError(t, err)
	bob := room.AddPlayer("Bob")
	room.StartGame()

	hostClient := seatClient(hub, "s1", hostID, room.Code, "Alice")
	bobClient := seatClient(hub, "s2", bob.ID, room.Code, "Bob")

	hub.Unregister(hostClient)

	assert.Nil(t, hub.rooms.GetRoom(room.Code))

	msgs := drain(bobClient)
	require.NotEmpty(t, msgs)
	assert.Equal(t, MsgRoomClosed, msgs[len(msgs)-1].Type)
}

func TestHostDisconnectInLobbyReassignsHost(t *testing.T) {
	hub := newTestHub()
	room, hostID, err := hub.rooms.CreateRoom("Alice")
	require.NoError(t, err)
	bob := room.AddPlayer("Bob")

	hostClient := seatClient(hub, "s1", hostID, room.Code, "Alice")
	seatClient(hub, "s2", bob.ID, room.Code, "Bob")

	hub.Unregister(hostClient)

	require.NotNil(t, hub.rooms.GetRoom(room.Code))
	assert.Equal(t, bob.ID, room.HostID())
	assert.False(t, room.GetPlayer(hostID).IsConnected)
}

func TestLastDisconnectDeletesRoom(t *testing.T) {
	hub := newTestHub()
	room, hostID, err := hub.rooms.CreateRoom("Alice")
	require.NoError(t, err)

	hostClient := seatClient(hub, "s1", hostID, room.Code, "Alice")
	hub.Unregister(hostClient)

	assert.Nil(t, hub.rooms.GetRoom(room.Code))
}
