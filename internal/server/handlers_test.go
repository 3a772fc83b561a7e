package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlayerName(t *testing.T) {
	assert.NoError(t, validatePlayerName("Alice"))
	assert.NoError(t, validatePlayerName("12345678901234567890"))

	assert.Error(t, validatePlayerName(""))
	assert.Error(t, validatePlayerName("123456789012345678901"))
}

func TestJoinErrorCode(t *testing.T) {
	assert.Equal(t, "ROOM_NOT_FOUND", joinErrorCode(ErrRoomNotFound))
	assert.Equal(t, "GAME_IN_PROGRESS", joinErrorCode(ErrGameInProgress))
	assert.Equal(t, "ROOM_FULL", joinErrorCode(ErrRoomFull))
	assert.Equal(t, "JOIN_FAILED", joinErrorCode(assert.AnError))
}

func TestCheckGameProgressNoWinnerWhileContested(t *testing.T) {
	hub := newTestHub()
	room, _, err := hub.rooms.CreateRoom("Alice")
	require.NoError(t, err)
	room.AddPlayer("Bob")
	room.StartGame()

	assert.False(t, hub.checkGameProgress(room))
	assert.Equal(t, StatusPlaying, room.Status())
}

func TestTeardownRoomDisbandsAndNotifies(t *testing.T) {
	hub := newTestHub()
	room, hostID, err := hub.rooms.CreateRoom("Alice")
	require.NoError(t, err)

	hostClient := seatClient(hub, "s1", hostID, room.Code, "Alice")
	hub.teardownRoom(room.Code, "testing")

	assert.Nil(t, hub.rooms.GetRoom(room.Code))

	msgs := drain(hostClient)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgRoomClosed, msgs[0].Type)
}

func TestFindClientByPlayer(t *testing.T) {
	hub := newTestHub()
	a := seatClient(hub, "s1", "p1", "BEAR", "Alice")
	seatClient(hub, "s2", "p2", "BEAR", "Bob")

	assert.Same(t, a, hub.findClientByPlayer("BEAR", "p1"))
	assert.Nil(t, hub.findClientByPlayer("BEAR", "p9"))
	assert.Nil(t, hub.findClientByPlayer("WOLF", "p1"))
}
