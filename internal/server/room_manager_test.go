package server_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slapjack-server/internal/server"
)

func newManager() *server.RoomManager {
	return server.NewRoomManager(nil)
}

func TestCreateRoomRegistersCode(t *testing.T) {
	m := newManager()

	room, playerID, err := m.CreateRoom("Alice")
	require.NoError(t, err)

	assert.NotEmpty(t, playerID)
	assert.Same(t, room, m.GetRoom(room.Code))
	assert.NoError(t, server.ValidateRoomCode(room.Code))
}

func TestCreateRoomCodesAreUnique(t *testing.T) {
	m := newManager()
	codes := make(map[string]bool)

	for range 50 {
		room, _, err := m.CreateRoom("Alice")
		require.NoError(t, err)
		assert.False(t, codes[room.Code])
		codes[room.Code] = true
	}
}

func TestJoinRoomErrors(t *testing.T) {
	m := newManager()

	_, _, err := m.JoinRoom("XXXX", "Bob")
	assert.ErrorIs(t, err, server.ErrRoomNotFound)

	room, _, err := m.CreateRoom("Alice")
	require.NoError(t, err)

	room.AddPlayer("Bob")
	room.AddPlayer("Carol")
	room.AddPlayer("Dave")
	_, _, err = m.JoinRoom(room.Code, "Eve")
	assert.ErrorIs(t, err, server.ErrRoomFull)

	started, _, err := m.CreateRoom("Frank")
	require.NoError(t, err)
	started.AddPlayer("Grace")
	started.StartGame()
	_, _, err = m.JoinRoom(started.Code, "Heidi")
	assert.ErrorIs(t, err, server.ErrGameInProgress)
}

func TestJoinRoomSeatsPlayer(t *testing.T) {
	m := newManager()
	room, _, err := m.CreateRoom("Alice")
	require.NoError(t, err)

	joined, player, err := m.JoinRoom(room.Code, "Bob")
	require.NoError(t, err)

	assert.Same(t, room, joined)
	assert.Equal(t, "Bob", player.Name)
	assert.Equal(t, 2, room.PlayerCount())
}

func TestLeaveRoomDeletesWhenEmpty(t *testing.T) {
	m := newManager()
	room, hostID, err := m.CreateRoom("Alice")
	require.NoError(t, err)

	m.LeaveRoom(room.Code, hostID)

	assert.Nil(t, m.GetRoom(room.Code))
}

func TestLeaveRoomKeepsOthersSeated(t *testing.T) {
	m := newManager()
	room, hostID, err := m.CreateRoom("Alice")
	require.NoError(t, err)
	bob := room.AddPlayer("Bob")

	m.LeaveRoom(room.Code, hostID)

	require.NotNil(t, m.GetRoom(room.Code))
	assert.Equal(t, bob.ID, room.HostID())
}

func TestReassignHostSkipsDisconnected(t *testing.T) {
	m := newManager()
	room, hostID, err := m.CreateRoom("Alice")
	require.NoError(t, err)
	bob := room.AddPlayer("Bob")
	carol := room.AddPlayer("Carol")

	room.SetConnected(hostID, false)
	room.SetConnected(bob.ID, false)

	m.ReassignHost(room.Code)

	assert.Equal(t, carol.ID, room.HostID())
	assert.True(t, room.GetPlayer(carol.ID).IsHost)
	assert.False(t, room.GetPlayer(hostID).IsHost)
}

func TestReassignHostNoopWhenHostConnected(t *testing.T) {
	m := newManager()
	room, hostID, err := m.CreateRoom("Alice")
	require.NoError(t, err)
	room.AddPlayer("Bob")

	m.ReassignHost(room.Code)

	assert.Equal(t, hostID, room.HostID())
}

func TestActiveRoomsListsJoinableOnly(t *testing.T) {
	m := newManager()

	waiting, _, err := m.CreateRoom("Alice")
	require.NoError(t, err)

	playing, _, err := m.CreateRoom("Bob")
	require.NoError(t, err)
	playing.AddPlayer("Carol")
	playing.StartGame()

	rooms := m.ActiveRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, waiting.Code, rooms[0].Code)
	assert.Equal(t, "Alice", rooms[0].HostName)
}

func TestSweepIdleRoomsReapsEmptyAndFinished(t *testing.T) {
	m := newManager()

	empty, hostID, err := m.CreateRoom("Alice")
	require.NoError(t, err)
	empty.SetConnected(hostID, false)

	finished, _, err := m.CreateRoom("Bob")
	require.NoError(t, err)
	finished.AddPlayer("Dana")
	finished.StartGame()
	server.MarkFinished(finished)

	live, _, err := m.CreateRoom("Carol")
	require.NoError(t, err)

	swept := m.SweepIdleRooms()

	assert.Equal(t, 2, swept)
	assert.Nil(t, m.GetRoom(empty.Code))
	assert.Nil(t, m.GetRoom(finished.Code))
	assert.NotNil(t, m.GetRoom(live.Code))
}

func TestStartGameCountdownStartsGame(t *testing.T) {
	m := newManager()
	hub := server.NewHub(m, server.NewSessionManager(nil))
	room, _, err := m.CreateRoom("Alice")
	require.NoError(t, err)
	room.AddPlayer("Bob")

	m.StartGameCountdown(room.Code, hub)

	assert.Equal(t, server.StatusPlaying, room.Status())
	require.NotNil(t, room.Game())
	assert.Equal(t, 52, room.Game().TotalCards())
}

func TestStartGameCountdownAbortsWhenRoomDeleted(t *testing.T) {
	m := newManager()
	hub := server.NewHub(m, server.NewSessionManager(nil))
	room, _, err := m.CreateRoom("Alice")
	require.NoError(t, err)
	room.AddPlayer("Bob")

	go m.StartGameCountdown(room.Code, hub)
	time.Sleep(200 * time.Millisecond)
	m.DeleteRoom(room.Code)
	time.Sleep(3200 * time.Millisecond)

	assert.Nil(t, room.Game())
	assert.NotEqual(t, server.StatusPlaying, room.Status())
}

func TestCountdownConcurrentWithJoinsIsSafe(t *testing.T) {
	m := newManager()
	hub := server.NewHub(m, server.NewSessionManager(nil))
	room, _, err := m.CreateRoom("Alice")
	require.NoError(t, err)
	room.AddPlayer("Bob")

	// The countdown flips the room to starting from its own goroutine while
	// joins and lobby reads keep inspecting the status.
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.StartGameCountdown(room.Code, hub)
	}()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		m.JoinRoom(room.Code, "Carol")
		_ = room.Status()
		_ = m.ActiveRooms()
	}
	<-done

	assert.Equal(t, server.StatusPlaying, room.Status())
	require.NotNil(t, room.Game())
}

func TestDeleteRoomIsIdempotent(t *testing.T) {
	m := newManager()
	room, _, err := m.CreateRoom("Alice")
	require.NoError(t, err)

	m.DeleteRoom(room.Code)
	m.DeleteRoom(room.Code)

	assert.Nil(t, m.GetRoom(room.Code))
}
