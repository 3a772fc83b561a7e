package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"slapjack-server/internal/store"
)

const roomTTL = 2 * time.Hour

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrGameInProgress = errors.New("game already in progress")
	ErrRoomFull       = errors.New("room is full")
)

// RoomManager owns the room collection. It is the only writer of the
// code -> room map; rooms themselves carry their own locks.
type RoomManager struct {
	rooms map[string]*Room
	store *store.Store
	mu    sync.RWMutex
}

func NewRoomManager(st *store.Store) *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
		store: st,
	}
}

// CreateRoom makes a waiting room with hostName as sole player and host.
func (m *RoomManager) CreateRoom(hostName string) (*Room, string, error) {
	code, err := GenerateRoomCode(m.codeTaken)
	if err != nil {
		return nil, "", err
	}

	room, playerID := NewRoom(code, hostName)

	m.mu.Lock()
	m.rooms[code] = room
	m.mu.Unlock()

	if m.store != nil {
		ctx := context.Background()
		_ = m.store.AddActiveRoom(ctx, code)
		_ = m.store.SetRoom(ctx, code, room.State(), roomTTL)
	}

	return room, playerID, nil
}

// codeTaken checks the live map and, best-effort, the store's active set so
// codes stay unique across mirrored rooms from a previous process.
func (m *RoomManager) codeTaken(code string) bool {
	m.mu.RLock()
	_, exists := m.rooms[code]
	m.mu.RUnlock()
	if exists {
		return true
	}

	if m.store != nil {
		taken, err := m.store.IsRoomCodeTaken(context.Background(), code)
		if err == nil && taken {
			return true
		}
	}
	return false
}

// JoinRoom seats a new player in a waiting, non-full room.
func (m *RoomManager) JoinRoom(code, playerName string) (*Room, *Player, error) {
	m.mu.RLock()
	room, exists := m.rooms[code]
	m.mu.RUnlock()

	if !exists {
		return nil, nil, ErrRoomNotFound
	}
	if room.Status() != StatusWaiting {
		return nil, nil, ErrGameInProgress
	}
	if room.IsFull() {
		return nil, nil, ErrRoomFull
	}

	player := room.AddPlayer(playerName)
	m.mirrorRoom(room)
	return room, player, nil
}

// LeaveRoom removes a player outright (explicit leave or kick). The room is
// deleted immediately once no connected player remains.
func (m *RoomManager) LeaveRoom(code, playerID string) {
	m.mu.RLock()
	room, exists := m.rooms[code]
	m.mu.RUnlock()

	if !exists {
		return
	}

	room.RemovePlayer(playerID)

	if room.IsEmpty() {
		m.DeleteRoom(code)
		log.Printf("room %s deleted (all players left)", code)
		return
	}

	m.mirrorRoom(room)
}

// ReassignHost hands the host flag to any connected player. Used when the
// host drops out of a lobby without a clean leave.
func (m *RoomManager) ReassignHost(code string) {
	room := m.GetRoom(code)
	if room == nil {
		return
	}

	room.mu.Lock()
	if current, ok := room.players[room.hostID]; !ok || !current.IsConnected {
		for id, p := range room.players {
			if p.IsConnected {
				if old, ok := room.players[room.hostID]; ok {
					old.IsHost = false
				}
				room.hostID = id
				p.IsHost = true
				break
			}
		}
	}
	room.mu.Unlock()

	m.mirrorRoom(room)
}

func (m *RoomManager) GetRoom(code string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[code]
}

// DeleteRoom drops a room and cancels any pending turn timer.
func (m *RoomManager) DeleteRoom(code string) {
	m.mu.Lock()
	room := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()

	if room != nil {
		room.stopTurnTimer()
	}
	if m.store != nil {
		_ = m.store.DeleteRoom(context.Background(), code)
	}
}

func (m *RoomManager) mirrorRoom(room *Room) {
	if m.store != nil {
		_ = m.store.SetRoom(context.Background(), room.Code, room.State(), roomTTL)
	}
}

// ActiveRooms lists joinable rooms for the lobby UI: waiting and not full.
func (m *RoomManager) ActiveRooms() []RoomSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]RoomSummary, 0)
	for _, room := range m.rooms {
		if room.Status() != StatusWaiting || room.IsFull() {
			continue
		}
		hostName := ""
		if host := room.GetPlayer(room.HostID()); host != nil {
			hostName = host.Name
		}
		rooms = append(rooms, RoomSummary{
			Code:        room.Code,
			PlayerCount: len(room.ConnectedPlayers()),
			MaxPlayers:  room.Settings().MaxPlayers,
			Status:      string(room.Status()),
			HostName:    hostName,
		})
	}
	return rooms
}

// DebugRooms snapshots every room for the debug endpoint.
func (m *RoomManager) DebugRooms() []DebugRoom {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]DebugRoom, 0, len(m.rooms))
	for _, room := range m.rooms {
		state := room.State()
		rooms = append(rooms, DebugRoom{
			Code:    state.Code,
			Status:  state.Status,
			HostID:  state.HostID,
			Players: state.Players,
			HasGame: room.Game() != nil,
		})
	}
	return rooms
}

// SweepIdleRooms deletes rooms with no connected players or in finished
// status. Covers abrupt network loss where no clean disconnect arrived.
func (m *RoomManager) SweepIdleRooms() int {
	m.mu.RLock()
	var stale []string
	for code, room := range m.rooms {
		if room.IsEmpty() || room.Status() == StatusFinished {
			stale = append(stale, code)
		}
	}
	m.mu.RUnlock()

	for _, code := range stale {
		m.DeleteRoom(code)
		log.Printf("room %s cleaned up (idle sweep)", code)
	}
	return len(stale)
}

// StartGameCountdown runs the 3-2-1 countdown and starts the game. The room
// can be deleted while we sleep, so its existence and status are re-checked
// before every emission; a vanished or restarted room aborts quietly.
func (m *RoomManager) StartGameCountdown(code string, hub *Hub) {
	room := m.GetRoom(code)
	if room == nil {
		return
	}
	room.setStatus(StatusStarting)

	for i := 3; i > 0; i-- {
		if m.GetRoom(code) == nil || room.Status() != StatusStarting {
			return
		}
		hub.BroadcastMessage(code, NewMessage(MsgGameStarting, GameStartingPayload{
			Countdown: i,
		}))
		time.Sleep(1 * time.Second)
	}

	if m.GetRoom(code) == nil || room.Status() != StatusStarting {
		return
	}

	room.StartGame()
	m.mirrorRoom(room)

	g := room.Game()
	hub.BroadcastMessage(code, NewMessage(MsgGameStarted, GameStartedPayload{
		GameState: g.Snapshot(),
	}))
	hub.BroadcastMessage(code, NewMessage(MsgCardsDealt, CardsDealtPayload{
		PlayerCards: g.CardCounts(),
	}))
	hub.BroadcastMessage(code, NewMessage(MsgTurnChanged, TurnChangedPayload{
		CurrentPlayerID: g.CurrentPlayer(),
	}))

	hub.scheduleTurnTimer(room)
	log.Printf("game started in room %s", code)
}
