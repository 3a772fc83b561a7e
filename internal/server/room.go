package server

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"slapjack-server/internal/game"
)

type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusStarting RoomStatus = "starting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
	Position    int    `json:"position"`
}

// Room groups players around one game. The room owns its Game and its turn
// timer exclusively; cross-references from connections are by code/id only.
// Everything mutable, status and host included, is guarded by mu: background
// goroutines (countdown, timers) touch rooms concurrently with handlers.
type Room struct {
	Code string

	settings  Settings
	status    RoomStatus
	hostID    string
	players   map[string]*Player
	game      *game.Game
	turnTimer *turnTimer
	mu        sync.RWMutex
}

// NewRoom creates a waiting room with hostName seated as the sole player and
// host. Returns the room and the host's player id.
func NewRoom(code, hostName string) (*Room, string) {
	playerID := uuid.New().String()

	host := &Player{
		ID:          playerID,
		Name:        hostName,
		IsHost:      true,
		IsConnected: true,
	}

	return &Room{
		Code:     code,
		settings: DefaultSettings(),
		status:   StatusWaiting,
		hostID:   playerID,
		players:  map[string]*Player{playerID: host},
	}, playerID
}

func (r *Room) Status() RoomStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Room) setStatus(s RoomStatus) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

func (r *Room) HostID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID
}

func (r *Room) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// AddPlayer seats a new player at the next free position.
func (r *Room) AddPlayer(name string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := &Player{
		ID:          uuid.New().String(),
		Name:        name,
		IsConnected: true,
		Position:    len(r.players),
	}
	r.players[player.ID] = player
	return player
}

// RemovePlayer drops a player, reassigns the host to a connected player if
// needed, and reindexes positions so they stay dense from 0.
func (r *Room) RemovePlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.players, playerID)

	if r.hostID == playerID && len(r.players) > 0 {
		for id, p := range r.players {
			if p.IsConnected {
				r.hostID = id
				p.IsHost = true
				break
			}
		}
	}

	// Keep relative seating order when closing the gap.
	remaining := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		remaining = append(remaining, p)
	}
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].Position < remaining[j].Position
	})
	for i, p := range remaining {
		p.Position = i
	}
}

func (r *Room) GetPlayer(playerID string) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players[playerID]
}

func (r *Room) SetConnected(playerID string, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[playerID]; ok {
		p.IsConnected = connected
	}
}

func (r *Room) RenamePlayer(playerID, newName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return false
	}
	p.Name = newName
	return true
}

// ConnectedPlayers returns connected players in seating order.
func (r *Room) ConnectedPlayers() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var players []*Player
	for _, p := range r.players {
		if p.IsConnected {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Position < players[j].Position
	})
	return players
}

func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) >= r.settings.MaxPlayers
}

// IsEmpty reports whether no connected player remains.
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.players {
		if p.IsConnected {
			return false
		}
	}
	return true
}

func (r *Room) UpdateSettings(p UpdateSettingsPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Apply(p)
}

func (r *Room) Game() *game.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.game
}

// StartGame deals a fresh game over the currently connected players in
// seating order and moves the room to playing.
func (r *Room) StartGame() {
	connected := r.ConnectedPlayers()

	r.mu.Lock()
	defer r.mu.Unlock()

	playerIDs := make([]string, 0, len(connected))
	for _, p := range connected {
		playerIDs = append(playerIDs, p.ID)
	}

	r.game = game.NewGame(playerIDs, game.Config{
		EnableDoubles:  r.settings.EnableDoubles,
		EnableSandwich: r.settings.EnableSandwich,
		BurnPenalty:    r.settings.BurnPenalty,
		SlapCooldownMs: r.settings.SlapCooldownMs,
		TurnTimeoutMs:  r.settings.TurnTimeoutMs,
		EnableSlapIn:   r.settings.EnableSlapIn,
		MaxSlapIns:     r.settings.MaxSlapIns,
	})
	r.status = StatusPlaying
}

// EndGame discards the active game and returns the room to the lobby.
func (r *Room) EndGame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.game = nil
	r.status = StatusWaiting
}

// setTurnTimer swaps in a new timer handle, cancelling the previous one, so
// at most one warning/timeout pair is ever pending for the room.
func (r *Room) setTurnTimer(t *turnTimer) {
	r.mu.Lock()
	prev := r.turnTimer
	r.turnTimer = t
	r.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
}

func (r *Room) stopTurnTimer() {
	r.setTurnTimer(nil)
}

// State builds the shared room snapshot, with live card counts when a game
// is running.
func (r *Room) State() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		state := PlayerState{
			ID:          p.ID,
			Name:        p.Name,
			IsHost:      p.IsHost,
			IsConnected: p.IsConnected,
			Position:    p.Position,
		}
		if r.game != nil {
			state.CardCount = r.game.PlayerCardCount(p.ID)
		}
		players = append(players, state)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Position < players[j].Position
	})

	return RoomState{
		Code:     r.Code,
		Players:  players,
		Settings: r.settings,
		Status:   string(r.status),
		HostID:   r.hostID,
	}
}
