package server

import "slapjack-server/internal/game"

// ============================================================================
// ERROR RESPONSES
// ============================================================================
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ============================================================================
// CLIENT -> SERVER PAYLOADS
// ============================================================================
type CreateRoomPayload struct {
	PlayerName string `json:"playerName"`
}

type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type UpdateSettingsPayload struct {
	MaxPlayers     int  `json:"maxPlayers"`
	SlapCooldownMs int  `json:"slapCooldownMs"`
	TurnTimeoutMs  int  `json:"turnTimeoutMs"`
	EnableSandwich bool `json:"enableSandwich"`
	EnableDoubles  bool `json:"enableDoubles"`
	BurnPenalty    int  `json:"burnPenalty"`
	EnableSlapIn   bool `json:"enableSlapIn"`
	MaxSlapIns     int  `json:"maxSlapIns"`
}

type ChangeNamePayload struct {
	NewName string `json:"newName"`
}

type SlapPayload struct {
	Timestamp int64 `json:"timestamp"`
}

type ReactPayload struct {
	Emoji string `json:"emoji"`
}

type KickPlayerPayload struct {
	PlayerID string `json:"playerId"`
}

// ============================================================================
// SERVER -> CLIENT PAYLOADS
// ============================================================================
type ConnectedPayload struct {
	SessionID string `json:"sessionId"`
}

type RoomCreatedPayload struct {
	RoomCode string    `json:"roomCode"`
	Room     RoomState `json:"room"`
}

type RoomJoinedPayload struct {
	Room RoomState `json:"room"`
}

type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

type PlayerJoinedPayload struct {
	Player PlayerState `json:"player"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerKickedPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type ReconnectedPayload struct {
	SessionID string         `json:"sessionId"`
	Room      RoomState      `json:"room"`
	GameState *game.Snapshot `json:"gameState,omitempty"`
}

type PlayerReconnectedPayload struct {
	PlayerID string `json:"playerId"`
}

type NameChangedPayload struct {
	PlayerID string `json:"playerId"`
	NewName  string `json:"newName"`
}

type GameStartingPayload struct {
	Countdown int `json:"countdown"`
}

type GameStartedPayload struct {
	GameState game.Snapshot `json:"gameState"`
}

type CardsDealtPayload struct {
	PlayerCards map[string]int `json:"playerCards"`
}

type CardPlayedPayload struct {
	PlayerID  string    `json:"playerId"`
	Card      game.Card `json:"card"`
	PileCount int       `json:"pileCount"`
}

type TurnChangedPayload struct {
	CurrentPlayerID string `json:"currentPlayerId"`
}

type TurnWarningPayload struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

type SlapAttemptedPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type SlapResultPayload struct {
	PlayerID    string `json:"playerId"`
	Success     bool   `json:"success"`
	Reason      string `json:"reason"`
	CardsWon    int    `json:"cardsWon,omitempty"`
	BurnPenalty int    `json:"burnPenalty,omitempty"`
}

type PlayerEliminatedPayload struct {
	PlayerID string `json:"playerId"`
}

type GameOverPayload struct {
	WinnerID   string             `json:"winnerId"`
	WinnerName string             `json:"winnerName"`
	Stats      game.StatsSnapshot `json:"stats"`
}

type GameEndedPayload struct {
	Reason string `json:"reason"`
}

type ReactBroadcastPayload struct {
	PlayerID string `json:"playerId"`
	Emoji    string `json:"emoji"`
}

// ============================================================================
// SHARED STATE VIEWS
// ============================================================================
type PlayerState struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CardCount   int    `json:"cardCount"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
	Position    int    `json:"position"`
}

type RoomState struct {
	Code     string        `json:"code"`
	Players  []PlayerState `json:"players"`
	Settings Settings      `json:"settings"`
	Status   string        `json:"status"`
	HostID   string        `json:"hostId"`
}

// ============================================================================
// LOBBY / DEBUG (HTTP, read-only)
// ============================================================================
type RoomSummary struct {
	Code        string `json:"code"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Status      string `json:"status"`
	HostName    string `json:"hostName"`
}

type DebugClient struct {
	SessionID  string `json:"sessionId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	RoomCode   string `json:"roomCode"`
}

type DebugRoom struct {
	Code    string        `json:"code"`
	Status  string        `json:"status"`
	HostID  string        `json:"hostId"`
	Players []PlayerState `json:"players"`
	HasGame bool          `json:"hasGame"`
}

type DebugInfo struct {
	TotalClients int           `json:"totalClients"`
	TotalRooms   int           `json:"totalRooms"`
	Clients      []DebugClient `json:"clients"`
	Rooms        []DebugRoom   `json:"rooms"`
}
