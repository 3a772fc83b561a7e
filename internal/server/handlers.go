package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"slapjack-server/internal/game"
)

const maxPlayerNameLen = 20

func validatePlayerName(name string) error {
	if name == "" {
		return errors.New("player name is required")
	}
	if len(name) > maxPlayerNameLen {
		return fmt.Errorf("player name must be %d characters or less", maxPlayerNameLen)
	}
	return nil
}

// handleMessage routes one decoded envelope. Every client-facing failure is
// answered to the sender only; nothing here may block or kill the room.
func (c *Client) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case MsgCreateRoom:
		c.handleCreateRoom(msg.Payload)
	case MsgJoinRoom:
		c.handleJoinRoom(msg.Payload)
	case MsgLeaveRoom:
		c.handleLeaveRoom()
	case MsgUpdateSettings:
		c.handleUpdateSettings(msg.Payload)
	case MsgChangeName:
		c.handleChangeName(msg.Payload)
	case MsgStartGame:
		c.handleStartGame()
	case MsgPlayCard:
		c.handlePlayCard()
	case MsgSlap:
		c.handleSlap(msg.Payload)
	case MsgReact:
		c.handleReact(msg.Payload)
	case MsgKickPlayer:
		c.handleKickPlayer(msg.Payload)
	case MsgEndGame:
		c.handleEndGame()
	default:
		c.sendError("UNKNOWN_MESSAGE", "Unknown message type: "+msg.Type)
	}
}

func (c *Client) handleCreateRoom(payload json.RawMessage) {
	var req CreateRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid create room payload")
		return
	}
	if err := validatePlayerName(req.PlayerName); err != nil {
		c.sendError("INVALID_NAME", err.Error())
		return
	}

	// Stale binding from a previous room must not leak into the new one.
	c.clearBinding()

	room, playerID, err := c.hub.rooms.CreateRoom(req.PlayerName)
	if err != nil {
		log.Printf("failed to create room: %v", err)
		c.sendError("CREATE_FAILED", "Failed to create room")
		return
	}

	c.setBinding(playerID, room.Code, req.PlayerName)
	c.hub.sessionsMgr.Save(c.SessionID, playerID, room.Code)

	c.SendMessage(NewMessage(MsgRoomCreated, RoomCreatedPayload{
		RoomCode: room.Code,
		Room:     room.State(),
	}))
	log.Printf("room %s created by %s", room.Code, req.PlayerName)
}

func (c *Client) handleJoinRoom(payload json.RawMessage) {
	var req JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid join room payload")
		return
	}

	req.RoomCode = NormalizeRoomCode(req.RoomCode)
	if err := ValidateRoomCode(req.RoomCode); err != nil {
		c.sendError("INVALID_CODE", err.Error())
		return
	}
	if err := validatePlayerName(req.PlayerName); err != nil {
		c.sendError("INVALID_NAME", err.Error())
		return
	}

	room, player, err := c.hub.rooms.JoinRoom(req.RoomCode, req.PlayerName)
	if err != nil {
		c.sendError(joinErrorCode(err), err.Error())
		return
	}

	c.setBinding(player.ID, room.Code, req.PlayerName)
	c.hub.sessionsMgr.Save(c.SessionID, player.ID, room.Code)

	c.SendMessage(NewMessage(MsgRoomJoined, RoomJoinedPayload{
		Room: room.State(),
	}))
	c.hub.BroadcastMessageExcept(room.Code, c.SessionID, NewMessage(MsgPlayerJoined, PlayerJoinedPayload{
		Player: playerState(player, room),
	}))
	log.Printf("player %s joined room %s", req.PlayerName, room.Code)
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, ErrGameInProgress):
		return "GAME_IN_PROGRESS"
	case errors.Is(err, ErrRoomFull):
		return "ROOM_FULL"
	default:
		return "JOIN_FAILED"
	}
}

func playerState(p *Player, room *Room) PlayerState {
	state := PlayerState{
		ID:          p.ID,
		Name:        p.Name,
		IsHost:      p.IsHost,
		IsConnected: p.IsConnected,
		Position:    p.Position,
	}
	if g := room.Game(); g != nil {
		state.CardCount = g.PlayerCardCount(p.ID)
	}
	return state
}

func (c *Client) handleLeaveRoom() {
	playerID, roomCode, _ := c.Binding()
	if roomCode == "" {
		c.sendError("NOT_IN_ROOM", "You are not in a room")
		return
	}

	c.hub.rooms.LeaveRoom(roomCode, playerID)
	c.hub.sessionsMgr.Remove(c.SessionID)

	c.hub.BroadcastMessageExcept(roomCode, c.SessionID, NewMessage(MsgPlayerLeft, PlayerLeftPayload{
		PlayerID: playerID,
	}))

	c.clearBinding()
	log.Printf("player left room %s", roomCode)
}

func (c *Client) handleUpdateSettings(payload json.RawMessage) {
	room := c.requireRoom()
	if room == nil {
		return
	}
	if room.HostID() != c.PlayerID() {
		c.sendError("NOT_HOST", "Only the host can change settings")
		return
	}
	if room.Status() != StatusWaiting {
		c.sendError("GAME_IN_PROGRESS", "Cannot change settings while game is in progress")
		return
	}

	var req UpdateSettingsPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid settings payload")
		return
	}

	room.UpdateSettings(req)
	c.hub.BroadcastMessage(room.Code, NewMessage(MsgSettingsChanged, room.Settings()))
}

func (c *Client) handleChangeName(payload json.RawMessage) {
	room := c.requireRoom()
	if room == nil {
		return
	}
	if room.Status() != StatusWaiting {
		c.sendError("GAME_IN_PROGRESS", "Cannot change name while game is in progress")
		return
	}

	var req ChangeNamePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid name payload")
		return
	}
	if err := validatePlayerName(req.NewName); err != nil {
		c.sendError("INVALID_NAME", err.Error())
		return
	}

	playerID := c.PlayerID()
	if !room.RenamePlayer(playerID, req.NewName) {
		c.sendError("PLAYER_NOT_FOUND", "Player not found")
		return
	}
	c.setPlayerName(req.NewName)

	c.hub.BroadcastMessage(room.Code, NewMessage(MsgNameChanged, NameChangedPayload{
		PlayerID: playerID,
		NewName:  req.NewName,
	}))
}

func (c *Client) handleStartGame() {
	room := c.requireRoom()
	if room == nil {
		return
	}
	if room.HostID() != c.PlayerID() {
		c.sendError("NOT_HOST", "Only the host can start the game")
		return
	}
	if room.Status() != StatusWaiting {
		c.sendError("GAME_IN_PROGRESS", "Game already started")
		return
	}
	if len(room.ConnectedPlayers()) < 2 {
		c.sendError("NOT_ENOUGH_PLAYERS", "Need at least 2 players to start")
		return
	}

	go c.hub.rooms.StartGameCountdown(room.Code, c.hub)
	log.Printf("game starting in room %s", room.Code)
}

func (c *Client) handlePlayCard() {
	room := c.requireRoom()
	if room == nil {
		return
	}
	g := room.Game()
	if g == nil {
		c.sendError("GAME_NOT_STARTED", "Game has not started")
		return
	}

	playerID := c.PlayerID()
	card, err := g.PlayCard(playerID)
	if err != nil {
		if errors.Is(err, game.ErrCorruptState) {
			c.hub.teardownRoom(room.Code, "Internal game error")
			return
		}
		c.sendError("PLAY_FAILED", err.Error())
		return
	}

	c.hub.BroadcastMessage(room.Code, NewMessage(MsgCardPlayed, CardPlayedPayload{
		PlayerID:  playerID,
		Card:      card,
		PileCount: g.PileSize(),
	}))

	if c.hub.checkGameProgress(room) {
		return
	}

	c.hub.BroadcastMessage(room.Code, NewMessage(MsgTurnChanged, TurnChangedPayload{
		CurrentPlayerID: g.CurrentPlayer(),
	}))
	c.hub.scheduleTurnTimer(room)
}

func (c *Client) handleSlap(payload json.RawMessage) {
	room := c.requireRoom()
	if room == nil {
		return
	}
	g := room.Game()
	if g == nil {
		c.sendError("GAME_NOT_STARTED", "Game has not started")
		return
	}

	// Client timestamp is informational only; arbitration uses the server
	// clock under the engine lock.
	var req SlapPayload
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &req)
	}

	playerID, _, playerName := c.Binding()
	c.hub.BroadcastMessage(room.Code, NewMessage(MsgSlapAttempted, SlapAttemptedPayload{
		PlayerID:   playerID,
		PlayerName: playerName,
	}))

	turnBefore := g.CurrentPlayer()
	outcome := g.ProcessSlap(playerID, time.Now())

	c.hub.BroadcastMessage(room.Code, NewMessage(MsgSlapResult, SlapResultPayload{
		PlayerID:    outcome.PlayerID,
		Success:     outcome.Success,
		Reason:      outcome.Reason,
		CardsWon:    outcome.CardsWon,
		BurnPenalty: outcome.CardsBurned,
	}))

	if c.hub.checkGameProgress(room) {
		return
	}

	if outcome.Success {
		c.hub.BroadcastMessage(room.Code, NewMessage(MsgTurnChanged, TurnChangedPayload{
			CurrentPlayerID: outcome.PlayerID,
		}))
		c.hub.scheduleTurnTimer(room)
		return
	}

	// A burn can empty the current player's hand, which hands the turn to the
	// next holder; without a fresh timer pair that seat would never expire.
	if turnAfter := g.CurrentPlayer(); turnAfter != turnBefore {
		c.hub.BroadcastMessage(room.Code, NewMessage(MsgTurnChanged, TurnChangedPayload{
			CurrentPlayerID: turnAfter,
		}))
		c.hub.scheduleTurnTimer(room)
	}
}

func (c *Client) handleReact(payload json.RawMessage) {
	playerID, roomCode, _ := c.Binding()
	if roomCode == "" {
		return
	}

	var req ReactPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}

	c.hub.BroadcastMessage(roomCode, NewMessage(MsgReact, ReactBroadcastPayload{
		PlayerID: playerID,
		Emoji:    req.Emoji,
	}))
}

func (c *Client) handleKickPlayer(payload json.RawMessage) {
	room := c.requireRoom()
	if room == nil {
		return
	}
	if room.HostID() != c.PlayerID() {
		c.sendError("NOT_HOST", "Only the host can kick players")
		return
	}

	var req KickPlayerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid kick payload")
		return
	}
	if req.PlayerID == c.PlayerID() {
		c.sendError("INVALID_KICK", "Cannot kick yourself")
		return
	}

	target := room.GetPlayer(req.PlayerID)
	if target == nil {
		c.sendError("PLAYER_NOT_FOUND", "Player not found")
		return
	}
	targetName := target.Name

	c.hub.rooms.LeaveRoom(room.Code, req.PlayerID)

	// Detach the kicked player's connection so they stop receiving room
	// traffic; their session binding dies with the kick.
	if kicked := c.hub.findClientByPlayer(room.Code, req.PlayerID); kicked != nil {
		c.hub.sessionsMgr.Remove(kicked.SessionID)
		kicked.clearBinding()
		kicked.SendMessage(NewMessage(MsgPlayerKicked, PlayerKickedPayload{
			PlayerID:   req.PlayerID,
			PlayerName: targetName,
		}))
	}

	c.hub.BroadcastMessage(room.Code, NewMessage(MsgPlayerKicked, PlayerKickedPayload{
		PlayerID:   req.PlayerID,
		PlayerName: targetName,
	}))
	log.Printf("player %s kicked from room %s by host", targetName, room.Code)
}

func (c *Client) handleEndGame() {
	room := c.requireRoom()
	if room == nil {
		return
	}
	if room.HostID() != c.PlayerID() {
		c.sendError("NOT_HOST", "Only the host can end the game")
		return
	}

	room.stopTurnTimer()
	room.EndGame()

	c.hub.BroadcastMessage(room.Code, NewMessage(MsgGameEnded, GameEndedPayload{
		Reason: "Host ended the game",
	}))
	c.hub.BroadcastMessage(room.Code, NewMessage(MsgRoomUpdated, RoomJoinedPayload{
		Room: room.State(),
	}))
	log.Printf("game ended in room %s by host", room.Code)
}

// requireRoom resolves the client's current room, answering the appropriate
// error itself when there is none.
func (c *Client) requireRoom() *Room {
	roomCode := c.RoomCode()
	if roomCode == "" {
		c.sendError("NOT_IN_ROOM", "You are not in a room")
		return nil
	}
	room := c.hub.rooms.GetRoom(roomCode)
	if room == nil {
		c.sendError("ROOM_NOT_FOUND", "Room not found")
		return nil
	}
	return room
}

func (h *Hub) findClientByPlayer(roomCode, playerID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if cp, cr, _ := client.Binding(); cr == roomCode && cp == playerID {
			return client
		}
	}
	return nil
}

// checkGameProgress runs the elimination and victory checks after a pile
// mutation. Returns true when the game is over and the room is finished.
func (h *Hub) checkGameProgress(room *Room) bool {
	g := room.Game()
	if g == nil {
		return false
	}

	for _, playerID := range g.ResolveEliminations() {
		h.BroadcastMessage(room.Code, NewMessage(MsgPlayerEliminated, PlayerEliminatedPayload{
			PlayerID: playerID,
		}))
	}

	winner := g.Winner()
	if winner == "" {
		return false
	}

	winnerName := ""
	if p := room.GetPlayer(winner); p != nil {
		winnerName = p.Name
	}

	room.stopTurnTimer()
	room.setStatus(StatusFinished)

	h.BroadcastMessage(room.Code, NewMessage(MsgGameOver, GameOverPayload{
		WinnerID:   winner,
		WinnerName: winnerName,
		Stats:      g.StatsSnapshot(),
	}))
	log.Printf("game over in room %s, winner %s", room.Code, winnerName)
	return true
}

// teardownRoom handles invariant violations: the room is unrecoverable, so
// it is disbanded rather than left inconsistent. Never fatal to the process.
func (h *Hub) teardownRoom(code, reason string) {
	log.Printf("tearing down room %s: %s", code, reason)
	h.rooms.DeleteRoom(code)
	h.BroadcastMessage(code, NewMessage(MsgRoomClosed, RoomClosedPayload{
		Reason: reason,
	}))
}

// scheduleTurnTimer replaces the room's pending warning/timeout pair with a
// fresh one for the current turn.
func (h *Hub) scheduleTurnTimer(room *Room) {
	g := room.Game()
	if g == nil {
		return
	}
	code := room.Code

	t := newTurnTimer(g.TurnTimeout(),
		func() {
			if h.rooms.GetRoom(code) == nil {
				return
			}
			h.BroadcastMessage(code, NewMessage(MsgTurnWarning, TurnWarningPayload{
				SecondsRemaining: int(turnWarningLead / time.Second),
			}))
		},
		func() {
			h.handleTurnTimeout(code)
		},
	)
	room.setTurnTimer(t)
}

// handleTurnTimeout auto-plays the current player's front card when their
// turn expires; the transition is identical to a manual play.
func (h *Hub) handleTurnTimeout(code string) {
	room := h.rooms.GetRoom(code)
	if room == nil || room.Status() != StatusPlaying {
		return
	}
	g := room.Game()
	if g == nil {
		return
	}

	playerID, card, ok := g.AutoPlayCurrent()
	if !ok {
		// The current seat was emptied between scheduling and expiry; there
		// is no card to flip, only eliminations or a winner to report.
		h.checkGameProgress(room)
		return
	}

	h.BroadcastMessage(code, NewMessage(MsgCardPlayed, CardPlayedPayload{
		PlayerID:  playerID,
		Card:      card,
		PileCount: g.PileSize(),
	}))

	if h.checkGameProgress(room) {
		return
	}

	h.BroadcastMessage(code, NewMessage(MsgTurnChanged, TurnChangedPayload{
		CurrentPlayerID: g.CurrentPlayer(),
	}))
	h.scheduleTurnTimer(room)
}
