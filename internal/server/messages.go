package server

import (
	"encoding/json"
	"time"
)

// Client -> server message types.
const (
	MsgCreateRoom     = "CREATE_ROOM"
	MsgJoinRoom       = "JOIN_ROOM"
	MsgLeaveRoom      = "LEAVE_ROOM"
	MsgUpdateSettings = "UPDATE_SETTINGS"
	MsgChangeName     = "CHANGE_NAME"
	MsgStartGame      = "START_GAME"
	MsgPlayCard       = "PLAY_CARD"
	MsgSlap           = "SLAP"
	MsgReact          = "REACT"
	MsgKickPlayer     = "KICK_PLAYER"
	MsgEndGame        = "END_GAME"
)

// Server -> client message types.
const (
	MsgConnected         = "CONNECTED"
	MsgReconnected       = "RECONNECTED"
	MsgRoomCreated       = "ROOM_CREATED"
	MsgRoomJoined        = "ROOM_JOINED"
	MsgRoomUpdated       = "ROOM_UPDATED"
	MsgRoomClosed        = "ROOM_CLOSED"
	MsgPlayerJoined      = "PLAYER_JOINED"
	MsgPlayerLeft        = "PLAYER_LEFT"
	MsgPlayerKicked      = "PLAYER_KICKED"
	MsgPlayerReconnected = "PLAYER_RECONNECTED"
	MsgNameChanged       = "NAME_CHANGED"
	MsgSettingsChanged   = "SETTINGS_CHANGED"
	MsgGameStarting      = "GAME_STARTING"
	MsgGameStarted       = "GAME_STARTED"
	MsgCardsDealt        = "CARDS_DEALT"
	MsgCardPlayed        = "CARD_PLAYED"
	MsgTurnChanged       = "TURN_CHANGED"
	MsgTurnWarning       = "TURN_WARNING"
	MsgSlapAttempted     = "SLAP_ATTEMPTED"
	MsgSlapResult        = "SLAP_RESULT"
	MsgPlayerEliminated  = "PLAYER_ELIMINATED"
	MsgGameOver          = "GAME_OVER"
	MsgGameEnded         = "GAME_ENDED"
	MsgError             = "ERROR"
)

// ClientMessage is the inbound envelope. The payload stays raw until the
// type-specific handler decodes it, so a malformed payload fails in exactly
// one place with a typed error back to the sender.
type ClientMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// ServerMessage is the outbound envelope.
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

func NewMessage(msgType string, payload interface{}) ServerMessage {
	return ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}
