package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins when the client domain is fixed
	},
}

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/rooms", s.roomsHandler)
	mux.HandleFunc("/api/debug", s.debugHandler)
	mux.HandleFunc("/ws", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]string{"status": "ok", "store": "disabled"}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			health["store"] = "unreachable"
		} else {
			health["store"] = "ok"
		}
	}
	writeJSON(w, health)
}

// roomsHandler lists joinable rooms for the lobby browser.
func (s *Server) roomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"rooms": s.rooms.ActiveRooms(),
	})
}

func (s *Server) debugHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.hub.DebugInfo())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// websocketHandler upgrades the connection and either greets a new session or
// restores an existing one from its sessionId query parameter.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	client := NewClient(s.hub, conn, sessionID)
	s.hub.Register(client)

	if s.tryReconnect(client) {
		client.Start()
		return
	}

	client.SendMessage(NewMessage(MsgConnected, ConnectedPayload{
		SessionID: sessionID,
	}))
	client.Start()
	log.Printf("new connection, session %s", sessionID)
}

// tryReconnect restores a returning player's room binding from their session.
// Returns false when the session is unknown or its room is gone, in which
// case the client starts fresh.
func (s *Server) tryReconnect(client *Client) bool {
	info, err := s.sessions.Get(client.SessionID)
	if err != nil || info.RoomCode == "" {
		return false
	}

	room := s.rooms.GetRoom(info.RoomCode)
	if room == nil {
		s.sessions.Remove(client.SessionID)
		return false
	}
	player := room.GetPlayer(info.PlayerID)
	if player == nil {
		s.sessions.Remove(client.SessionID)
		return false
	}

	client.setBinding(player.ID, room.Code, player.Name)

	room.SetConnected(player.ID, true)
	s.sessions.Refresh(client.SessionID)

	payload := ReconnectedPayload{
		SessionID: client.SessionID,
		Room:      room.State(),
	}
	if g := room.Game(); g != nil {
		snap := g.Snapshot()
		payload.GameState = &snap
	}
	client.SendMessage(NewMessage(MsgReconnected, payload))

	s.hub.BroadcastMessageExcept(room.Code, client.SessionID, NewMessage(MsgPlayerReconnected, PlayerReconnectedPayload{
		PlayerID: player.ID,
	}))
	log.Printf("player %s reconnected to room %s", player.Name, room.Code)
	return true
}
