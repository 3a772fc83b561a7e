package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Outbound buffer per client; broadcasts drop rather than block when full.
	sendBufferSize = 256
)

// Client is one websocket connection: inbound decode loop, outbound buffered
// writer, and the session/room/player binding for routing. The binding is
// read by broadcast fan-out and written by handlers (a kick writes it from
// another client's goroutine), so it has its own lock.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	SessionID string

	mu         sync.RWMutex
	playerID   string
	roomCode   string
	playerName string
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		SessionID: sessionID,
	}
}

func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *Client) RoomCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

func (c *Client) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// Binding reads the routing triple in one lock acquisition.
func (c *Client) Binding() (playerID, roomCode, playerName string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID, c.roomCode, c.playerName
}

func (c *Client) setBinding(playerID, roomCode, playerName string) {
	c.mu.Lock()
	c.playerID = playerID
	c.roomCode = roomCode
	c.playerName = playerName
	c.mu.Unlock()
}

func (c *Client) setPlayerName(name string) {
	c.mu.Lock()
	c.playerName = name
	c.mu.Unlock()
}

func (c *Client) clearBinding() {
	c.setBinding("", "", "")
}

// Start begins the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump decodes inbound envelopes and routes them. It owns unregistration:
// when the read loop exits for any reason the client is torn down.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error (%s): %v", c.SessionID, err)
			}
			return
		}

		if !c.hub.limiter.Allow(c.SessionID) {
			c.sendError("RATE_LIMITED", "Too many messages, slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("PARSE_ERROR", "Invalid message format")
			continue
		}

		c.handleMessage(msg)
	}
}

// writePump drains the send buffer to the socket, coalescing whatever is
// queued into a single frame with newline separators, and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues a message for the client, dropping it if the buffer is
// full. A stuck client heals through the unregister path, not by blocking us.
func (c *Client) SendMessage(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s message: %v", msg.Type, err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	c.SendMessage(NewMessage(MsgError, ErrorPayload{Code: code, Message: message}))
}

// Hub is the connection registry: the live client set and the session index.
// One mutex serializes registry mutation against broadcasts; rooms themselves
// are independent, so traffic for different rooms never contends on game
// state.
type Hub struct {
	clients  map[*Client]bool
	sessions map[string]*Client

	rooms       *RoomManager
	sessionsMgr *SessionManager
	limiter     *RateLimiter

	mu sync.RWMutex
}

func NewHub(rooms *RoomManager, sessions *SessionManager) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		sessions:    make(map[string]*Client),
		rooms:       rooms,
		sessionsMgr: sessions,
		limiter:     NewRateLimiter(20, time.Second),
	}
}

// Register adds the client to the live set and session index. Idempotent.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	if client.SessionID != "" {
		h.sessions[client.SessionID] = client
	}
	h.mu.Unlock()
	log.Printf("client connected: %s", client.SessionID)
}

// Unregister removes the client from all indexes, closes its outbound
// buffer, and handles the room-side consequences of the disconnect before
// returning.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	registered := h.clients[client]
	if registered {
		delete(h.clients, client)
		if h.sessions[client.SessionID] == client {
			delete(h.sessions, client.SessionID)
		}
		close(client.send)
	}
	h.mu.Unlock()

	if !registered {
		return
	}

	h.limiter.Forget(client.SessionID)
	if _, roomCode, _ := client.Binding(); roomCode != "" {
		h.handlePlayerDisconnect(client)
	}
	log.Printf("client disconnected: %s", client.SessionID)
}

// handlePlayerDisconnect applies the room-side disconnect rules: a host
// leaving a started game disbands the room; a host leaving the lobby hands
// off to a connected player; everyone else is just marked disconnected until
// their session expires or the idle sweep reaps the room.
func (h *Hub) handlePlayerDisconnect(client *Client) {
	playerID, roomCode, _ := client.Binding()
	room := h.rooms.GetRoom(roomCode)
	if room == nil {
		return
	}

	isHost := room.HostID() == playerID
	status := room.Status()
	inGame := status == StatusPlaying || status == StatusStarting

	if isHost && inGame {
		log.Printf("host disconnected mid-game, disbanding room %s", roomCode)
		h.rooms.DeleteRoom(roomCode)
		h.BroadcastMessage(roomCode, NewMessage(MsgRoomClosed, RoomClosedPayload{
			Reason: "Host left the game",
		}))
		return
	}

	room.SetConnected(playerID, false)

	if room.IsEmpty() {
		h.rooms.DeleteRoom(roomCode)
		log.Printf("room %s deleted (no connected players)", roomCode)
		return
	}

	if isHost {
		h.rooms.ReassignHost(roomCode)
	}

	h.BroadcastMessage(roomCode, NewMessage(MsgRoomUpdated, RoomJoinedPayload{
		Room: room.State(),
	}))
}

func (h *Hub) GetClientBySession(sessionID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[sessionID]
}

// BroadcastToRoom delivers to every client seated in the room. Non-blocking
// per recipient: a full buffer drops the message for that recipient only.
func (h *Hub) BroadcastToRoom(roomCode string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.RoomCode() == roomCode {
			select {
			case client.send <- message:
			default:
			}
		}
	}
}

func (h *Hub) BroadcastToRoomExcept(roomCode, excludeSessionID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.RoomCode() == roomCode && client.SessionID != excludeSessionID {
			select {
			case client.send <- message:
			default:
			}
		}
	}
}

func (h *Hub) SendToClient(sessionID string, message []byte) {
	h.mu.RLock()
	client := h.sessions[sessionID]
	h.mu.RUnlock()

	if client != nil {
		select {
		case client.send <- message:
		default:
		}
	}
}

// BroadcastMessage marshals once and fans out to the room.
func (h *Hub) BroadcastMessage(roomCode string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s broadcast: %v", msg.Type, err)
		return
	}
	h.BroadcastToRoom(roomCode, data)
}

func (h *Hub) BroadcastMessageExcept(roomCode, excludeSessionID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s broadcast: %v", msg.Type, err)
		return
	}
	h.BroadcastToRoomExcept(roomCode, excludeSessionID, data)
}

// DebugInfo snapshots all connections and rooms for the debug endpoint.
func (h *Hub) DebugInfo() DebugInfo {
	h.mu.RLock()
	clients := make([]DebugClient, 0, len(h.clients))
	for client := range h.clients {
		playerID, roomCode, playerName := client.Binding()
		clients = append(clients, DebugClient{
			SessionID:  client.SessionID,
			PlayerID:   playerID,
			PlayerName: playerName,
			RoomCode:   roomCode,
		})
	}
	h.mu.RUnlock()

	rooms := h.rooms.DebugRooms()

	return DebugInfo{
		TotalClients: len(clients),
		TotalRooms:   len(rooms),
		Clients:      clients,
		Rooms:        rooms,
	}
}
