package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"slapjack-server/internal/store"
)

const sessionTTL = 30 * time.Minute

type SessionInfo struct {
	Token     string
	PlayerID  string
	RoomCode  string
	ExpiresAt time.Time
}

// SessionManager binds session tokens to (player, room) for reconnection.
// The in-memory map is authoritative; the expiring KV store is a best-effort
// mirror consulted when memory misses (e.g. after a restart).
type SessionManager struct {
	sessions map[string]SessionInfo
	store    *store.Store
	mu       sync.RWMutex
}

func NewSessionManager(st *store.Store) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]SessionInfo),
		store:    st,
	}
}

func (sm *SessionManager) Save(token, playerID, roomCode string) {
	info := SessionInfo{
		Token:     token,
		PlayerID:  playerID,
		RoomCode:  roomCode,
		ExpiresAt: time.Now().Add(sessionTTL),
	}

	sm.mu.Lock()
	sm.sessions[token] = info
	sm.mu.Unlock()

	if sm.store != nil {
		// Mirror failures degrade to memory-only; nothing to tell the client.
		_ = sm.store.SetSession(context.Background(), token, store.SessionData{
			PlayerID:  playerID,
			RoomCode:  roomCode,
			ExpiresAt: info.ExpiresAt,
		}, sessionTTL)
	}
}

// Get returns the live binding for token, or an error when it is unknown or
// expired.
func (sm *SessionManager) Get(token string) (SessionInfo, error) {
	sm.mu.RLock()
	info, ok := sm.sessions[token]
	sm.mu.RUnlock()

	if ok {
		if time.Now().After(info.ExpiresAt) {
			sm.Remove(token)
			return SessionInfo{}, errors.New("session expired")
		}
		return info, nil
	}

	if sm.store != nil {
		data, err := sm.store.GetSession(context.Background(), token)
		if err == nil && data != nil {
			restored := SessionInfo{
				Token:     token,
				PlayerID:  data.PlayerID,
				RoomCode:  data.RoomCode,
				ExpiresAt: data.ExpiresAt,
			}
			sm.mu.Lock()
			sm.sessions[token] = restored
			sm.mu.Unlock()
			return restored, nil
		}
	}

	return SessionInfo{}, errors.New("session not found")
}

// Refresh pushes the expiry out by a full TTL; called on reconnection.
func (sm *SessionManager) Refresh(token string) {
	sm.mu.Lock()
	if info, ok := sm.sessions[token]; ok {
		info.ExpiresAt = time.Now().Add(sessionTTL)
		sm.sessions[token] = info
	}
	sm.mu.Unlock()

	if sm.store != nil {
		_ = sm.store.ExtendSession(context.Background(), token, sessionTTL)
	}
}

func (sm *SessionManager) Remove(token string) {
	sm.mu.Lock()
	delete(sm.sessions, token)
	sm.mu.Unlock()

	if sm.store != nil {
		_ = sm.store.DeleteSession(context.Background(), token)
	}
}

// PruneExpired drops expired bindings and returns how many were removed.
// The store mirror expires on its own via TTL.
func (sm *SessionManager) PruneExpired() int {
	now := time.Now()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	pruned := 0
	for token, info := range sm.sessions {
		if now.After(info.ExpiresAt) {
			delete(sm.sessions, token)
			pruned++
		}
	}
	return pruned
}
