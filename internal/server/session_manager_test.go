package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSaveAndGet(t *testing.T) {
	sm := NewSessionManager(nil)

	sm.Save("tok", "player-1", "BEAR")

	info, err := sm.Get("tok")
	require.NoError(t, err)
	assert.Equal(t, "player-1", info.PlayerID)
	assert.Equal(t, "BEAR", info.RoomCode)
	assert.True(t, info.ExpiresAt.After(time.Now()))
}

func TestSessionGetUnknownToken(t *testing.T) {
	sm := NewSessionManager(nil)

	_, err := sm.Get("missing")
	assert.Error(t, err)
}

func TestSessionExpiry(t *testing.T) {
	sm := NewSessionManager(nil)
	sm.Save("tok", "player-1", "BEAR")

	sm.mu.Lock()
	info := sm.sessions["tok"]
	info.ExpiresAt = time.Now().Add(-time.Minute)
	sm.sessions["tok"] = info
	sm.mu.Unlock()

	_, err := sm.Get("tok")
	assert.Error(t, err)

	// An expired lookup removes the binding.
	sm.mu.RLock()
	_, still := sm.sessions["tok"]
	sm.mu.RUnlock()
	assert.False(t, still)
}

func TestSessionRefreshExtendsExpiry(t *testing.T) {
	sm := NewSessionManager(nil)
	sm.Save("tok", "player-1", "BEAR")

	sm.mu.Lock()
	info := sm.sessions["tok"]
	info.ExpiresAt = time.Now().Add(time.Minute)
	sm.sessions["tok"] = info
	sm.mu.Unlock()

	sm.Refresh("tok")

	refreshed, err := sm.Get("tok")
	require.NoError(t, err)
	assert.True(t, refreshed.ExpiresAt.After(time.Now().Add(25*time.Minute)))
}

func TestSessionRemove(t *testing.T) {
	sm := NewSessionManager(nil)
	sm.Save("tok", "player-1", "BEAR")

	sm.Remove("tok")

	_, err := sm.Get("tok")
	assert.Error(t, err)
}

func TestPruneExpired(t *testing.T) {
	sm := NewSessionManager(nil)
	sm.Save("live", "player-1", "BEAR")
	sm.Save("dead", "player-2", "WOLF")

	sm.mu.Lock()
	info := sm.sessions["dead"]
	info.ExpiresAt = time.Now().Add(-time.Second)
	sm.sessions["dead"] = info
	sm.mu.Unlock()

	assert.Equal(t, 1, sm.PruneExpired())

	_, err := sm.Get("live")
	assert.NoError(t, err)
	_, err = sm.Get("dead")
	assert.Error(t, err)
}
