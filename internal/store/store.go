// Package store mirrors room and session state to an expiring key-value
// backend. Every call is best-effort: a nil *Store or a failed round trip
// degrades the server to in-memory-only operation and is never surfaced to
// clients.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Store struct {
	client *redis.Client
}

// New connects to the redis instance at redisURL and verifies it with a ping.
func New(redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Room operations

func roomKey(code string) string {
	return fmt.Sprintf("room:%s:state", code)
}

func (s *Store) SetRoom(ctx context.Context, code string, data interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roomKey(code), jsonData, ttl).Err()
}

func (s *Store) GetRoom(ctx context.Context, code string, dest interface{}) error {
	data, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, roomKey(code))
	pipe.SRem(ctx, "rooms:active", code)
	_, err := pipe.Exec(ctx)
	return err
}

// Active-room set, consulted during room code generation so codes stay
// unique across a restart while mirrored rooms are still alive.

func (s *Store) AddActiveRoom(ctx context.Context, code string) error {
	return s.client.SAdd(ctx, "rooms:active", code).Err()
}

func (s *Store) IsRoomCodeTaken(ctx context.Context, code string) (bool, error) {
	return s.client.SIsMember(ctx, "rooms:active", code).Result()
}

func (s *Store) ActiveRoomCount(ctx context.Context) (int64, error) {
	return s.client.SCard(ctx, "rooms:active").Result()
}

// Session operations

// SessionData is the reconnection binding kept for a session token.
type SessionData struct {
	PlayerID  string    `json:"playerId"`
	RoomCode  string    `json:"roomCode"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *Store) SetSession(ctx context.Context, sessionID string, data SessionData, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sessionID), jsonData, ttl).Err()
}

// GetSession returns (nil, nil) when the session does not exist or has
// expired; an error only for transport failures.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*SessionData, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *Store) ExtendSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	return s.client.Expire(ctx, sessionKey(sessionID), ttl).Err()
}
