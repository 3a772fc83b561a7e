package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"slapjack-server/internal/store"
)

const sweepInterval = 5 * time.Minute

type Server struct {
	port     int
	store    *store.Store
	rooms    *RoomManager
	sessions *SessionManager
	hub      *Hub

	stopSweep chan struct{}
}

// NewServer wires the store, managers, and hub, and returns both the Server
// (for shutdown) and the configured http.Server.
func NewServer() (*Server, *http.Server) {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	// The store is optional: without REDIS_URL (or with it unreachable) the
	// server runs memory-only and loses rooms on restart.
	var st *store.Store
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		var err error
		st, err = store.New(redisURL)
		if err != nil {
			log.Printf("warning: redis unavailable, running memory-only: %v", err)
			st = nil
		}
	} else {
		log.Println("REDIS_URL not set, running memory-only")
	}

	rooms := NewRoomManager(st)
	sessions := NewSessionManager(st)
	hub := NewHub(rooms, sessions)

	s := &Server{
		port:      port,
		store:     st,
		rooms:     rooms,
		sessions:  sessions,
		hub:       hub,
		stopSweep: make(chan struct{}),
	}

	go s.sweepTask()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, httpServer
}

// sweepTask periodically drops idle rooms and expired sessions.
func (s *Server) sweepTask() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept := s.rooms.SweepIdleRooms()
			pruned := s.sessions.PruneExpired()
			if swept > 0 || pruned > 0 {
				log.Printf("sweep: removed %d idle rooms, %d expired sessions", swept, pruned)
			}
		case <-s.stopSweep:
			return
		}
	}
}

// Shutdown tells every room the server is going away and closes the store.
// The HTTP listener is shut down separately by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stopSweep)

	for _, room := range s.rooms.DebugRooms() {
		s.hub.BroadcastMessage(room.Code, NewMessage(MsgRoomClosed, RoomClosedPayload{
			Reason: "Server shutting down",
		}))
	}

	// Give the write pumps a moment to flush.
	select {
	case <-time.After(250 * time.Millisecond):
	case <-ctx.Done():
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("closing store: %w", err)
		}
	}
	return nil
}
