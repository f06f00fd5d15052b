package app

import (
	"log/slog"
	"sync"
	"time"

	"wordoracle/internal/config"
)

const (
	// DefaultRoom is the session joined when a socket names no room
	DefaultRoom = "lobby"

	// StaleSessionTimeout is how long an empty session lives before cleanup
	StaleSessionTimeout = 2 * time.Hour
)

// Hub manages all active sessions, keyed by room id. Sessions share one
// corpus store and one oracle; each owns its own state.
type Hub struct {
	sessions  map[string]*Session
	mu        sync.RWMutex
	cfg       config.GameConfig
	corpus    WordCorpus
	oracle    Oracle
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub and starts its cleanup loop
func NewHub(cfg config.GameConfig, corpus WordCorpus, oracle Oracle, logger *slog.Logger) *Hub {
	hub := &Hub{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		corpus:   corpus,
		oracle:   oracle,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go hub.cleanupLoop()

	return hub
}

// GetOrCreate returns the session for a room id, creating it on first use.
// An empty room id maps to the default room.
func (h *Hub) GetOrCreate(roomID string) *Session {
	if roomID == "" {
		roomID = DefaultRoom
	}

	h.mu.RLock()
	session, ok := h.sessions[roomID]
	h.mu.RUnlock()
	if ok {
		return session
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if session, ok := h.sessions[roomID]; ok {
		return session
	}

	session = NewSession(roomID, h.cfg, h.corpus, h.oracle, h.logger)
	h.sessions[roomID] = session
	h.logger.Info("session created", "room", roomID)
	return session
}

// SessionCount returns the number of active sessions
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// TotalPlayerCount returns the total number of players across all sessions
func (h *Hub) TotalPlayerCount() int {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	total := 0
	for _, s := range sessions {
		total += s.PlayerCount()
	}
	return total
}

// Close shuts down the hub and all sessions
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		for _, session := range h.sessions {
			session.Close()
		}
		h.sessions = make(map[string]*Session)
	})
}

// cleanupLoop periodically removes stale empty sessions
func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupStaleSessions()
		}
	}
}

// cleanupStaleSessions closes sessions that have sat empty for too long.
// The default room is recreated on the next connection.
func (h *Hub) cleanupStaleSessions() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for roomID, session := range h.sessions {
		if session.PlayerCount() == 0 && now.Sub(session.CreatedAt()) > StaleSessionTimeout {
			session.Close()
			delete(h.sessions, roomID)
			h.logger.Info("stale session cleaned up", "room", roomID)
		}
	}
}
