package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wordoracle/internal/app"
)

// Handler handles WebSocket upgrade requests
type Handler struct {
	hub      *app.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the connection and joins the player to their room's
// session. Every socket is a brand new player; there is no reconnection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session := h.hub.GetOrCreate(r.URL.Query().Get("room"))

	// Reject before upgrading so the client gets a clear HTTP error instead
	// of a socket that closes before the reason frame can be written. Join
	// re-checks capacity, so a concurrent joiner in the gap is still bounded.
	if !session.CanJoin() {
		http.Error(w, "Session is full", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	playerID := uuid.NewString()
	client := NewClient(conn, session, playerID, h.logger)

	h.logger.Info("websocket connected", "room", session.ID(), "playerID", playerID)

	session.Join(playerID, client)
	client.Run()
}
