package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"wordoracle/internal/app"
	"wordoracle/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256

	// Sustained inbound rate and burst allowance per connection
	inboundRate  = 1
	inboundBurst = 5
)

// Client represents a WebSocket client connection
type Client struct {
	conn     *websocket.Conn
	session  *app.Session
	playerID string
	limiter  *rate.Limiter
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, session *app.Session, playerID string, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		session:  session,
		playerID: playerID,
		limiter:  rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger.With("playerID", playerID),
	}
}

// PlayerID returns the player ID for this client
func (c *Client) PlayerID() string {
	return c.playerID
}

// Send implements app.ClientConnection
func (c *Client) Send(event *domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped")
		return nil
	}
}

// Close implements app.ClientConnection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps and blocks until the
// connection closes
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection into the session
func (c *Client) readPump() {
	defer func() {
		c.session.Leave(c.playerID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		if !c.limiter.Allow() {
			c.logger.Debug("inbound message rate limited")
			continue
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// handleMessage processes an incoming message from the client. Malformed and
// unknown messages are dropped without disconnecting the socket.
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("dropping malformed message", "error", err)
		return
	}

	switch msg.Type {
	case MsgMessage, MsgQuestion:
		c.session.SubmitMessage(c.playerID, msg.Content)
	case MsgNewRound:
		c.session.RequestNewRound()
	case MsgSkipRound:
		c.session.RequestSkipRound()
	case MsgPing:
		c.Send(domain.NewEvent(domain.EventPong, nil))
	default:
		c.logger.Debug("dropping message of unknown type", "type", msg.Type)
	}
}
