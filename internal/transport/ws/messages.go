package ws

// ClientMessageType represents the type of an inbound WebSocket message
type ClientMessageType string

// Client → Server message types. "message" and "question" are accepted
// interchangeably for free-text input.
const (
	MsgMessage   ClientMessageType = "message"
	MsgQuestion  ClientMessageType = "question"
	MsgNewRound  ClientMessageType = "new_round"
	MsgSkipRound ClientMessageType = "skip_round"
	MsgPing      ClientMessageType = "ping"
)

// ClientMessage represents a message from client to server. Server → client
// traffic uses domain.Event directly.
type ClientMessage struct {
	Type    ClientMessageType `json:"type"`
	Content string            `json:"content,omitempty"`
}
