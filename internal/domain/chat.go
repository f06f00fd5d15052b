package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies a chat message
type MessageType string

const (
	MessageQuestion MessageType = "question"
	MessageGuess    MessageType = "guess"
	MessageAnswer   MessageType = "answer"
	MessageSystem   MessageType = "system"
)

// ReplyRef points an answer at the player it replies to
type ReplyRef struct {
	PlayerName  string `json:"playerName"`
	PlayerColor string `json:"playerColor"`
}

// ChatMessage is a single entry in a round's chat log
type ChatMessage struct {
	ID          string      `json:"id"`
	PlayerID    string      `json:"playerId"`
	PlayerName  string      `json:"playerName"`
	PlayerColor string      `json:"playerColor"`
	Type        MessageType `json:"type"`
	Content     string      `json:"content"`
	Timestamp   time.Time   `json:"timestamp"`
	ReplyTo     *ReplyRef   `json:"replyTo,omitempty"`
}

// NewPlayerMessage creates a chat message authored by a player
func NewPlayerMessage(p *Player, msgType MessageType, content string) ChatMessage {
	return ChatMessage{
		ID:          uuid.NewString(),
		PlayerID:    p.ID,
		PlayerName:  p.Name,
		PlayerColor: p.Color,
		Type:        msgType,
		Content:     content,
		Timestamp:   time.Now(),
	}
}

// NewSystemMessage creates a system chat message
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		PlayerID:  SystemAuthorID,
		Type:      MessageSystem,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewOracleMessage creates an answer from the Oracle, optionally replying to a player
func NewOracleMessage(content string, replyTo *ReplyRef) ChatMessage {
	return ChatMessage{
		ID:          uuid.NewString(),
		PlayerID:    OracleAuthorID,
		PlayerName:  OracleName,
		PlayerColor: OracleColor,
		Type:        MessageAnswer,
		Content:     content,
		Timestamp:   time.Now(),
		ReplyTo:     replyTo,
	}
}
