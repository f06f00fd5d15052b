package domain

import "time"

// EventType represents the type of outbound session event
type EventType string

const (
	EventWelcome      EventType = "welcome"
	EventState        EventType = "state"
	EventChatMessage  EventType = "chat_message"
	EventThinking     EventType = "thinking"
	EventNewRound     EventType = "new_round"
	EventRoundSkipped EventType = "round_skipped"
	EventError        EventType = "error"
	EventPong         EventType = "pong"
)

// Event is a single outbound delta. Every connected socket receives the same
// events in the same order for a given session.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(eventType EventType, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// SessionSnapshot is the full session state sent in welcome and state events.
// The secret word itself is never included, only its presence.
type SessionSnapshot struct {
	Players       []Player      `json:"players"`
	Round         int           `json:"round"`
	ChatHistory   []ChatMessage `json:"chatHistory"`
	Thinking      []string      `json:"thinkingForPlayers"`
	LastWinner    *Player       `json:"lastWinner,omitempty"`
	HasSecretWord bool          `json:"hasSecretWord"`
	CorpusReady   bool          `json:"corpusReady"`
}

// Payload types for different events

// WelcomePayload is sent once to a socket right after it joins
type WelcomePayload struct {
	PlayerID string          `json:"playerId"`
	State    SessionSnapshot `json:"state"`
}

// ThinkingPayload carries the current set of players with an outstanding query
type ThinkingPayload struct {
	PlayerIDs []string `json:"playerIds"`
}

// NewRoundPayload is sent when a round begins
type NewRoundPayload struct {
	Round   int      `json:"round"`
	Winner  *Player  `json:"winner,omitempty"`
	Players []Player `json:"players"`
}

// RoundSkippedPayload reveals the current word without advancing the round
type RoundSkippedPayload struct {
	Word     string   `json:"word"`
	Category Category `json:"category"`
}

// ErrorPayload is sent when an action is rejected
type ErrorPayload struct {
	Message string `json:"message"`
}
