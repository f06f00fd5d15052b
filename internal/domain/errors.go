package domain

import "errors"

// Domain errors
var (
	ErrSessionFull     = errors.New("session is full")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNoActiveRound   = errors.New("no active round")
	ErrQueryPending    = errors.New("query already pending for player")
	ErrCorpusEmpty     = errors.New("word corpus is empty")
	ErrBadCompletion   = errors.New("unusable completion response")
)
