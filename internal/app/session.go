package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"wordoracle/internal/config"
	"wordoracle/internal/domain"
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(event *domain.Event) error
	Close() error
}

// Oracle classifies inbound messages and answers questions. A deterministic
// stub backs it in tests.
type Oracle interface {
	Classify(ctx context.Context, text string) (domain.Verdict, error)
	Answer(ctx context.Context, question, facts string) (string, error)
}

// WordCorpus is the durable word pool as the session sees it
type WordCorpus interface {
	Initialize(ctx context.Context) error
	PickRandom(ctx context.Context) (*domain.WordEntry, error)
	Replenish(ctx context.Context) error
	Consume(ctx context.Context, word string) error
}

// Session owns one game's entire state: players, round counter, secret word,
// chat log and thinking flags. A single goroutine consumes the task channel
// and performs every mutation; exported methods post closures onto it, and
// asynchronous Oracle results re-enter through the same channel, re-checking
// their captured round epoch before touching anything. There are no locks
// around session state.
type Session struct {
	id     string
	cfg    config.GameConfig
	corpus WordCorpus
	oracle Oracle
	logger *slog.Logger

	players     []*domain.Player
	clients     map[string]ClientConnection
	joinSeq     int
	round       int
	phase       domain.Phase
	secret      *domain.WordEntry
	chat        []domain.ChatMessage
	thinking    map[string]struct{}
	lastWinner  *domain.Player
	corpusReady bool

	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	createdAt time.Time
}

// NewSession creates a session and starts its owning goroutine
func NewSession(id string, cfg config.GameConfig, corpus WordCorpus, oracle Oracle, logger *slog.Logger) *Session {
	s := &Session{
		id:        id,
		cfg:       cfg,
		corpus:    corpus,
		oracle:    oracle,
		logger:    logger.With("session", id),
		clients:   make(map[string]ClientConnection),
		phase:     domain.PhaseUninitialized,
		thinking:  make(map[string]struct{}),
		tasks:     make(chan func(), 256),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}

	go s.run()

	return s
}

// ID returns the session's room id
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// run is the session's owning goroutine; every state mutation happens here
func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.tasks:
			fn()
		}
	}
}

// post schedules fn on the owning goroutine
func (s *Session) post(fn func()) {
	select {
	case s.tasks <- fn:
	case <-s.done:
	}
}

// Join registers a socket as a new player. The 9th concurrent connection is
// rejected with an error event and closed; the prior 8 are unaffected.
func (s *Session) Join(playerID string, client ClientConnection) {
	s.post(func() {
		if len(s.players) >= s.cfg.MaxPlayers {
			client.Send(domain.NewEvent(domain.EventError, &domain.ErrorPayload{Message: domain.ErrSessionFull.Error()}))
			client.Close()
			s.logger.Info("connection rejected, session full", "playerID", playerID)
			return
		}

		p := domain.NewPlayer(playerID, s.joinSeq)
		s.joinSeq++
		s.players = append(s.players, p)
		s.clients[playerID] = client

		client.Send(domain.NewEvent(domain.EventWelcome, &domain.WelcomePayload{
			PlayerID: playerID,
			State:    s.snapshot(),
		}))

		s.appendChat(domain.NewSystemMessage(fmt.Sprintf("%s joined the game", p.Name)))
		s.broadcastState()
		s.logger.Info("player joined", "playerID", playerID, "name", p.Name, "players", len(s.players))

		if len(s.players) == 1 && s.secret == nil && s.phase != domain.PhaseCorpusLoading {
			s.startRound(nil)
		}
	})
}

// Leave removes a player and their socket. A new socket is always a new
// player; there is no reconnection.
func (s *Session) Leave(playerID string) {
	s.post(func() {
		p := s.playerByID(playerID)
		if p == nil {
			return
		}

		for i, other := range s.players {
			if other.ID == playerID {
				s.players = append(s.players[:i], s.players[i+1:]...)
				break
			}
		}
		delete(s.clients, playerID)

		if _, pending := s.thinking[playerID]; pending {
			delete(s.thinking, playerID)
			s.broadcastThinking()
		}

		s.appendChat(domain.NewSystemMessage(fmt.Sprintf("%s left the game", p.Name)))
		s.broadcastState()
		s.logger.Info("player left", "playerID", playerID, "players", len(s.players))
	})
}

// SubmitMessage feeds a player's free-text input into the query pipeline
func (s *Session) SubmitMessage(playerID, content string) {
	s.post(func() {
		s.handleMessage(playerID, strings.TrimSpace(content))
	})
}

// RequestNewRound starts a fresh round, honored only when no query is pending
func (s *Session) RequestNewRound() {
	s.post(func() {
		if len(s.thinking) > 0 {
			return
		}
		s.startRound(nil)
	})
}

// RequestSkipRound reveals the current word without advancing the round or
// removing the word from the corpus
func (s *Session) RequestSkipRound() {
	s.post(func() {
		if len(s.thinking) > 0 || s.secret == nil {
			return
		}
		s.broadcast(domain.NewEvent(domain.EventRoundSkipped, &domain.RoundSkippedPayload{
			Word:     s.secret.Word,
			Category: s.secret.Category,
		}))
		s.logger.Info("round skipped", "round", s.round, "word", s.secret.Word)
	})
}

// CanJoin reports whether the session has room for another player. Callers
// use it to reject before the transport handshake; Join re-checks under the
// owning goroutine, so a race between two joiners still resolves safely.
func (s *Session) CanJoin() bool {
	resp := make(chan bool, 1)
	s.post(func() { resp <- len(s.players) < s.cfg.MaxPlayers })
	select {
	case ok := <-resp:
		return ok
	case <-s.done:
		return false
	}
}

// PlayerCount returns the number of connected players
func (s *Session) PlayerCount() int {
	resp := make(chan int, 1)
	s.post(func() { resp <- len(s.players) })
	select {
	case n := <-resp:
		return n
	case <-s.done:
		return 0
	}
}

// Snapshot returns a copy of the full session state
func (s *Session) Snapshot() domain.SessionSnapshot {
	resp := make(chan domain.SessionSnapshot, 1)
	s.post(func() { resp <- s.snapshot() })
	select {
	case snap := <-resp:
		return snap
	case <-s.done:
		return domain.SessionSnapshot{}
	}
}

// Close shuts down the session and closes every client connection
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		closed := make(chan struct{})
		s.post(func() {
			for _, client := range s.clients {
				client.Close()
			}
			s.clients = make(map[string]ClientConnection)
			close(closed)
		})
		<-closed
		close(s.done)
	})
}

// --- round state machine (owning goroutine only below this point) ---

// startRound begins the next round: bumps the round counter, resets the chat
// log and thinking flags, and picks a new secret word. Corpus work runs off
// the owning goroutine; its continuation re-checks the round epoch.
func (s *Session) startRound(winner *domain.Player) {
	s.round++
	s.chat = nil
	if len(s.thinking) > 0 {
		s.thinking = make(map[string]struct{})
		s.broadcastThinking()
	}
	s.lastWinner = winner
	s.secret = nil
	s.setPhase(domain.PhaseCorpusLoading)

	needsInit := !s.corpusReady
	if needsInit {
		s.appendChat(domain.NewSystemMessage("Preparing the word pool, one moment..."))
		s.broadcastState()
	}

	epoch := s.round
	go func() {
		ctx := context.Background()
		if needsInit {
			if err := s.corpus.Initialize(ctx); err != nil {
				s.post(func() { s.finishStartRound(epoch, winner, nil, err, true) })
				return
			}
		}

		entry, err := s.corpus.PickRandom(ctx)
		if err == nil && entry == nil {
			// Empty pool: generate one batch and retry the pick once
			if err = s.corpus.Replenish(ctx); err == nil {
				entry, err = s.corpus.PickRandom(ctx)
			}
		}
		s.post(func() { s.finishStartRound(epoch, winner, entry, err, false) })
	}()
}

// finishStartRound resumes startRound after the corpus work completes
func (s *Session) finishStartRound(epoch int, winner *domain.Player, entry *domain.WordEntry, err error, wasInit bool) {
	if s.round != epoch {
		return // round advanced while corpus work was in flight
	}

	if err != nil {
		s.logger.Error("round start failed", "round", epoch, "init", wasInit, "error", err)
		s.setPhase(domain.PhaseUninitialized)
		if wasInit {
			s.appendChat(domain.NewSystemMessage("The word pool could not be prepared. Try starting a new round in a moment."))
		}
		s.broadcastState()
		return
	}

	s.corpusReady = true

	if entry == nil {
		s.logger.Warn("no secret word available after replenish", "round", epoch)
		s.setPhase(domain.PhaseUninitialized)
		s.broadcastState()
		return
	}

	s.secret = entry
	s.setPhase(domain.PhaseRoundActive)

	s.broadcast(domain.NewEvent(domain.EventNewRound, &domain.NewRoundPayload{
		Round:   s.round,
		Winner:  winner,
		Players: s.playerSnapshots(),
	}))

	content := fmt.Sprintf("Round %d has begun. Ask yes/no questions, or guess the word!", s.round)
	if winner != nil {
		content = fmt.Sprintf("%s took the last round! Round %d has begun, a new word awaits.", winner.Name, s.round)
	}
	s.appendChat(domain.NewSystemMessage(content))
	s.broadcastState()

	s.logger.Info("round started", "round", s.round, "category", entry.Category)
}

// --- oracle query pipeline (owning goroutine only) ---

// handleMessage runs the per-message workflow: precondition checks, chat
// append, thinking flag, then the asynchronous classification.
func (s *Session) handleMessage(playerID, content string) {
	if content == "" {
		return
	}
	p := s.playerByID(playerID)
	if p == nil {
		return
	}
	// Both violations are silently ignored: no secret word active, or the
	// player already has an outstanding query.
	if s.secret == nil {
		return
	}
	if _, pending := s.thinking[playerID]; pending {
		return
	}

	s.appendChat(domain.NewPlayerMessage(p, domain.MessageQuestion, content))
	s.thinking[playerID] = struct{}{}
	s.broadcastThinking()

	epoch := s.round
	go func() {
		verdict, err := s.oracle.Classify(context.Background(), content)
		s.post(func() { s.resolveClassified(epoch, playerID, content, verdict, err) })
	}()
}

// resolveClassified resumes the pipeline after classification
func (s *Session) resolveClassified(epoch int, playerID, content string, verdict domain.Verdict, err error) {
	if s.round != epoch {
		return // stale: the round advanced while the call was in flight
	}
	if err != nil {
		s.logger.Warn("classification failed", "playerID", playerID, "error", err)
		s.clearThinking(playerID)
		return
	}

	p := s.playerByID(playerID)
	if p == nil {
		return // player disconnected; their thinking flag went with them
	}

	if verdict.IsGuess {
		s.resolveGuess(p, verdict.Target)
		return
	}

	facts := s.secret.Facts
	go func() {
		answer, aerr := s.oracle.Answer(context.Background(), content, facts)
		s.post(func() { s.resolveAnswer(epoch, playerID, answer, aerr) })
	}()
}

// resolveGuess settles a guess deterministically, never via the AI
func (s *Session) resolveGuess(p *domain.Player, target string) {
	if !domain.MatchesGuess(target, s.secret.Word) {
		s.appendChat(domain.NewOracleMessage(
			fmt.Sprintf("No, it is not %q. Keep digging!", target),
			&domain.ReplyRef{PlayerName: p.Name, PlayerColor: p.Color},
		))
		s.clearThinking(p.ID)
		return
	}

	word := s.secret.Word

	// Any other in-flight queries for this round are orphaned here; the
	// epoch check discards them when they resolve.
	s.thinking = make(map[string]struct{})
	s.broadcastThinking()

	p.Score++
	winner := p.Snapshot()
	s.lastWinner = &winner

	// A correct guess is the only path that removes a word from the corpus
	if err := s.corpus.Consume(context.Background(), word); err != nil {
		s.logger.Error("failed to consume guessed word", "word", word, "error", err)
	}

	s.appendChat(domain.NewOracleMessage(
		fmt.Sprintf("Correct! The word was %q. %s takes the round!", word, p.Name),
		nil,
	))
	s.broadcastState()
	s.setPhase(domain.PhaseRoundResolved)
	s.logger.Info("round won", "round", s.round, "winner", p.Name, "word", word)

	// Let the reveal be read before the next round; a manual new_round in
	// the meantime makes this timer's continuation stale.
	winEpoch := s.round
	time.AfterFunc(s.cfg.RoundGraceDelay, func() {
		s.post(func() {
			if s.round != winEpoch {
				return
			}
			s.startRound(&winner)
		})
	})
}

// resolveAnswer resumes the pipeline after the Oracle answered a question
func (s *Session) resolveAnswer(epoch int, playerID, answer string, err error) {
	if s.round != epoch {
		return
	}
	if err != nil {
		s.logger.Warn("oracle answer failed", "playerID", playerID, "error", err)
		s.clearThinking(playerID)
		return
	}

	p := s.playerByID(playerID)
	if p == nil {
		return
	}

	s.appendChat(domain.NewOracleMessage(answer, &domain.ReplyRef{
		PlayerName:  p.Name,
		PlayerColor: p.Color,
	}))
	s.clearThinking(playerID)
}

// --- helpers (owning goroutine only) ---

func (s *Session) playerByID(id string) *domain.Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) playerSnapshots() []domain.Player {
	players := make([]domain.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p.Snapshot())
	}
	return players
}

func (s *Session) thinkingIDs() []string {
	ids := make([]string, 0, len(s.thinking))
	for id := range s.thinking {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Session) snapshot() domain.SessionSnapshot {
	chat := make([]domain.ChatMessage, len(s.chat))
	copy(chat, s.chat)

	var lastWinner *domain.Player
	if s.lastWinner != nil {
		lw := *s.lastWinner
		lastWinner = &lw
	}

	return domain.SessionSnapshot{
		Players:       s.playerSnapshots(),
		Round:         s.round,
		ChatHistory:   chat,
		Thinking:      s.thinkingIDs(),
		LastWinner:    lastWinner,
		HasSecretWord: s.secret != nil,
		CorpusReady:   s.corpusReady,
	}
}

func (s *Session) setPhase(target domain.Phase) {
	if !s.phase.CanTransitionTo(target) {
		s.logger.Warn("unexpected phase transition", "from", s.phase, "to", target)
	}
	s.phase = target
}

func (s *Session) clearThinking(playerID string) {
	if _, pending := s.thinking[playerID]; !pending {
		return
	}
	delete(s.thinking, playerID)
	s.broadcastThinking()
}

func (s *Session) appendChat(msg domain.ChatMessage) {
	s.chat = append(s.chat, msg)
	s.broadcast(domain.NewEvent(domain.EventChatMessage, msg))
}

func (s *Session) broadcastThinking() {
	s.broadcast(domain.NewEvent(domain.EventThinking, &domain.ThinkingPayload{PlayerIDs: s.thinkingIDs()}))
}

func (s *Session) broadcastState() {
	s.broadcast(domain.NewEvent(domain.EventState, s.snapshot()))
}

// broadcast sends an event to every connected socket. Called only from the
// owning goroutine, so all sockets observe the same event order.
func (s *Session) broadcast(event *domain.Event) {
	for playerID, client := range s.clients {
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}
