package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordoracle/internal/config"
	"wordoracle/internal/domain"
)

const eventWait = 2 * time.Second

// fakeClient records every event it receives
type fakeClient struct {
	mu     sync.Mutex
	events []*domain.Event
	ch     chan *domain.Event
	closed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{ch: make(chan *domain.Event, 256)}
}

func (c *fakeClient) Send(event *domain.Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	select {
	case c.ch <- event:
	default:
	}
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) countChatContaining(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if msg, ok := e.Payload.(domain.ChatMessage); ok && strings.Contains(msg.Content, substr) {
			n++
		}
	}
	return n
}

func (c *fakeClient) countType(eventType domain.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// waitEvent blocks until the client receives an event of the given type
func waitEvent(t *testing.T, c *fakeClient, eventType domain.EventType) *domain.Event {
	t.Helper()
	deadline := time.After(eventWait)
	for {
		select {
		case event := <-c.ch:
			if event.Type == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", eventType)
			return nil
		}
	}
}

// fakeCorpus is an in-memory word pool with a deterministic pick order
type fakeCorpus struct {
	mu        sync.Mutex
	words     map[string]domain.WordEntry
	pickOrder []string
	refill    []domain.WordEntry // added by Replenish
	initErr   error
}

func newFakeCorpus(entries ...domain.WordEntry) *fakeCorpus {
	fc := &fakeCorpus{words: make(map[string]domain.WordEntry)}
	for _, e := range entries {
		fc.words[e.Word] = e
		fc.pickOrder = append(fc.pickOrder, e.Word)
	}
	return fc
}

func (fc *fakeCorpus) Initialize(context.Context) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.initErr
}

func (fc *fakeCorpus) PickRandom(context.Context) (*domain.WordEntry, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for _, word := range fc.pickOrder {
		if entry, ok := fc.words[word]; ok {
			return &entry, nil
		}
	}
	return nil, nil
}

func (fc *fakeCorpus) Replenish(context.Context) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for _, e := range fc.refill {
		if _, ok := fc.words[e.Word]; !ok {
			fc.words[e.Word] = e
			fc.pickOrder = append(fc.pickOrder, e.Word)
		}
	}
	return nil
}

func (fc *fakeCorpus) Consume(_ context.Context, word string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	delete(fc.words, word)
	return nil
}

func (fc *fakeCorpus) setInitErr(err error) {
	fc.mu.Lock()
	fc.initErr = err
	fc.mu.Unlock()
}

func (fc *fakeCorpus) has(word string) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	_, ok := fc.words[word]
	return ok
}

// stubOracle resolves classifications and answers from fixed tables, with
// optional per-message gates to hold a classification in flight
type stubOracle struct {
	mu       sync.Mutex
	verdicts map[string]domain.Verdict
	answers  map[string]string
	gates    map[string]chan struct{}
}

func newStubOracle() *stubOracle {
	return &stubOracle{
		verdicts: make(map[string]domain.Verdict),
		answers:  make(map[string]string),
		gates:    make(map[string]chan struct{}),
	}
}

func (o *stubOracle) gate(text string) chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	gate := make(chan struct{})
	o.gates[text] = gate
	return gate
}

func (o *stubOracle) Classify(_ context.Context, text string) (domain.Verdict, error) {
	o.mu.Lock()
	gate := o.gates[text]
	verdict := o.verdicts[text]
	o.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return verdict, nil
}

func (o *stubOracle) Answer(_ context.Context, question, _ string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if answer, ok := o.answers[question]; ok {
		return answer, nil
	}
	return "Yes, it is.", nil
}

func entry(word string) domain.WordEntry {
	return domain.WordEntry{Word: word, Category: domain.CategoryAnimal, Facts: "facts about " + word}
}

func testConfig() config.GameConfig {
	return config.GameConfig{
		MaxPlayers:      8,
		RoundGraceDelay: 40 * time.Millisecond,
		CorpusFloor:     5,
		CorpusBatchSize: 10,
	}
}

func newTestSession(t *testing.T, corpus WordCorpus, oracle Oracle) *Session {
	t.Helper()
	s := NewSession("test", testConfig(), corpus, oracle, slog.Default())
	t.Cleanup(s.Close)
	return s
}

// flush waits until every previously posted task has run
func flush(s *Session) {
	done := make(chan struct{})
	s.post(func() { close(done) })
	<-done
}

func TestJoinStartsFirstRound(t *testing.T) {
	s := newTestSession(t, newFakeCorpus(entry("cat")), newStubOracle())
	c := newFakeClient()

	s.Join("p1", c)

	welcome := waitEvent(t, c, domain.EventWelcome)
	payload, ok := welcome.Payload.(*domain.WelcomePayload)
	require.True(t, ok)
	assert.Equal(t, "p1", payload.PlayerID)

	roundEvent := waitEvent(t, c, domain.EventNewRound)
	round, ok := roundEvent.Payload.(*domain.NewRoundPayload)
	require.True(t, ok)
	assert.Equal(t, 1, round.Round)
	assert.Nil(t, round.Winner)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Round)
	assert.True(t, snap.HasSecretWord)
	assert.True(t, snap.CorpusReady)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, 0, snap.Players[0].Score)
}

func TestCapacityLimit(t *testing.T) {
	s := newTestSession(t, newFakeCorpus(entry("cat")), newStubOracle())

	clients := make([]*fakeClient, 0, 9)
	for i := 0; i < 9; i++ {
		c := newFakeClient()
		clients = append(clients, c)
		s.Join(uuid.NewString(), c)
	}
	flush(s)

	assert.Equal(t, 8, s.PlayerCount())

	rejected := clients[8]
	waitEvent(t, rejected, domain.EventError)
	assert.True(t, rejected.isClosed())

	for i, c := range clients[:8] {
		assert.Equal(t, 0, c.countType(domain.EventError), "player %d should be unaffected", i)
		assert.False(t, c.isClosed())
	}
}

func TestRoundStrictlyIncreasing(t *testing.T) {
	s := newTestSession(t, newFakeCorpus(entry("cat"), entry("dog")), newStubOracle())
	c := newFakeClient()

	s.Join("p1", c)
	waitEvent(t, c, domain.EventNewRound)
	assert.Equal(t, 1, s.Snapshot().Round)

	s.RequestNewRound()
	waitEvent(t, c, domain.EventNewRound)
	assert.Equal(t, 2, s.Snapshot().Round)
}

func TestSecondSubmissionWhileThinkingIsNoOp(t *testing.T) {
	oracle := newStubOracle()
	gate := oracle.gate("Is it alive?")
	defer close(gate)

	s := newTestSession(t, newFakeCorpus(entry("cat")), oracle)
	c := newFakeClient()

	s.Join("p1", c)
	waitEvent(t, c, domain.EventNewRound)
	flush(s)

	chatBefore := c.countType(domain.EventChatMessage)
	s.SubmitMessage("p1", "Is it alive?")
	flush(s)
	assert.Equal(t, chatBefore+1, c.countType(domain.EventChatMessage))
	thinkingAfterFirst := c.countType(domain.EventThinking)

	// Second submission while the first query is outstanding is ignored:
	// no chat message, no thinking delta
	s.SubmitMessage("p1", "Is it big?")
	flush(s)
	assert.Equal(t, chatBefore+1, c.countType(domain.EventChatMessage))
	assert.Equal(t, thinkingAfterFirst, c.countType(domain.EventThinking))
}

func TestStaleResultDiscarded(t *testing.T) {
	oracle := newStubOracle()
	gate := oracle.gate("Is it alive?")
	defer close(gate)

	s := newTestSession(t, newFakeCorpus(entry("cat"), entry("dog")), oracle)
	c := newFakeClient()

	s.Join("p1", c)
	waitEvent(t, c, domain.EventNewRound)
	s.SubmitMessage("p1", "Is it alive?")
	waitEvent(t, c, domain.EventThinking)

	// Advance the round while the classification is still in flight
	s.post(func() { s.startRound(nil) })
	waitEvent(t, c, domain.EventNewRound)
	require.Equal(t, 2, s.Snapshot().Round)

	baseline := s.Snapshot()
	require.Empty(t, baseline.Thinking)

	// Inject the resolutions the in-flight query would produce for round 1:
	// both a question and a winning guess must be discarded wholesale
	s.post(func() {
		s.resolveClassified(1, "p1", "Is it alive?", domain.Verdict{}, nil)
	})
	s.post(func() {
		s.resolveClassified(1, "p1", "cat", domain.Verdict{IsGuess: true, Target: "cat"}, nil)
	})
	flush(s)

	snap := s.Snapshot()
	assert.Equal(t, baseline.Round, snap.Round)
	assert.Equal(t, len(baseline.ChatHistory), len(snap.ChatHistory))
	assert.Empty(t, snap.Thinking)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, 0, snap.Players[0].Score)
}

func TestWinScenario(t *testing.T) {
	oracle := newStubOracle()
	oracle.verdicts["Is it alive?"] = domain.Verdict{}
	oracle.answers["Is it alive?"] = "Yes, it is alive."
	oracle.verdicts["Guess: cat"] = domain.Verdict{IsGuess: true, Target: "cat"}
	guessGate := oracle.gate("Guess: cat")

	corpus := newFakeCorpus(entry("cat"))
	corpus.refill = []domain.WordEntry{entry("dog")}

	s := newTestSession(t, corpus, oracle)
	c1, c2 := newFakeClient(), newFakeClient()

	s.Join("p1", c1)
	s.Join("p2", c2)
	waitEvent(t, c1, domain.EventNewRound)
	flush(s)

	// P1 asks a question and gets an answer opening with "Yes,"
	s.SubmitMessage("p1", "Is it alive?")
	for {
		event := waitEvent(t, c2, domain.EventChatMessage)
		msg, ok := event.Payload.(domain.ChatMessage)
		require.True(t, ok)
		if msg.Type == domain.MessageAnswer {
			assert.True(t, strings.HasPrefix(msg.Content, "Yes,"), "answer was %q", msg.Content)
			require.NotNil(t, msg.ReplyTo)
			break
		}
	}

	// P2 guesses correctly while P1's slot is free again
	s.SubmitMessage("p2", "Guess: cat")
	close(guessGate)

	for {
		event := waitEvent(t, c1, domain.EventChatMessage)
		msg, ok := event.Payload.(domain.ChatMessage)
		require.True(t, ok)
		if msg.Type == domain.MessageAnswer && strings.Contains(msg.Content, "Correct!") {
			assert.Contains(t, msg.Content, "cat")
			break
		}
	}

	// The guessed word is consumed; a skipped word would have survived
	assert.False(t, corpus.has("cat"))

	// After the grace delay a new round fires with the counter bumped once
	roundEvent := waitEvent(t, c1, domain.EventNewRound)
	round, ok := roundEvent.Payload.(*domain.NewRoundPayload)
	require.True(t, ok)
	assert.Equal(t, 2, round.Round)
	require.NotNil(t, round.Winner)
	assert.Equal(t, "p2", round.Winner.ID)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Round)
	assert.Empty(t, snap.Thinking)
	require.NotNil(t, snap.LastWinner)
	assert.Equal(t, "p2", snap.LastWinner.ID)
	for _, p := range snap.Players {
		if p.ID == "p2" {
			assert.Equal(t, 1, p.Score)
		} else {
			assert.Equal(t, 0, p.Score)
		}
	}

	// Exactly one win message was broadcast
	c1.mu.Lock()
	wins := 0
	for _, e := range c1.events {
		if msg, ok := e.Payload.(domain.ChatMessage); ok && strings.Contains(msg.Content, "Correct!") {
			wins++
		}
	}
	c1.mu.Unlock()
	assert.Equal(t, 1, wins)
}

func TestSkipRevealsWithoutAdvancing(t *testing.T) {
	corpus := newFakeCorpus(entry("cat"))
	s := newTestSession(t, corpus, newStubOracle())
	c := newFakeClient()

	s.Join("p1", c)
	waitEvent(t, c, domain.EventNewRound)
	before := s.Snapshot()

	s.RequestSkipRound()
	event := waitEvent(t, c, domain.EventRoundSkipped)
	payload, ok := event.Payload.(*domain.RoundSkippedPayload)
	require.True(t, ok)
	assert.Equal(t, "cat", payload.Word)
	assert.Equal(t, domain.CategoryAnimal, payload.Category)

	flush(s)
	assert.Equal(t, 1, c.countType(domain.EventRoundSkipped))

	after := s.Snapshot()
	assert.Equal(t, before.Round, after.Round)
	assert.Equal(t, len(before.ChatHistory), len(after.ChatHistory))
	assert.True(t, corpus.has("cat"), "skipped word must remain selectable")
}

func TestSkipIgnoredWhileQueryPending(t *testing.T) {
	oracle := newStubOracle()
	gate := oracle.gate("Is it alive?")
	defer close(gate)

	s := newTestSession(t, newFakeCorpus(entry("cat")), oracle)
	c := newFakeClient()

	s.Join("p1", c)
	waitEvent(t, c, domain.EventNewRound)

	s.SubmitMessage("p1", "Is it alive?")
	waitEvent(t, c, domain.EventThinking)

	s.RequestSkipRound()
	flush(s)
	assert.Equal(t, 0, c.countType(domain.EventRoundSkipped))
}

func TestSubmitWithoutActiveRoundIgnored(t *testing.T) {
	// Empty corpus and an empty refill batch: the round fails to produce a
	// secret word and the session stays without one
	s := newTestSession(t, newFakeCorpus(), newStubOracle())
	c := newFakeClient()

	s.Join("p1", c)
	require.Eventually(t, func() bool { return s.Snapshot().CorpusReady }, eventWait, 10*time.Millisecond)

	snap := s.Snapshot()
	require.False(t, snap.HasSecretWord)
	chatBefore := len(snap.ChatHistory)

	s.SubmitMessage("p1", "Is it alive?")
	flush(s)

	snap = s.Snapshot()
	assert.Equal(t, chatBefore, len(snap.ChatHistory))
	assert.Empty(t, snap.Thinking)
}

func TestCorpusInitFailureIsVisibleAndRecoverable(t *testing.T) {
	corpus := newFakeCorpus(entry("cat"))
	corpus.setInitErr(errors.New("provider down"))

	s := newTestSession(t, corpus, newStubOracle())
	c := newFakeClient()

	s.Join("p1", c)

	require.Eventually(t, func() bool {
		return c.countChatContaining("could not be prepared") == 1
	}, eventWait, 10*time.Millisecond)

	// First init was attempted, so the preparing notice preceded the failure
	assert.Equal(t, 1, c.countChatContaining("Preparing the word pool"))

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Round)
	assert.False(t, snap.HasSecretWord)
	assert.False(t, snap.CorpusReady)

	// With the backend healthy again, a manual new round recovers
	corpus.setInitErr(nil)
	s.RequestNewRound()

	event := waitEvent(t, c, domain.EventNewRound)
	round, ok := event.Payload.(*domain.NewRoundPayload)
	require.True(t, ok)
	assert.Equal(t, 2, round.Round)

	// The retry re-posts the preparing notice before succeeding
	assert.Equal(t, 2, c.countChatContaining("Preparing the word pool"))

	snap = s.Snapshot()
	assert.Equal(t, 2, snap.Round)
	assert.True(t, snap.HasSecretWord)
	assert.True(t, snap.CorpusReady)
}

func TestManualNewRoundDuringGraceWindow(t *testing.T) {
	oracle := newStubOracle()
	oracle.verdicts["cat"] = domain.Verdict{IsGuess: true, Target: "cat"}

	corpus := newFakeCorpus(entry("cat"), entry("dog"), entry("owl"))
	s := newTestSession(t, corpus, oracle)
	c := newFakeClient()

	s.Join("p1", c)
	waitEvent(t, c, domain.EventNewRound)

	s.SubmitMessage("p1", "cat")
	for {
		event := waitEvent(t, c, domain.EventChatMessage)
		if msg, ok := event.Payload.(domain.ChatMessage); ok && strings.Contains(msg.Content, "Correct!") {
			break
		}
	}

	// Jump the grace window with a manual request; the grace timer's own
	// continuation must then be discarded as stale
	s.RequestNewRound()
	waitEvent(t, c, domain.EventNewRound)
	require.Equal(t, 2, s.Snapshot().Round)

	time.Sleep(4 * testConfig().RoundGraceDelay)
	assert.Equal(t, 2, s.Snapshot().Round)
}

func TestLeaveClearsThinking(t *testing.T) {
	oracle := newStubOracle()
	gate := oracle.gate("Is it alive?")
	defer close(gate)

	s := newTestSession(t, newFakeCorpus(entry("cat")), oracle)
	c1, c2 := newFakeClient(), newFakeClient()

	s.Join("p1", c1)
	s.Join("p2", c2)
	waitEvent(t, c1, domain.EventNewRound)
	flush(s)

	s.SubmitMessage("p1", "Is it alive?")
	waitEvent(t, c2, domain.EventThinking)
	require.Equal(t, []string{"p1"}, s.Snapshot().Thinking)

	s.Leave("p1")
	flush(s)

	snap := s.Snapshot()
	assert.Empty(t, snap.Thinking)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "p2", snap.Players[0].ID)
}
