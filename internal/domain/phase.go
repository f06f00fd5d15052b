package domain

// Phase represents the current phase of a session
type Phase string

const (
	PhaseUninitialized Phase = "UNINITIALIZED"  // Corpus never loaded, no round started
	PhaseCorpusLoading Phase = "CORPUS_LOADING" // Awaiting corpus init or word selection
	PhaseRoundActive   Phase = "ROUND_ACTIVE"   // A secret word is in play
	PhaseRoundResolved Phase = "ROUND_RESOLVED" // Correct guess revealed, grace delay before next round
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseUninitialized: {PhaseCorpusLoading},
		PhaseCorpusLoading: {PhaseRoundActive, PhaseUninitialized, PhaseCorpusLoading},
		PhaseRoundActive:   {PhaseRoundResolved, PhaseCorpusLoading},
		PhaseRoundResolved: {PhaseCorpusLoading},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
