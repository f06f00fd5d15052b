package domain

import "strings"

// Verdict is the classifier's decision for a single inbound message
type Verdict struct {
	IsGuess bool   `json:"isGuess"`
	Target  string `json:"target,omitempty"`
}

// minSubstringLength guards the containment rules against trivial
// short-word false positives ("cat" inside "category").
const minSubstringLength = 3

// NormalizeGuess lowercases, trims, and strips one leading article
func NormalizeGuess(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, article := range []string{"the ", "an ", "a "} {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}
	return strings.TrimSpace(s)
}

// MatchesGuess decides guess correctness deterministically, never via the AI.
// Accepts on exact match after normalization, singular/plural equivalence, or
// substring containment: a guess containing the secret word (when the word is
// long enough to be distinctive), or a sufficiently long guess contained in
// the secret word.
func MatchesGuess(guess, secret string) bool {
	g := NormalizeGuess(guess)
	w := NormalizeGuess(secret)
	if g == "" || w == "" {
		return false
	}
	if g == w {
		return true
	}
	if g+"s" == w || w+"s" == g {
		return true
	}
	if len(w) > minSubstringLength && strings.Contains(g, w) {
		return true
	}
	if len(g) > minSubstringLength && strings.Contains(w, g) {
		return true
	}
	return false
}
