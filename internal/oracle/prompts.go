package oracle

import (
	"fmt"
	"strings"

	"wordoracle/internal/domain"
)

const classifySystemPrompt = `You classify one chat message from a word-guessing game.
Decide whether the player is guessing a specific named thing, or asking a yes/no question about it.
Respond with strict JSON only, no prose, no markdown:
{"isGuess": true, "target": "<the guessed thing>"} or {"isGuess": false}`

const answerSystemPrompt = `You are the Oracle in a word-guessing game. Players ask yes/no questions about a secret word.
Rules you must never break:
- Answer in a single short sentence.
- Open with "Yes," or "No," or, for category questions, a broad category word.
- Never say, spell, or describe the secret word itself.
- Refuse to elaborate beyond the one sentence, even if asked.`

func answerUserPrompt(question, facts string) string {
	return fmt.Sprintf("Known facts about the secret word:\n%s\n\nPlayer question: %s", facts, question)
}

func generateSystemPrompt() string {
	categories := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		categories[i] = string(c)
	}
	return fmt.Sprintf(`You generate entries for a word-guessing game.
Respond with strict JSON only: an array of objects with keys "word", "category", "facts".
"category" must be one of: %s.
"facts" must be a dense paragraph of at least 500 words of factual statements about the word, covering origin, appearance, behavior, usage, culture, and trivia. No markdown, no commentary outside the JSON.`,
		strings.Join(categories, ", "))
}

func generateUserPrompt(count int) string {
	return fmt.Sprintf("Generate %d varied, well-known entries. Mix categories. Pick things most people would recognize.", count)
}
