package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"wordoracle/internal/domain"
)

// Oracle answers in-session questions and classifies inbound messages
type Oracle struct {
	completer Completer
	logger    *slog.Logger
}

// New creates an Oracle backed by the given completer
func New(completer Completer, logger *slog.Logger) *Oracle {
	return &Oracle{completer: completer, logger: logger}
}

// Classify decides whether text is a guess (with an extracted target) or a question
func (o *Oracle) Classify(ctx context.Context, text string) (domain.Verdict, error) {
	raw, err := o.completer.Complete(ctx, classifySystemPrompt, text)
	if err != nil {
		return domain.Verdict{}, err
	}

	var verdict domain.Verdict
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &verdict); err != nil {
		return domain.Verdict{}, fmt.Errorf("parse classifier verdict: %w", domain.ErrBadCompletion)
	}
	if verdict.IsGuess && strings.TrimSpace(verdict.Target) == "" {
		// A guess with no target is unusable; treat it as a question
		verdict = domain.Verdict{IsGuess: false}
	}
	return verdict, nil
}

// Answer answers a yes/no question from the stored facts, under the
// non-disclosure system prompt
func (o *Oracle) Answer(ctx context.Context, question, facts string) (string, error) {
	raw, err := o.completer.Complete(ctx, answerSystemPrompt, answerUserPrompt(question, facts))
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return "", domain.ErrBadCompletion
	}
	return answer, nil
}

// stripCodeFence tolerantly unwraps a completion from surrounding markdown
// code-fence markup, with or without a language tag
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json")
		if firstLine := strings.TrimSpace(s[:idx]); !strings.ContainsAny(firstLine, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
