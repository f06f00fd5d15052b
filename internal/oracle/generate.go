package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"wordoracle/internal/domain"
)

// WordGenerator produces corpus batches via a completion provider. It
// implements corpus.Generator.
type WordGenerator struct {
	completer Completer
	logger    *slog.Logger
}

// NewWordGenerator creates a batch generator backed by the given completer
func NewWordGenerator(completer Completer, logger *slog.Logger) *WordGenerator {
	return &WordGenerator{completer: completer, logger: logger}
}

// GenerateWords requests count entries as strict JSON and parses them
// tolerantly: code fences are unwrapped, unusable entries skipped.
func (g *WordGenerator) GenerateWords(ctx context.Context, count int) ([]domain.WordEntry, error) {
	raw, err := g.completer.Complete(ctx, generateSystemPrompt(), generateUserPrompt(count))
	if err != nil {
		return nil, err
	}

	var parsed []domain.WordEntry
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse generated batch: %w", domain.ErrBadCompletion)
	}

	entries := make([]domain.WordEntry, 0, len(parsed))
	for _, e := range parsed {
		e.Word = strings.TrimSpace(e.Word)
		if e.Word == "" || strings.TrimSpace(e.Facts) == "" {
			g.logger.Warn("skipping unusable generated entry", "word", e.Word)
			continue
		}
		if !domain.ValidCategory(e.Category) {
			g.logger.Warn("generated entry has unknown category", "word", e.Word, "category", e.Category)
			e.Category = domain.CategoryConcept
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		return nil, domain.ErrBadCompletion
	}
	return entries, nil
}
