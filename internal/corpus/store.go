// Package corpus owns the durable pool of candidate secret words.
package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"wordoracle/internal/domain"
)

// Generator produces one batch of word entries. Provider selection lives
// behind this seam, not in the store.
type Generator interface {
	GenerateWords(ctx context.Context, count int) ([]domain.WordEntry, error)
}

// Store is the durable, self-replenishing word pool backed by sqlite
type Store struct {
	db        *sql.DB
	gen       Generator
	floor     int
	batchSize int
	logger    *slog.Logger
}

// Open opens (creating if needed) the words database at dbPath
func Open(dbPath string, gen Generator, floor, batchSize int, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open words db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping words db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:        db,
		gen:       gen,
		floor:     floor,
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of stored words
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

// InsertMany inserts entries, silently skipping duplicates. Returns the
// number of rows actually inserted.
func (s *Store) InsertMany(ctx context.Context, entries []domain.WordEntry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, e := range entries {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO words (word, category, facts) VALUES (?, ?, ?) ON CONFLICT(word) DO NOTHING`,
			e.Word, string(e.Category), e.Facts,
		)
		if err != nil {
			return 0, fmt.Errorf("insert word %q: %w", e.Word, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Consume deletes a word from the pool. Called only on a correct guess.
func (s *Store) Consume(ctx context.Context, word string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM words WHERE word = ?`, word); err != nil {
		return fmt.Errorf("delete word %q: %w", word, err)
	}
	return nil
}

// PickRandom returns a uniformly random entry, or nil when the pool is empty
func (s *Store) PickRandom(ctx context.Context) (*domain.WordEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT word, category, facts FROM words ORDER BY RANDOM() LIMIT 1`)

	var entry domain.WordEntry
	var category string
	err := row.Scan(&entry.Word, &category, &entry.Facts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pick word: %w", err)
	}
	entry.Category = domain.Category(category)
	return &entry, nil
}

// Initialize generates one batch if the stored count is below the floor.
// Idempotent once the pool is populated.
func (s *Store) Initialize(ctx context.Context) error {
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if count >= s.floor {
		return nil
	}
	s.logger.Info("word corpus below floor, generating initial batch", "count", count, "floor", s.floor)
	return s.Replenish(ctx)
}

// Replenish generates and stores one batch of words
func (s *Store) Replenish(ctx context.Context) error {
	entries, err := s.gen.GenerateWords(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("generate batch: %w", err)
	}

	inserted, err := s.InsertMany(ctx, entries)
	if err != nil {
		return err
	}
	s.logger.Info("word corpus replenished", "generated", len(entries), "inserted", inserted)
	return nil
}
