package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// Key is the fixed name the history blob is stored under.
const Key = "roast_history"

// DefaultPath is the database file used when none is configured.
const DefaultPath = ".roastmysite/history.db"

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// Store keeps the most recent roasts, newest first, as one JSON blob in a
// SQLite key/value table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns saved entries, newest first. A corrupt blob reads as empty.
func (s *Store) Load(ctx context.Context) ([]roast.HistoryItem, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", Key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return []roast.HistoryItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var items []roast.HistoryItem
	if err := json.Unmarshal(blob, &items); err != nil {
		log.Warn().Err(err).Str("db", s.path).Msg("history blob unreadable; starting empty")
		return []roast.HistoryItem{}, nil
	}
	if len(items) > roast.MaxHistoryEntries {
		items = items[:roast.MaxHistoryEntries]
	}
	return items, nil
}

// Add records r at the front of the history and trims it to the cap.
func (s *Store) Add(ctx context.Context, r roast.Result) ([]roast.HistoryItem, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	next := make([]roast.HistoryItem, 0, roast.MaxHistoryEntries)
	next = append(next, roast.HistoryItemFrom(r))
	for _, it := range items {
		if len(next) == roast.MaxHistoryEntries {
			break
		}
		next = append(next, it)
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Get returns the entry at position i (0 is newest).
func (s *Store) Get(ctx context.Context, i int) (roast.HistoryItem, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return roast.HistoryItem{}, err
	}
	if i < 0 || i >= len(items) {
		return roast.HistoryItem{}, fmt.Errorf("history entry %d not found (have %d)", i+1, len(items))
	}
	return items[i], nil
}

// Clear removes all entries.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", Key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, items []roast.HistoryItem) error {
	blob, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		Key, blob)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
