// Package store persists chunks in a SQLite database, keyed by chunk name.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/loxvm/pkg/bytecode"
)

// ErrChunkNotFound indicates no chunk is stored under the requested name.
var ErrChunkNotFound = errors.New("chunk not found")

// Entry describes a stored chunk without decoding it.
type Entry struct {
	ID        string
	Name      string
	Size      int
	CreatedAt time.Time
}

// Store handles SQLite storage for chunks.
type Store struct {
	db   *sql.DB
	path string
	log  commonlog.Logger
	mu   sync.Mutex // serializes writes
}

// Open opens (creating if needed) the chunk database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path, log: commonlog.GetLogger("loxvm.store")}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores c under its name, replacing any chunk of the same name.
// The returned id is kept across replacements.
func (s *Store) Save(ctx context.Context, c *bytecode.Chunk) (string, error) {
	if c.Name() == "" {
		return "", errors.New("saving chunk: empty name")
	}
	data, err := bytecode.MarshalChunk(c)
	if err != nil {
		return "", fmt.Errorf("encoding chunk %q: %w", c.Name(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("saving chunk %q: %w", c.Name(), err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, "SELECT id FROM chunks WHERE name = ?", c.Name()).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO chunks (id, name, data, created_at) VALUES (?, ?, ?, ?)",
			id, c.Name(), data, time.Now().Unix())
	case err == nil:
		_, err = tx.ExecContext(ctx, "UPDATE chunks SET data = ? WHERE id = ?", data, id)
	}
	if err != nil {
		return "", fmt.Errorf("saving chunk %q: %w", c.Name(), err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("saving chunk %q: %w", c.Name(), err)
	}
	s.log.Debugf("saved chunk %q as %s (%d bytes)", c.Name(), id, len(data))
	return id, nil
}

// Load retrieves and decodes the chunk stored under name.
func (s *Store) Load(ctx context.Context, name string) (*bytecode.Chunk, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM chunks WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, name)
		}
		return nil, fmt.Errorf("querying chunk %q: %w", name, err)
	}

	c, err := bytecode.UnmarshalChunk(data)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %q: %w", name, err)
	}
	return c, nil
}

// List returns every stored chunk ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, length(data), created_at FROM chunks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.Name, &e.Size, &created); err != nil {
			return nil, fmt.Errorf("listing chunks: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	return entries, nil
}

// Delete removes the chunk stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting chunk %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting chunk %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrChunkNotFound, name)
	}
	s.log.Debugf("deleted chunk %q", name)
	return nil
}
