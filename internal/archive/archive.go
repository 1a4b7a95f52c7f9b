// Package archive keeps the input payloads that failed generation so they
// can be replayed later. Only the most recent payloads are retained.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultMaxPayloads is the retention used when none is configured
const DefaultMaxPayloads = 25

// Payload is an archived input
type Payload struct {
	ID        string
	Language  string
	Reason    string
	Data      []byte
	CreatedAt time.Time
}

// Store is a SQLite backed payload archive
type Store struct {
	db          *sql.DB
	maxPayloads int
}

// Open opens or creates the archive database at path. Use ":memory:" for
// a throwaway archive.
func Open(path string, maxPayloads int) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating archive directory: %w", err)
			}
		}
		dsn = path + "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writes
	db.SetMaxOpenConns(1)

	if maxPayloads <= 0 {
		maxPayloads = DefaultMaxPayloads
	}
	s := &Store{db: db, maxPayloads: maxPayloads}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS payloads (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			language TEXT,
			reason TEXT,
			data BLOB NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores a payload and prunes the oldest ones beyond the retention.
// It returns the id of the new record.
func (s *Store) Save(ctx context.Context, language, reason string, data []byte) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payloads (id, language, reason, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, language, reason, data, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("inserting payload: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payloads WHERE seq NOT IN (SELECT seq FROM payloads ORDER BY seq DESC LIMIT ?)`,
		s.maxPayloads,
	); err != nil {
		return "", fmt.Errorf("pruning payloads: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing payload: %w", err)
	}
	return id, nil
}

// List returns the archived payloads, newest first
func (s *Store) List(ctx context.Context) ([]Payload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, language, reason, data, created_at FROM payloads ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying payloads: %w", err)
	}
	defer rows.Close()

	var out []Payload
	for rows.Next() {
		var p Payload
		var created string
		if err := rows.Scan(&p.ID, &p.Language, &p.Reason, &p.Data, &created); err != nil {
			return nil, fmt.Errorf("scanning payload: %w", err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns one payload by id
func (s *Store) Get(ctx context.Context, id string) (Payload, error) {
	var p Payload
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, language, reason, data, created_at FROM payloads WHERE id = ?`, id,
	).Scan(&p.ID, &p.Language, &p.Reason, &p.Data, &created)
	if err != nil {
		return Payload{}, fmt.Errorf("payload %s: %w", id, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return p, nil
}
