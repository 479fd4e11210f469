// Package sqlitekv implements platform.Store on top of a local SQLite
// database. It trades the filekv watcher for durable single-file storage;
// Watch polls a revision column so cross-process changes still surface,
// just with coarser latency.
package sqlitekv

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const pollInterval = 2 * time.Second

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			revision   INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_blobs_updated ON blobs(updated_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Load(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM blobs WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading blob %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Save(key string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (key, value, revision, updated_at) VALUES (?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = blobs.revision + 1,
			updated_at = excluded.updated_at
	`, key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving blob %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM blobs WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting blob %q: %w", key, err)
	}
	return nil
}

func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		seen := make(map[string]int64)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rows, err := s.db.Query("SELECT key, revision FROM blobs")
				if err != nil {
					continue
				}
				for rows.Next() {
					var key string
					var rev int64
					if err := rows.Scan(&key, &rev); err != nil {
						break
					}
					if prev, ok := seen[key]; ok && prev != rev {
						select {
						case ch <- key:
						case <-ctx.Done():
							rows.Close()
							return
						}
					}
					seen[key] = rev
				}
				rows.Close()
			}
		}
	}()
	return ch, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
