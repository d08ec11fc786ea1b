// Package local is a block graph kept in sqlite and imported from a
// directory of markdown notes. Every note is a page; its headings, list
// items and paragraphs are blocks.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db          *sql.DB
	busyTimeout time.Duration
}

// Open opens (or creates) the graph database at path.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, busyTimeout: busyTimeout}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Init creates the schema. A schema version change drops every imported page
// so the next import starts from scratch.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if version == schemaVersion {
		return nil
	}
	for _, stmt := range []string{
		"DELETE FROM blocks",
		"DELETE FROM pages",
		"DELETE FROM schema_version",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	_, err = s.db.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", schemaVersion)
	return err
}

// Stats counts pages and blocks in the graph.
func (s *Store) Stats(ctx context.Context) (pages, blocks int, err error) {
	if err := s.queryRowContext(ctx, "SELECT COUNT(*) FROM pages", []any{&pages}); err != nil {
		return 0, 0, err
	}
	if err := s.queryRowContext(ctx, "SELECT COUNT(*) FROM blocks", []any{&blocks}); err != nil {
		return 0, 0, err
	}
	return pages, blocks, nil
}
