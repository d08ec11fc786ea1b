package local

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// blockNamespace seeds the name based block uids, so re-importing an
// unchanged note keeps its uids.
var blockNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("blockgallery/local"))

type ImportStats struct {
	Scanned   int
	Imported  int
	Unchanged int
	Removed   int
}

// ImportDir brings the graph in line with the markdown files under root.
// Unchanged files are skipped by content hash; pages whose file is gone are
// removed.
func (s *Store) ImportDir(ctx context.Context, root string) (ImportStats, error) {
	var stats ImportStats
	known, err := s.pageHashes(ctx)
	if err != nil {
		return stats, err
	}
	seen := make(map[string]bool, len(known))
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isNoteFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true
		stats.Scanned++

		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if known[rel] == ContentHash(content) {
			stats.Unchanged++
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := s.ImportNote(ctx, rel, content, info.ModTime(), info.Size()); err != nil {
			return fmt.Errorf("import %s: %w", rel, err)
		}
		stats.Imported++
		return nil
	})
	if err != nil {
		return stats, err
	}
	for rel := range known {
		if seen[rel] {
			continue
		}
		if err := s.RemoveNote(ctx, rel); err != nil {
			return stats, err
		}
		stats.Removed++
	}
	slog.Info("notes imported", "root", root, "scanned", stats.Scanned, "imported", stats.Imported, "unchanged", stats.Unchanged, "removed", stats.Removed)
	return stats, nil
}

// ImportNote replaces the page at relPath and all of its blocks.
func (s *Store) ImportNote(ctx context.Context, relPath string, content []byte, mtime time.Time, size int64) error {
	note := ParseNote(relPath, string(content))
	created := note.CreatedAt
	if created.IsZero() {
		created = mtime
	}
	createdMillis := int64(0)
	if !created.IsZero() {
		createdMillis = created.UnixMilli()
	}

	tx, start, err := s.beginTx(ctx, "import-note")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "import-note", start)

	if err := s.deletePageTx(ctx, tx, relPath); err != nil {
		return err
	}
	res, err := s.execContextTx(ctx, tx,
		"INSERT INTO pages(path, title, hash, mtime_unix, size, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		relPath, note.Title, ContentHash(content), mtime.Unix(), size, createdMillis)
	if err != nil {
		return err
	}
	pageID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	uids := make(map[int]string, len(note.Blocks))
	order := make(map[int]int, len(note.Blocks))
	for i, block := range note.Blocks {
		uid := blockUID(relPath, i)
		uids[block.ID] = uid
		ord := order[block.ParentID]
		order[block.ParentID] = ord + 1
		if _, err := s.execContextTx(ctx, tx,
			"INSERT INTO blocks(uid, page_id, parent_uid, ord, level, start_line, text, markdown, created_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)",
			uid, pageID, uids[block.ParentID], ord, block.Level, block.StartLine, block.Text, block.Markdown, createdMillis); err != nil {
			return err
		}
	}
	if err := s.commitTx(tx, "import-note", start); err != nil {
		return err
	}
	slog.Debug("note imported", "path", relPath, "title", note.Title, "blocks", len(note.Blocks))
	return nil
}

// RemoveNote drops the page at relPath. Removing an unknown page is not an
// error.
func (s *Store) RemoveNote(ctx context.Context, relPath string) error {
	tx, start, err := s.beginTx(ctx, "remove-note")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "remove-note", start)
	if err := s.deletePageTx(ctx, tx, relPath); err != nil {
		return err
	}
	return s.commitTx(tx, "remove-note", start)
}

func (s *Store) deletePageTx(ctx context.Context, tx *sql.Tx, relPath string) error {
	if _, err := s.execContextTx(ctx, tx, "DELETE FROM blocks WHERE page_id IN (SELECT id FROM pages WHERE path=?)", relPath); err != nil {
		return err
	}
	_, err := s.execContextTx(ctx, tx, "DELETE FROM pages WHERE path=?", relPath)
	return err
}

func (s *Store) pageHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.queryContext(ctx, "SELECT path, hash FROM pages")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, h string
		if err := rows.Scan(&p, &h); err != nil {
			return nil, err
		}
		out[p] = h
	}
	return out, rows.Err()
}

func blockUID(relPath string, ordinal int) string {
	return uuid.NewSHA1(blockNamespace, []byte(relPath+"#"+strconv.Itoa(ordinal))).String()
}

func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func isNoteFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}

// relNotePath maps an absolute file path under root to the page path.
func relNotePath(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.New("path outside notes root")
	}
	return filepath.ToSlash(rel), nil
}
