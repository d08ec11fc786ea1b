package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"blockgallery/internal/graph"
)

// ScanImageBlocks lists every block whose text holds an image marker.
func (s *Store) ScanImageBlocks(ctx context.Context) ([]graph.BlockStamp, error) {
	rows, err := s.queryContext(ctx, "SELECT uid, created_at FROM blocks WHERE instr(text, ?) > 0 ORDER BY page_id, start_line", graph.ImageMarker)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}
	defer rows.Close()
	var stamps []graph.BlockStamp
	for rows.Next() {
		var st graph.BlockStamp
		if err := rows.Scan(&st.UID, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", graph.ErrQuery, err)
		}
		stamps = append(stamps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}
	return stamps, nil
}

func (s *Store) Block(ctx context.Context, uid string) (graph.Block, error) {
	var b graph.Block
	var created int64
	err := s.queryRowContext(ctx,
		"SELECT b.text, p.title, b.created_at FROM blocks b JOIN pages p ON p.id = b.page_id WHERE b.uid=?",
		[]any{&b.Text, &b.PageTitle, &created}, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Block{}, fmt.Errorf("%w: %s", graph.ErrNotFound, uid)
	}
	if err != nil {
		return graph.Block{}, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}
	b.UID = uid
	b.CreatedAt = graph.Created(created)
	return b, nil
}

// Neighborhood returns the parent text, the children in order and the
// directly adjacent siblings.
func (s *Store) Neighborhood(ctx context.Context, uid string) (graph.Neighborhood, error) {
	var pageID int64
	var parentUID string
	var ord int
	err := s.queryRowContext(ctx, "SELECT page_id, parent_uid, ord FROM blocks WHERE uid=?", []any{&pageID, &parentUID, &ord}, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Neighborhood{}, fmt.Errorf("%w: %s", graph.ErrNotFound, uid)
	}
	if err != nil {
		return graph.Neighborhood{}, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}

	var n graph.Neighborhood
	if parentUID != "" {
		err := s.queryRowContext(ctx, "SELECT text FROM blocks WHERE uid=?", []any{&n.ParentText}, parentUID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return graph.Neighborhood{}, fmt.Errorf("%w: %v", graph.ErrQuery, err)
		}
	}
	if n.ChildrenText, err = s.texts(ctx, "SELECT text FROM blocks WHERE page_id=? AND parent_uid=? ORDER BY ord", pageID, uid); err != nil {
		return graph.Neighborhood{}, err
	}
	if n.SiblingsText, err = s.texts(ctx, "SELECT text FROM blocks WHERE page_id=? AND parent_uid=? AND ord IN (?, ?) ORDER BY ord", pageID, parentUID, ord-1, ord+1); err != nil {
		return graph.Neighborhood{}, err
	}
	return n, nil
}

func (s *Store) texts(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.queryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("%w: %v", graph.ErrQuery, err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// SourceURL points at the block page served by the gallery itself.
func (s *Store) SourceURL(ctx context.Context, uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	var path string
	err := s.queryRowContext(ctx, "SELECT p.path FROM blocks b JOIN pages p ON p.id = b.page_id WHERE b.uid=?", []any{&path}, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", graph.ErrNotFound, uid)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}
	slog.Info("focus block", "uid", uid, "page", path)
	return "/blocks/" + url.PathEscape(uid), nil
}

type BlockRef struct {
	UID  string
	Text string
}

// BlockDetail is a block with its page and tree position, for the block page.
type BlockDetail struct {
	graph.Block
	PagePath string
	Markdown string
	Parent   *BlockRef
	Children []BlockRef
}

func (s *Store) BlockDetail(ctx context.Context, uid string) (BlockDetail, error) {
	block, err := s.Block(ctx, uid)
	if err != nil {
		return BlockDetail{}, err
	}
	d := BlockDetail{Block: block}
	var parentUID string
	var pageID int64
	err = s.queryRowContext(ctx,
		"SELECT p.path, b.markdown, b.parent_uid, b.page_id FROM blocks b JOIN pages p ON p.id = b.page_id WHERE b.uid=?",
		[]any{&d.PagePath, &d.Markdown, &parentUID, &pageID}, uid)
	if err != nil {
		return BlockDetail{}, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}
	if parentUID != "" {
		parent := BlockRef{UID: parentUID}
		err := s.queryRowContext(ctx, "SELECT text FROM blocks WHERE uid=?", []any{&parent.Text}, parentUID)
		if err == nil {
			d.Parent = &parent
		} else if !errors.Is(err, sql.ErrNoRows) {
			return BlockDetail{}, fmt.Errorf("%w: %v", graph.ErrQuery, err)
		}
	}
	rows, err := s.queryContext(ctx, "SELECT uid, text FROM blocks WHERE page_id=? AND parent_uid=? ORDER BY ord", pageID, uid)
	if err != nil {
		return BlockDetail{}, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref BlockRef
		if err := rows.Scan(&ref.UID, &ref.Text); err != nil {
			return BlockDetail{}, fmt.Errorf("%w: %v", graph.ErrQuery, err)
		}
		d.Children = append(d.Children, ref)
	}
	return d, rows.Err()
}
