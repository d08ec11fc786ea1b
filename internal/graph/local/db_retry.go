package local

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
)

// A busy or locked database is retried once after a short delay, as long as
// the busy timeout has not passed.

func (s *Store) execContextTx(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec tx", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		res, err := tx.ExecContext(ctx, query, args...)
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug("sql exec tx done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return res, err
		}
		if reason := s.stopRetry(ctx, start, attempt); reason != "" {
			slog.Debug("sql exec tx done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", reason)
			if reason == "context" {
				return nil, ctx.Err()
			}
			return nil, err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug("sql query done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return rows, err
		}
		if reason := s.stopRetry(ctx, start, attempt); reason != "" {
			slog.Debug("sql query done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", reason)
			if reason == "context" {
				return nil, ctx.Err()
			}
			return nil, err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryRowContext(ctx context.Context, query string, dest []any, args ...any) error {
	slog.Debug("sql query row", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...)
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug("sql query row done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return err
		}
		if reason := s.stopRetry(ctx, start, attempt); reason != "" {
			slog.Debug("sql query row done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", reason)
			if reason == "context" {
				return ctx.Err()
			}
			return err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) stopRetry(ctx context.Context, start time.Time, attempt int) string {
	switch {
	case attempt >= 1:
		return "max-retries"
	case s.busyTimeout <= 0:
		return "no-timeout"
	case ctx.Err() != nil:
		return "context"
	case time.Since(start) >= s.busyTimeout:
		return "timeout"
	}
	return ""
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

func (s *Store) beginTx(ctx context.Context, name string) (*sql.Tx, time.Time, error) {
	start := time.Now()
	slog.Debug("sql tx begin", "op", name)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("sql tx begin failed", "op", name, "err", err)
		return nil, start, err
	}
	return tx, start, nil
}

func (s *Store) commitTx(tx *sql.Tx, name string, start time.Time) error {
	if tx == nil {
		return sql.ErrTxDone
	}
	err := tx.Commit()
	slog.Debug("sql tx commit", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
	return err
}

func (s *Store) rollbackTx(tx *sql.Tx, name string, start time.Time) {
	if tx == nil {
		return
	}
	err := tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return
	}
	if err != nil {
		slog.Warn("sql tx rollback failed", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return
	}
	slog.Debug("sql tx rollback", "op", name, "duration_ms", time.Since(start).Milliseconds())
}

func isSQLiteBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}
