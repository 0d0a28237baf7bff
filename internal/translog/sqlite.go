package translog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed transcription history.
type Store struct {
	db    *sql.DB
	log   *slog.Logger
	clock func() time.Time
}

// Open creates the database file and schema if needed.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create translog dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(2000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init translog schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS transcriptions (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    text TEXT NOT NULL,
    words INTEGER NOT NULL,
    signal TEXT,
    mode TEXT,
    hint TEXT,
    delivered INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_created ON transcriptions(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts one entry; an existing ID is left untouched.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = s.clock()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcriptions(id, created_at, text, words, signal, mode, hint, delivered)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		e.ID, e.Time.UnixMilli(), e.Text, e.Words(), e.Signal, e.Mode, e.Hint, e.Delivered)
	if err != nil {
		return fmt.Errorf("insert transcription: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, text, signal, mode, hint, delivered
		 FROM transcriptions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
			signal  sql.NullString
			mode    sql.NullString
			hint    sql.NullString
		)
		if err := rows.Scan(&e.ID, &created, &e.Text, &signal, &mode, &hint, &e.Delivered); err != nil {
			return nil, err
		}
		e.Time = time.UnixMilli(created)
		e.Signal = signal.String
		e.Mode = mode.String
		e.Hint = hint.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// WordsSince sums word counts of entries at or after since.
func (s *Store) WordsSince(ctx context.Context, since time.Time) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(words) FROM transcriptions WHERE created_at >= ?`, since.UnixMilli()).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// WordsBetween sums word counts of entries in [from, to).
func (s *Store) WordsBetween(ctx context.Context, from time.Time, to time.Time) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(words) FROM transcriptions WHERE created_at >= ? AND created_at < ?`,
		from.UnixMilli(), to.UnixMilli()).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// Prune deletes entries older than retention. Zero retention keeps everything.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.clock().Add(-retention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM transcriptions WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune transcriptions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.log.Info("pruned transcription log", slog.Int64("rows", n), slog.Time("cutoff", cutoff))
	}
	return n, nil
}
