// Package store handles SQLite persistence of spoken history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/blinktalk/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for sessions and utterances.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			threshold REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS utterances (
			id INTEGER PRIMARY KEY,
			session_id INTEGER NOT NULL,
			spoken_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_utterances_session ON utterances(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_utterances_spoken_at ON utterances(spoken_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// StartSession records the start of a live session and returns its id.
func (s *Store) StartSession(ctx context.Context, startedAt time.Time, threshold float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, threshold) VALUES (?, ?, ?)`,
		formatTime(startedAt), formatTime(startedAt), threshold)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return res.LastInsertId()
}

// EndSession stamps the end time and final threshold of a session.
func (s *Store) EndSession(ctx context.Context, id int64, endedAt time.Time, threshold float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, threshold = ? WHERE id = ?`,
		formatTime(endedAt), threshold, id)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %d not found", id)
	}
	return nil
}

// InsertUtterance appends one spoken word to a session.
func (s *Store) InsertUtterance(ctx context.Context, sessionID int64, u model.Utterance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO utterances (session_id, spoken_at, mode, text) VALUES (?, ?, ?, ?)`,
		sessionID, formatTime(u.SpokenAt), u.Mode.String(), u.Text)
	if err != nil {
		return fmt.Errorf("insert utterance: %w", err)
	}
	return nil
}

// InsertSession stores a completed session and its utterances in one transaction.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord, utterances []model.Utterance) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, threshold) VALUES (?, ?, ?)`,
		formatTime(rec.StartedAt), formatTime(rec.EndedAt), rec.Threshold)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(utterances) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO utterances (session_id, spoken_at, mode, text) VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, u := range utterances {
			if _, err = stmt.ExecContext(ctx, id, formatTime(u.SpokenAt), u.Mode.String(), u.Text); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func utteranceFilter(cfg model.HistoryConfig) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != nil {
		clauses = append(clauses, "mode = ?")
		args = append(args, cfg.Mode.String())
	}
	if cfg.Since != nil {
		clauses = append(clauses, "spoken_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	return strings.Join(clauses, " AND "), args
}

// ListSessions returns sessions in start order with their utterance counts.
// Last limits the result to the most recent sessions.
func (s *Store) ListSessions(ctx context.Context, cfg model.HistoryConfig) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "s.started_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	limit := -1
	if cfg.Last > 0 {
		limit = cfg.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, threshold, utterances FROM (
		SELECT s.id, s.started_at, s.ended_at, s.threshold, COUNT(u.id) AS utterances
		FROM sessions s
		LEFT JOIN utterances u ON u.session_id = s.id
		WHERE %s
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.id DESC
		LIMIT ?
	) ORDER BY started_at ASC, id ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.Threshold, &rec.Utterances); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListUtterances returns spoken words oldest first. Last keeps only the most recent.
func (s *Store) ListUtterances(ctx context.Context, cfg model.HistoryConfig) ([]model.Utterance, error) {
	where, args := utteranceFilter(cfg)
	limit := -1
	if cfg.Last > 0 {
		limit = cfg.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, spoken_at, mode, text FROM (
		SELECT id, spoken_at, mode, text FROM utterances
		WHERE %s
		ORDER BY spoken_at DESC, id DESC
		LIMIT ?
	) ORDER BY spoken_at ASC, id ASC`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Utterance
	for rows.Next() {
		var id int64
		var spokenAt, mode string
		var u model.Utterance
		if err := rows.Scan(&id, &spokenAt, &mode, &u.Text); err != nil {
			return nil, err
		}
		if u.SpokenAt, err = time.Parse(time.RFC3339Nano, spokenAt); err != nil {
			return nil, err
		}
		parsed, ok := model.ParseMode(mode)
		if !ok {
			return nil, fmt.Errorf("unknown mode %q in utterance %d", mode, id)
		}
		u.Mode = parsed
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// PhraseCounts aggregates how often each word was spoken, most frequent first.
func (s *Store) PhraseCounts(ctx context.Context, cfg model.HistoryConfig) ([]model.PhraseCount, error) {
	where, args := utteranceFilter(cfg)
	limit := -1
	if cfg.Top > 0 {
		limit = cfg.Top
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT mode, text, COUNT(*) AS n
		FROM utterances
		WHERE %s
		GROUP BY mode, text
		ORDER BY n DESC, text ASC, mode ASC
		LIMIT ?`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.PhraseCount
	for rows.Next() {
		var pc model.PhraseCount
		var mode string
		if err := rows.Scan(&mode, &pc.Text, &pc.Count); err != nil {
			return nil, err
		}
		parsed, ok := model.ParseMode(mode)
		if !ok {
			return nil, fmt.Errorf("unknown mode %q", mode)
		}
		pc.Mode = parsed
		result = append(result, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
