package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

// SQLite is the embedded-database driver behind the same repository and
// ledger ports as the JSON store. Records go in as JSON payloads; the
// bounded-history rule is enforced on every append.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password TEXT NOT NULL,
			token TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id TEXT PRIMARY KEY,
			documents_analyzed INTEGER NOT NULL DEFAULT 0,
			reports_generated INTEGER NOT NULL DEFAULT 0,
			last_analysis TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_user ON analysis_history(user_id, seq DESC)`,
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// DB exposes the handle for the health checker.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

//
// ==== users.Repository ====
//

func (s *SQLite) Save(ctx context.Context, u *users.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			password = excluded.password,
			token = excluded.token`,
		string(u.ID), u.Email, u.Name, u.PasswordHash, u.Token,
		u.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLite) Get(ctx context.Context, id users.UserID) (*users.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password, token, created_at FROM users WHERE id = ?`, string(id)))
}

func (s *SQLite) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password, token, created_at FROM users WHERE email = ?`, email))
}

func (s *SQLite) FindByToken(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, users.ErrNotFound
	}
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password, token, created_at FROM users WHERE token = ?`, token))
}

func (s *SQLite) scanUser(row *sql.Row) (*users.User, error) {
	var u users.User
	var id, createdAt string
	var token sql.NullString
	err := row.Scan(&id, &u.Email, &u.Name, &u.PasswordHash, &token, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.ID = users.UserID(id)
	u.Token = token.String
	if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		u.CreatedAt = t
	}
	return &u, nil
}

//
// ==== analysis.Ledger ====
//

func (s *SQLite) Init(ctx context.Context, id users.UserID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_stats (user_id) VALUES (?)`, string(id))
	return err
}

func (s *SQLite) Append(ctx context.Context, id users.UserID, rec analysis.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO analysis_history (id, user_id, payload) VALUES (?, ?, ?)`,
		rec.ID, string(id), string(payload)); err != nil {
		return err
	}
	// Evict beyond the history cap, oldest first.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM analysis_history
		WHERE user_id = ? AND seq NOT IN (
			SELECT seq FROM analysis_history WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		)`, string(id), string(id), analysis.HistoryLimit); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, documents_analyzed, reports_generated, last_analysis)
		VALUES (?, 1, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			documents_analyzed = documents_analyzed + 1,
			reports_generated = reports_generated + 1,
			last_analysis = excluded.last_analysis`,
		string(id), rec.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) Record(ctx context.Context, id users.UserID, recordID string) (*analysis.Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM analysis_history WHERE user_id = ? AND id = ?`,
		string(id), recordID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, analysis.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(payload)
}

func (s *SQLite) DeleteRecord(ctx context.Context, id users.UserID, recordID string) (*analysis.Record, error) {
	rec, err := s.Record(ctx, id, recordID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_history WHERE user_id = ? AND id = ?`,
		string(id), recordID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLite) History(ctx context.Context, id users.UserID) ([]analysis.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM analysis_history WHERE user_id = ? ORDER BY seq DESC`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []analysis.Record{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		history = append(history, *rec)
	}
	return history, rows.Err()
}

func (s *SQLite) Stats(ctx context.Context, id users.UserID) (*analysis.Stats, error) {
	st := &analysis.Stats{}
	var last sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT documents_analyzed, reports_generated, last_analysis
		FROM user_stats WHERE user_id = ?`, string(id)).
		Scan(&st.DocumentsAnalyzed, &st.ReportsGenerated, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if last.Valid {
		if t, perr := time.Parse(time.RFC3339Nano, last.String); perr == nil {
			st.LastAnalysis = &t
		}
	}
	st.AnalysisHistory, err = s.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func decodeRecord(payload string) (*analysis.Record, error) {
	var rec analysis.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decode history payload: %w", err)
	}
	return &rec, nil
}
