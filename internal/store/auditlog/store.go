package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Stage labels for audit entries.
const (
	StageEligibility = "eligibility"
	StageTone        = "tone"
	StageGenerative  = "generative"
)

// Entry is one operator-review event: an eligibility exclusion, a permissive
// income assumption, or a tone-policy hit.
type Entry struct {
	ID       int64  `json:"id"`
	TS       int64  `json:"ts"`
	UserID   string `json:"user_id"`
	Stage    string `json:"stage"`
	Subject  string `json:"subject"`
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Sink is the write side, injectable so tests can use a no-op.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// Store keeps the audit trail in a sidecar SQLite database, separate from the
// main store so compliance tooling can read it independently.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

var _ Sink = (*Store)(nil)

// Open creates or opens the audit database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit log: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		decision TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_log(user_id, ts);`
	_, err := s.db.Exec(schema)
	return err
}

// Append writes one entry. Failures are the caller's to log; the audit trail
// must never abort a pipeline run.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("audit log not initialized")
	}
	if entry.TS == 0 {
		entry.TS = time.Now().UnixMilli()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (ts, user_id, stage, subject, decision, reason) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.TS, strings.TrimSpace(entry.UserID), entry.Stage, entry.Subject, entry.Decision, entry.Reason)
	return err
}

// ListRecent returns the newest entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("audit log not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, user_id, stage, subject, decision, reason FROM audit_log ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TS, &e.UserID, &e.Stage, &e.Subject, &e.Decision, &e.Reason); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NopSink discards entries; used in tests.
type NopSink struct{}

func (NopSink) Append(context.Context, Entry) error { return nil }
