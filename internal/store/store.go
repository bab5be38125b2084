// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists retired document sessions: every evidence entry,
// every outcome event and the final selected record, with a full-text
// index over resolved titles.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/internal/session"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// ErrNotFound indicates no session has the requested ID.
var ErrNotFound = errors.New("session not found")

const defaultMaxResults = 20

// Store manages the session database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// SessionInfo is the one-line description of a stored session.
type SessionInfo struct {
	ID       string    `json:"id" yaml:"id"`
	Document string    `json:"document" yaml:"document"`
	Title    string    `json:"title" yaml:"title"`
	DOI      string    `json:"doi,omitempty" yaml:"doi,omitempty"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
	Verdict  string    `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Failures int       `json:"failures" yaml:"failures"`
}

// NewStore opens or creates the database at cfg.Path and creates the
// schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document TEXT,
			title TEXT,
			doi TEXT,
			started TEXT NOT NULL,
			finished TEXT NOT NULL,
			verdict TEXT,
			failures INTEGER NOT NULL DEFAULT 0,
			metadata TEXT NOT NULL,
			summary TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS fingerprints (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			fingerprint TEXT NOT NULL,
			PRIMARY KEY (session_id, fingerprint)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_fingerprint ON fingerprints(fingerprint)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			field TEXT NOT NULL,
			value TEXT,
			list TEXT,
			link TEXT,
			whence TEXT NOT NULL,
			weight INTEGER NOT NULL,
			recorded TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_field ON evidence(session_id, field)`,
		`CREATE TABLE IF NOT EXISTS retractions (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			field TEXT NOT NULL,
			whence TEXT NOT NULL,
			recorded TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			component TEXT NOT NULL,
			method TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT,
			PRIMARY KEY (session_id, ord)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over titles, kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sessions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sessions_fts USING fts5(title, content=sessions, content_rowid=rowid)`,
			`CREATE TRIGGER sessions_ai AFTER INSERT ON sessions BEGIN
				INSERT INTO sessions_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
			`CREATE TRIGGER sessions_ad AFTER DELETE ON sessions BEGIN
				INSERT INTO sessions_fts(sessions_fts, rowid, title) VALUES('delete', old.rowid, old.title);
			END`,
			`CREATE TRIGGER sessions_au AFTER UPDATE ON sessions BEGIN
				INSERT INTO sessions_fts(sessions_fts, rowid, title) VALUES('delete', old.rowid, old.title);
				INSERT INTO sessions_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save writes a finished session and the evidence behind it in one
// transaction. Saving the same session twice replaces the earlier copy.
func (s *Store) Save(ctx context.Context, res *session.Result, rec *evidence.Record) error {
	metadataJSON, err := json.Marshal(res.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	var (
		summaryJSON []byte
		verdict     string
		failures    int
	)
	if res.Summary != nil {
		if summaryJSON, err = json.Marshal(res.Summary); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		verdict, failures = string(res.Summary.Verdict), res.Summary.Failures
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, res.ID); err != nil {
		return fmt.Errorf("deleting previous copy: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, document, title, doi, started, finished, verdict, failures, metadata, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Document,
		res.Metadata.Fields[evidence.KeyTitle], res.Metadata.Identifiers[types.IDDOI],
		res.Started.UTC().Format(types.WhenLayout), res.Finished.UTC().Format(types.WhenLayout),
		verdict, failures, string(metadataJSON), nullable(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	for _, fp := range res.Fingerprints {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO fingerprints (session_id, fingerprint) VALUES (?, ?)`, res.ID, fp,
		); err != nil {
			return fmt.Errorf("inserting fingerprint: %w", err)
		}
	}

	if rec != nil {
		if err := insertEvidence(ctx, tx, res.ID, rec.Entries()); err != nil {
			return err
		}
		if err := insertRetractions(ctx, tx, res.ID, rec.Retractions()); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (session_id, ord, component, method, category, message) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range res.Events {
		if _, err := stmt.ExecContext(ctx, res.ID, i, e.Component, e.Method, string(e.Category), e.Message); err != nil {
			return fmt.Errorf("inserting event %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func insertEvidence(ctx context.Context, tx *sql.Tx, sessionID string, entries []types.Evidence) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO evidence (session_id, seq, field, value, list, link, whence, weight, recorded)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing evidence insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var listJSON, linkJSON []byte
		if e.List != nil {
			listJSON, _ = json.Marshal(e.List)
		}
		if e.Link != nil {
			linkJSON, _ = json.Marshal(e.Link)
		}
		_, err := stmt.ExecContext(ctx,
			sessionID, e.Seq, e.Key, e.Value, nullable(listJSON), nullable(linkJSON),
			e.Whence, e.Weight, e.WhenString(),
		)
		if err != nil {
			return fmt.Errorf("inserting evidence %s #%d: %w", e.Key, e.Seq, err)
		}
	}
	return nil
}

func insertRetractions(ctx context.Context, tx *sql.Tx, sessionID string, retractions []evidence.Retraction) error {
	for _, r := range retractions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO retractions (session_id, seq, field, whence, recorded) VALUES (?, ?, ?, ?, ?)`,
			sessionID, r.Seq, r.Key, r.Whence, r.When.UTC().Format(types.WhenLayout),
		); err != nil {
			return fmt.Errorf("inserting retraction %s #%d: %w", r.Key, r.Seq, err)
		}
	}
	return nil
}

func nullable(b []byte) sql.NullString {
	return sql.NullString{String: string(b), Valid: b != nil}
}

const sessionColumns = `s.id, s.document, s.title, s.doi, s.started, s.finished, s.verdict, s.failures`

// History returns the sessions recorded for a document fingerprint, most
// recent first.
func (s *Store) History(ctx context.Context, fingerprint string) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		FROM sessions s
		JOIN fingerprints f ON f.session_id = s.id
		WHERE f.fingerprint = ?
		ORDER BY s.started DESC
		LIMIT ?`, fingerprint, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// FindTitles runs an FTS5 query over resolved titles, best match first.
func (s *Store) FindTitles(ctx context.Context, query string) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		FROM sessions_fts
		JOIN sessions s ON s.rowid = sessions_fts.rowid
		WHERE sessions_fts MATCH ?
		ORDER BY sessions_fts.rank
		LIMIT ?`, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching titles: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]SessionInfo, error) {
	var out []SessionInfo
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSession reads the sessionColumns of one row, followed by any extra
// columns the query selected.
func scanSession(row scanner, extra ...any) (SessionInfo, error) {
	var (
		info                          SessionInfo
		document, title, doi, verdict sql.NullString
		started, finished             string
	)
	dest := append([]any{&info.ID, &document, &title, &doi, &started, &finished, &verdict, &info.Failures}, extra...)
	if err := row.Scan(dest...); err != nil {
		return SessionInfo{}, err
	}
	info.Document = document.String
	info.Title = title.String
	info.DOI = doi.String
	info.Verdict = verdict.String
	info.Started, _ = time.Parse(types.WhenLayout, started)
	info.Finished, _ = time.Parse(types.WhenLayout, finished)
	return info, nil
}
