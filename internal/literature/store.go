// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package literature persists curated literature notes in SQLite and serves
// full-text lookups for the research stage.
package literature

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

const defaultMaxResults = 20

// Store manages the literature index SQLite database.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
}

// NewStore opens or creates the index at path. It creates the schema if it
// does not exist.
func NewStore(path string, maxResults int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating index directory")
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, path: path, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			subject TEXT NOT NULL,
			title TEXT,
			text TEXT NOT NULL,
			source TEXT,
			url TEXT,
			tags TEXT,
			digest TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_subject ON notes(subject)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "executing schema statement")
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='notes_fts'`,
	).Scan(&ftsExists); err != nil {
		return errors.Wrap(err, "checking FTS table")
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE notes_fts USING fts5(title, text, content=notes, content_rowid=rowid)`,
			`CREATE TRIGGER notes_ai AFTER INSERT ON notes BEGIN
				INSERT INTO notes_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
			END`,
			`CREATE TRIGGER notes_ad AFTER DELETE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
			END`,
			`CREATE TRIGGER notes_au AFTER UPDATE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
				INSERT INTO notes_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return errors.Wrap(err, "creating FTS infrastructure")
			}
		}
	}

	return nil
}

// IndexSummary holds counts from an indexing run.
type IndexSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of notes processed.
func (s IndexSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// HasFailures reports whether any note failed to index.
func (s IndexSummary) HasFailures() bool {
	return s.Failed > 0
}

// Index upserts notes in one transaction. Notes whose content digest is
// unchanged are skipped. Progress lines are written to w.
func (s *Store) Index(ctx context.Context, notes []types.LiteratureNote, w io.Writer) (IndexSummary, error) {
	var summary IndexSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	for _, note := range notes {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if note.ID == "" || strings.TrimSpace(note.Text) == "" {
			fmt.Fprintf(w, "failed  %q: id and text are required\n", note.ID)
			summary.Failed++
			continue
		}

		digest := noteDigest(note)
		var stored string
		err := tx.QueryRowContext(ctx, `SELECT digest FROM notes WHERE id = ?`, note.ID).Scan(&stored)
		switch {
		case err == nil && stored == digest:
			fmt.Fprintf(w, "skipped %s\n", note.ID)
			summary.Skipped++
			continue
		case err != nil && err != sql.ErrNoRows:
			fmt.Fprintf(w, "failed  %s: %v\n", note.ID, err)
			summary.Failed++
			continue
		}
		isUpdate := err == nil

		tagsJSON, _ := json.Marshal(note.Tags)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notes (id, subject, title, text, source, url, tags, digest)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				subject=excluded.subject, title=excluded.title, text=excluded.text,
				source=excluded.source, url=excluded.url, tags=excluded.tags,
				digest=excluded.digest`,
			note.ID, types.NormalizeName(note.Subject), note.Title, note.Text,
			note.Source, note.URL, string(tagsJSON), digest,
		)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", note.ID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", note.ID)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s\n", note.ID)
			summary.Indexed++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, errors.Wrap(err, "committing index")
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func noteDigest(n types.LiteratureNote) string {
	h := sha256.New()
	for _, part := range []string{n.Subject, n.Title, n.Text, n.Source, n.URL, strings.Join(n.Tags, ",")} {
		io.WriteString(h, part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
