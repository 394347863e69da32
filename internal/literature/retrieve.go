// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// QueryOptions holds parameters for literature queries.
type QueryOptions struct {
	// Query is free text matched against note titles and bodies.
	Query string

	// Subject filters by normalized protein or toxin name.
	Subject string

	// Tags filters by one or more tags with AND semantics.
	Tags []string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Subject == "" && len(q.Tags) == 0
}

// QueryResult is a LiteratureNote with its full-text rank.
type QueryResult struct {
	types.LiteratureNote
	Rank float64 `json:"rank" yaml:"rank"`
}

// Retrieve queries the index with optional full-text search and structured
// filters. Full-text results are ordered by relevance; structured-only
// results are ordered by subject and id.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		phrase = ftsPhrase(opts.Query)
		useFTS = phrase != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT n.id, n.subject, n.title, n.text, n.source, n.url, n.tags, notes_fts.rank
			FROM notes_fts
			JOIN notes n ON n.rowid = notes_fts.rowid
			WHERE notes_fts MATCH ?`)
		args = append(args, phrase)
	} else {
		qb.WriteString(
			`SELECT n.id, n.subject, n.title, n.text, n.source, n.url, n.tags, 0 AS rank
			FROM notes n
			WHERE 1=1`)
	}

	if opts.Subject != "" {
		qb.WriteString(` AND n.subject = ?`)
		args = append(args, types.NormalizeName(opts.Subject))
	}

	for _, tag := range opts.Tags {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(n.tags) WHERE value = ?)`)
		args = append(args, tag)
	}

	if useFTS {
		qb.WriteString(` ORDER BY notes_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY n.subject, n.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying literature index")
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr       QueryResult
			title    sql.NullString
			source   sql.NullString
			url      sql.NullString
			tagsJSON sql.NullString
		)
		if err := rows.Scan(&qr.ID, &qr.Subject, &title, &qr.Text, &source, &url, &tagsJSON, &qr.Rank); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		qr.Title = title.String
		qr.Source = source.String
		qr.URL = url.String
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &qr.Tags)
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}

// Count returns the number of indexed notes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "counting notes")
	}
	return n, nil
}

// ftsPhrase turns free text into an FTS5 phrase query. Underscores in
// normalized names become token boundaries and double quotes are dropped.
func ftsPhrase(q string) string {
	q = strings.NewReplacer(`"`, " ", "_", " ").Replace(q)
	q = strings.Join(strings.Fields(q), " ")
	if q == "" {
		return ""
	}
	return `"` + q + `"`
}
