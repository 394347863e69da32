// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/literature"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Retriever queries a literature index. *literature.Store implements it.
type Retriever interface {
	Retrieve(ctx context.Context, opts literature.QueryOptions) ([]literature.QueryResult, error)
}

// LiteratureBackend reads curated notes from the SQLite literature index.
// Each subject is looked up by its subject column and by full-text match on
// its name, so notes filed under one subject that mention another are found.
type LiteratureBackend struct {
	Index Retriever

	// Limit caps hits per subject per query. Zero uses the index default.
	Limit int
}

// Name returns the backend identifier.
func (b *LiteratureBackend) Name() string { return SourceLiterature }

// Research implements Backend.
func (b *LiteratureBackend) Research(ctx context.Context, s Subjects) ([]types.Finding, error) {
	var out []types.Finding
	for _, name := range s.All() {
		seen := make(map[string]bool)
		for _, opts := range []literature.QueryOptions{
			{Subject: name, MaxResults: b.Limit},
			{Query: name, MaxResults: b.Limit},
		} {
			results, err := b.Index.Retrieve(ctx, opts)
			if err != nil {
				return out, errors.Wrapf(err, "retrieving notes for %s", name)
			}
			for _, r := range results {
				if seen[r.ID] {
					continue
				}
				seen[r.ID] = true
				out = append(out, types.Finding{
					Subject: name,
					Source:  SourceLiterature,
					Title:   r.Title,
					Text:    r.Text,
					URL:     r.URL,
				})
			}
		}
	}
	return out, nil
}
