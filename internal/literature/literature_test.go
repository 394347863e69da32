// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "index", "literature.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleNotes() []types.LiteratureNote {
	return []types.LiteratureNote{
		{
			ID:      "afb1-albumin",
			Subject: "aflatoxin_b1",
			Title:   "Aflatoxin B1 binding to serum albumin",
			Text:    "The epoxide forms lysine adducts with serum albumin.",
			Source:  "curated",
			Tags:    []string{"aflatoxin", "albumin"},
		},
		{
			ID:      "afb1-milk",
			Subject: "Aflatoxin B1",
			Title:   "Carry-over into milk",
			Text:    "Pasteurization does not destroy aflatoxin M1 in milk.",
			Source:  "curated",
			Tags:    []string{"aflatoxin", "dairy", "heat"},
		},
		{
			ID:      "ota-heat",
			Subject: "ochratoxin_a",
			Title:   "Thermal stability of ochratoxin A",
			Text:    "Ochratoxin A is largely stable under baking.",
			Source:  "curated",
			URL:     "https://example.org/ota",
			Tags:    []string{"ochratoxin", "heat"},
		},
	}
}

func indexNotes(t *testing.T, s *Store, notes []types.LiteratureNote) IndexSummary {
	t.Helper()
	summary, err := s.Index(context.Background(), notes, io.Discard)
	require.NoError(t, err)
	return summary
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	s := testStore(t)
	_, err := os.Stat(s.Path())
	assert.NoError(t, err)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewStoreReopensExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "literature.db")
	s, err := NewStore(path, 0)
	require.NoError(t, err)
	indexNotes(t, s, sampleNotes())
	require.NoError(t, s.Close())

	s, err = NewStore(path, 0)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIndex(t *testing.T) {
	s := testStore(t)
	var out bytes.Buffer
	summary, err := s.Index(context.Background(), sampleNotes(), &out)
	require.NoError(t, err)

	assert.Equal(t, IndexSummary{Indexed: 3}, summary)
	assert.Equal(t, 3, summary.Total())
	assert.False(t, summary.HasFailures())
	assert.Contains(t, out.String(), "indexing afb1-milk")
	assert.Contains(t, out.String(), "indexed: 3, updated: 0, skipped: 0, failed: 0")
}

func TestIndexSkipsUnchangedAndUpdatesChanged(t *testing.T) {
	s := testStore(t)
	notes := sampleNotes()
	indexNotes(t, s, notes)

	notes[2].Text = "Ochratoxin A survives roasting."
	summary := indexNotes(t, s, notes)
	assert.Equal(t, IndexSummary{Updated: 1, Skipped: 2}, summary)

	results, err := s.Retrieve(context.Background(), QueryOptions{Query: "roasting"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ota-heat", results[0].ID)

	results, err = s.Retrieve(context.Background(), QueryOptions{Query: "baking"})
	require.NoError(t, err)
	assert.Empty(t, results, "old text is removed from the full-text index")
}

func TestIndexRejectsIncompleteNotes(t *testing.T) {
	s := testStore(t)
	var out bytes.Buffer
	summary, err := s.Index(context.Background(), []types.LiteratureNote{
		{ID: "", Text: "no id"},
		{ID: "blank", Text: "   "},
		sampleNotes()[0],
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, IndexSummary{Indexed: 1, Failed: 2}, summary)
	assert.True(t, summary.HasFailures())
	assert.Contains(t, out.String(), "id and text are required")
}

func TestIndexCanceled(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Index(ctx, sampleNotes(), io.Discard)
	assert.Error(t, err)
}

func TestIndexNormalizesSubject(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	results, err := s.Retrieve(context.Background(), QueryOptions{Subject: "aflatoxin_b1"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "afb1-albumin", results[0].ID)
	assert.Equal(t, "afb1-milk", results[1].ID)
	assert.Equal(t, "aflatoxin_b1", results[1].Subject)
}

func TestRetrieveFullText(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	results, err := s.Retrieve(context.Background(), QueryOptions{Query: "serum albumin"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "afb1-albumin", r.ID)
	assert.Equal(t, "curated", r.Source)
	assert.Equal(t, []string{"aflatoxin", "albumin"}, r.Tags)
}

func TestRetrieveNormalizedNameQuery(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	results, err := s.Retrieve(context.Background(), QueryOptions{Query: "ochratoxin_a"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ota-heat", results[0].ID)
	assert.Equal(t, "https://example.org/ota", results[0].URL)
}

func TestRetrieveQuotesAreSafe(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	_, err := s.Retrieve(context.Background(), QueryOptions{Query: `milk" OR "x`})
	assert.NoError(t, err)
}

func TestRetrieveByTag(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	results, err := s.Retrieve(context.Background(), QueryOptions{Tags: []string{"heat"}})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = s.Retrieve(context.Background(), QueryOptions{Tags: []string{"heat", "dairy"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "afb1-milk", results[0].ID)
}

func TestRetrieveCombined(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	results, err := s.Retrieve(context.Background(), QueryOptions{Query: "milk", Subject: "ochratoxin_a"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.Retrieve(context.Background(), QueryOptions{Query: "milk", Subject: "aflatoxin_b1"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRetrieveRespectsMaxResults(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	results, err := s.Retrieve(context.Background(), QueryOptions{Tags: []string{"aflatoxin"}, MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{}.IsEmpty())
	assert.True(t, QueryOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, QueryOptions{Query: "x"}.IsEmpty())
	assert.False(t, QueryOptions{Subject: "x"}.IsEmpty())
	assert.False(t, QueryOptions{Tags: []string{"x"}}.IsEmpty())
}

func TestFTSPhrase(t *testing.T) {
	assert.Equal(t, `"aflatoxin b1"`, ftsPhrase("aflatoxin_b1"))
	assert.Equal(t, `"a b"`, ftsPhrase(`  a "b" `))
	assert.Equal(t, "", ftsPhrase(` "" `))
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, s.ExportYAML(context.Background(), QueryOptions{}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var notes []types.LiteratureNote
	require.NoError(t, yaml.Unmarshal(data, &notes))
	require.Len(t, notes, 3)
	assert.Equal(t, "afb1-albumin", notes[0].ID)
}

func TestExportJSONFiltered(t *testing.T) {
	s := testStore(t)
	indexNotes(t, s, sampleNotes())

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, s.ExportJSON(context.Background(), QueryOptions{Subject: "ochratoxin_a"}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var notes []types.LiteratureNote
	require.NoError(t, json.Unmarshal(data, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "ota-heat", notes[0].ID)
}
