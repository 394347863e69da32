// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes the index (or a filtered subset) to path as a YAML
// list of notes. The output can be re-imported as the literature section
// of a reference overlay.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions, path string) error {
	notes, err := s.exportNotes(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(notes)
	if err != nil {
		return errors.Wrap(err, "marshaling YAML")
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the index (or a filtered subset) to path as JSON.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions, path string) error {
	notes, err := s.exportNotes(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling JSON")
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportNotes(ctx context.Context, opts QueryOptions) ([]types.LiteratureNote, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying for export")
	}
	notes := make([]types.LiteratureNote, len(results))
	for i, r := range results {
		notes[i] = r.LiteratureNote
	}
	return notes, nil
}
