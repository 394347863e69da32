// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/interaction"
	"github.com/pdiddy/foodsafety-engine/internal/literature"
	"github.com/pdiddy/foodsafety-engine/internal/narrative"
	"github.com/pdiddy/foodsafety-engine/internal/protein"
	"github.com/pdiddy/foodsafety-engine/internal/reference"
	"github.com/pdiddy/foodsafety-engine/internal/research"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// NewDeps builds the collaborators selected by cfg: the reference catalog,
// the research backends (catalog, literature index when IndexPath is set,
// PubMed when enabled), the structure predictor, the docking tool, and the
// narrator. The returned close function releases the literature index.
func NewDeps(ctx context.Context, cfg types.PipelineConfig) (Deps, func() error, error) {
	noop := func() error { return nil }

	cat, err := reference.Load(cfg.Reference.Dir)
	if err != nil {
		return Deps{}, noop, errors.Wrap(err, "loading reference tables")
	}

	deps := Deps{
		Catalog:   cat,
		Backends:  []research.Backend{&research.CatalogBackend{Tables: cat, Region: cfg.Safety.Region}},
		Predictor: protein.NewPredictor(ctx, cfg.Protein),
		Docker:    interaction.NewDocker(ctx, cfg.Interaction),
		Narrator:  narrative.New(cfg.Narrative),
	}

	closeFn := noop
	if cfg.Reference.IndexPath != "" {
		store, err := literature.NewStore(cfg.Reference.IndexPath, 0)
		if err != nil {
			return Deps{}, noop, errors.Wrap(err, "opening literature index")
		}
		deps.Backends = append(deps.Backends, &research.LiteratureBackend{
			Index: store,
			Limit: cfg.Research.LiteratureLimit,
		})
		closeFn = store.Close
	}

	if cfg.Research.EnablePubMed {
		deps.Backends = append(deps.Backends, research.NewPubMedBackend(cfg.Research))
	}
	return deps, closeFn, nil
}
