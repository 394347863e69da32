// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research gathers context for the proteins and toxins named in a
// sample. Each source of context is a Backend; backends run one after the
// other and a failing backend never stops the stage.
package research

import (
	"context"
	"fmt"

	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Subjects are the normalized names a backend researches.
type Subjects struct {
	Proteins []string
	Toxins   []string
}

// All returns proteins then toxins.
func (s Subjects) All() []string {
	out := make([]string, 0, len(s.Proteins)+len(s.Toxins))
	out = append(out, s.Proteins...)
	return append(out, s.Toxins...)
}

// SubjectsOf returns the normalized protein and toxin names of a sample.
func SubjectsOf(sample types.FoodSample) Subjects {
	var s Subjects
	for _, p := range sample.Proteins {
		s.Proteins = append(s.Proteins, types.NormalizeName(p))
	}
	for _, t := range sample.SuspectedToxins {
		s.Toxins = append(s.Toxins, types.NormalizeName(t))
	}
	return s
}

// Backend is one source of research context (reference catalog, literature
// index, PubMed).
type Backend interface {
	Name() string
	Research(ctx context.Context, subjects Subjects) ([]types.Finding, error)
}

// Catalog is the subset of the reference catalog used to count profiled
// subjects.
type Catalog interface {
	Protein(name string) (types.ProteinRecord, bool)
	Toxin(name string) (types.ToxinProfile, bool)
}

// Output is the research stage's detail block and metrics.
type Output struct {
	Research types.ResearchOutput
	Result   types.StageResult
}

// Run queries backends in order. Findings are deduplicated by source,
// subject, and title. A backend error is recorded in Research.Errors and
// flags literature_count degraded; findings returned alongside the error
// are kept.
func Run(ctx context.Context, sample types.FoodSample, cat Catalog, backends []Backend) Output {
	res := types.NewStageResult(types.StageResearch)
	subjects := SubjectsOf(sample)
	out := types.ResearchOutput{Findings: []types.Finding{}, Sources: []string{}}

	seen := make(map[string]bool)
	failed := false
	for _, b := range backends {
		findings, err := b.Research(ctx, subjects)
		if err != nil {
			failed = true
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", b.Name(), err))
			res.Notef("backend %s failed after %d finding(s): %v", b.Name(), len(findings), err)
			logging.Logger.Warnw("research backend failed",
				logging.FieldBackend, b.Name(),
				"partial_findings", len(findings),
				logging.FieldError, err,
			)
		} else {
			out.Sources = append(out.Sources, b.Name())
		}
		for _, f := range findings {
			key := f.Source + "\x00" + f.Subject + "\x00" + f.Title
			if seen[key] {
				continue
			}
			seen[key] = true
			out.Findings = append(out.Findings, f)
		}
	}

	covered := make(map[string]bool)
	literature := 0
	for _, f := range out.Findings {
		covered[f.Subject] = true
		if f.Source != SourceCatalog {
			literature++
		}
	}

	toxins, missingToxin := profiled(subjects.Toxins, func(n string) bool { _, ok := cat.Toxin(n); return ok })
	proteins, missingProtein := profiled(subjects.Proteins, func(n string) bool { _, ok := cat.Protein(n); return ok })
	for _, n := range missingToxin {
		res.Notef("toxin %s not in reference tables", n)
	}
	for _, n := range missingProtein {
		res.Notef("protein %s not in reference tables", n)
	}

	all := subjects.All()
	coverage := 0.0
	if len(all) > 0 {
		hit := 0
		for _, n := range all {
			if covered[n] {
				hit++
			}
		}
		coverage = float64(hit) / float64(len(all))
	}

	res.Set("literature_count", mark(types.Number(float64(literature)), failed))
	res.Set("toxins_profiled", mark(types.Number(float64(toxins)), len(missingToxin) > 0))
	res.Set("proteins_profiled", mark(types.Number(float64(proteins)), len(missingProtein) > 0))
	res.Set("coverage", types.Number(coverage))

	return Output{Research: out, Result: res}
}

func profiled(names []string, known func(string) bool) (int, []string) {
	n := 0
	var missing []string
	for _, name := range names {
		if known(name) {
			n++
			continue
		}
		missing = append(missing, name)
	}
	return n, missing
}

func mark(m types.Metric, degraded bool) types.Metric {
	if degraded {
		return m.AsDegraded()
	}
	return m
}
