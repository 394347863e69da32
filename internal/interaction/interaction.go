// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package interaction implements the interaction stage: a binding-affinity
// estimate and a qualitative interaction class for every (protein, toxin)
// pair in a sample.
package interaction

import (
	"context"
	"fmt"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Block statuses.
const (
	StatusAnalyzed = "analyzed"
	StatusNoToxins = "no_toxins_screened"
)

// defaultStability stands in for a protein the protein stage did not report.
const defaultStability = 5.0

// Evidence sources, strongest first.
const (
	SourceDocking   = "docking"
	SourceKnown     = "known"
	SourceEstimated = "estimated"
	SourceDefault   = "default"
)

// DefaultAffinity is used for a toxin missing from the reference tables.
const DefaultAffinity = -5.0

// Confidence assigned to each non-docking source.
const (
	knownConfidence     = 0.9
	estimatedConfidence = 0.6
	defaultConfidence   = 0.5
	missingConfidence   = 0.3
)

// Catalog is the subset of the reference catalog the interaction stage reads.
type Catalog interface {
	Protein(name string) (types.ProteinRecord, bool)
	Toxin(name string) (types.ToxinProfile, bool)
	KnownInteraction(protein, toxin string) (types.KnownInteraction, bool)
	BindingSites(protein string) []types.BindingSite
}

// Output is the interaction stage's detail block and metrics.
type Output struct {
	Block  types.InteractionBlock
	Result types.StageResult
}

// Analyze evaluates every protein-toxin pair in sample order, proteins
// outer. proteins are the protein stage's analyses and supply stability,
// size, and charge. docker may be nil. A sample without suspected toxins
// yields a block populated with defaults.
func Analyze(ctx context.Context, sample types.FoodSample, proteins []types.ProteinAnalysis, cat Catalog, docker Docker, cfg types.InteractionConfig) Output {
	res := types.NewStageResult(types.StageInteraction)

	if len(sample.SuspectedToxins) == 0 {
		res.Set("status", types.Label(StatusNoToxins))
		res.Set("interaction_count", types.Number(0))
		res.Set("max_risk", types.Number(0))
		res.Set("high_risk_pairs", types.Number(0))
		return Output{
			Block:  types.InteractionBlock{Status: StatusNoToxins, Pairs: []types.InteractionAnalysis{}},
			Result: res,
		}
	}

	byName := make(map[string]types.ProteinAnalysis, len(proteins))
	for _, p := range proteins {
		byName[p.Name] = p
	}

	block := types.InteractionBlock{Status: StatusAnalyzed}
	for _, rawProtein := range sample.Proteins {
		pname := types.NormalizeName(rawProtein)
		pa, ok := byName[pname]
		if !ok {
			pa = types.ProteinAnalysis{Name: pname, Stability: defaultStability, MolecularWeight: 50000, IsoelectricPoint: 7}
		}
		for _, rawToxin := range sample.SuspectedToxins {
			ia, notes := analyzePair(ctx, pa, types.NormalizeName(rawToxin), sample.Conditions, cat, docker, cfg)
			for _, n := range notes {
				res.Notef("%s:%s: %s", ia.Protein, ia.Toxin, n)
			}
			block.Pairs = append(block.Pairs, ia)
		}
	}

	strongest := math.Inf(1)
	var (
		confidence  float64
		highRisk    int
		anyDegraded bool
	)
	for _, ia := range block.Pairs {
		key := ia.Protein + ":" + ia.Toxin
		res.Set(key+".binding_affinity", mark(types.Number(ia.BindingAffinity), ia.Degraded))
		res.Set(key+".interaction_class", mark(types.Label(ia.InteractionClass), ia.Degraded))
		res.Set(key+".risk_score", mark(types.Number(ia.RiskScore), ia.Degraded))

		if ia.RiskScore > block.MaxRisk {
			block.MaxRisk = ia.RiskScore
		}
		if ia.BindingAffinity < strongest {
			strongest = ia.BindingAffinity
			block.Strongest = key
		}
		if ia.RiskLevel == "high" {
			highRisk++
		}
		confidence += ia.Confidence
		anyDegraded = anyDegraded || ia.Degraded
	}

	n := float64(len(block.Pairs))
	res.Set("status", types.Label(StatusAnalyzed))
	res.Set("interaction_count", types.Number(n))
	res.Set("max_risk", mark(types.Number(block.MaxRisk), anyDegraded))
	res.Set("high_risk_pairs", types.Number(float64(highRisk)))
	res.Set("strongest_affinity", mark(types.Number(strongest), anyDegraded))
	res.Set("mean_confidence", mark(types.Number(confidence/n), anyDegraded))

	return Output{Block: block, Result: res}
}

func analyzePair(ctx context.Context, p types.ProteinAnalysis, toxin string, c types.ProcessingConditions, cat Catalog, docker Docker, cfg types.InteractionConfig) (types.InteractionAnalysis, []string) {
	var notes []string
	ia := types.InteractionAnalysis{
		Protein:              p.Name,
		Toxin:                toxin,
		EnvironmentalEffects: EnvironmentalEffects(c),
	}

	vulnerability := ProteinVulnerability(p)
	profile, found := cat.Toxin(toxin)
	potency := ToxinPotency(profile.LD50)
	ia.RiskScore = (potency + vulnerability) / 2
	ia.RiskLevel = RiskLabel(ia.RiskScore)

	contact := ""
	switch {
	case !found:
		ia.BindingAffinity = DefaultAffinity
		ia.InteractionClass = ClassUnknown
		ia.Source = SourceDefault
		ia.Confidence = missingConfidence
		ia.Degraded = true
		notes = append(notes, "toxin not in reference tables; using default affinity")
	default:
		var (
			docked bool
			note   string
		)
		if docker != nil {
			contact, docked, note = dockPair(ctx, &ia, p, profile, c, cat, docker)
			if note != "" {
				notes = append(notes, note)
			}
		}
		if !docked {
			contact, note = fallback(&ia, p, profile, cat)
			if note != "" {
				notes = append(notes, note)
			}
		}
	}

	if ia.InteractionClass == "" {
		ia.InteractionClass = Classify(ia.BindingAffinity, contact, cfg)
	}
	ia.StructuralChanges = StructuralChangesFor(ia.BindingAffinity, p.Stability, c)
	ia.ToxicityEnhancement = ToxicityEnhancement(ia.BindingAffinity, profile.LD50)
	return ia, notes
}

// dockPair fills ia from the best docking pose. It returns the pose's
// contact type, whether docking succeeded, and a note on failure.
func dockPair(ctx context.Context, ia *types.InteractionAnalysis, p types.ProteinAnalysis, toxin types.ToxinProfile, c types.ProcessingConditions, cat Catalog, docker Docker) (string, bool, string) {
	rec, _ := cat.Protein(p.Name)
	poses, err := docker.Dock(ctx, DockRequest{
		Protein:    p.Name,
		Sequence:   rec.Sequence,
		Toxin:      ia.Toxin,
		SMILES:     toxin.SMILES,
		Conditions: c,
	})
	if err != nil {
		reason := "docking failed"
		if errors.Is(err, types.ErrToolUnavailable) {
			reason = "docking tool unavailable"
		}
		logging.Logger.Warnw(reason, "protein", p.Name, "toxin", ia.Toxin, "error", err)
		return "", false, fmt.Sprintf("%s: %v", reason, err)
	}
	if len(poses) == 0 {
		return "", false, "docking returned no poses"
	}

	best := poses[0]
	for _, pose := range poses[1:] {
		if pose.Affinity < best.Affinity {
			best = pose
		}
	}
	ia.BindingAffinity = best.Affinity
	ia.BindingSite = best.Site
	ia.Source = SourceDocking
	ia.Confidence = DockingConfidence(poses, best.Affinity)
	return best.Type, true, ""
}

// fallback fills ia from the known-interaction table, then the binding-site
// table, then the pair risk. It returns the contact type to classify with
// and a note when the result is an estimate.
func fallback(ia *types.InteractionAnalysis, p types.ProteinAnalysis, toxin types.ToxinProfile, cat Catalog) (string, string) {
	if known, ok := cat.KnownInteraction(p.Name, ia.Toxin); ok {
		ia.BindingAffinity = known.BindingAffinity
		ia.BindingSite = known.BindingSite
		ia.Reference = known.Reference
		ia.Source = SourceKnown
		ia.Confidence = knownConfidence
		return known.InteractionType, ""
	}

	ia.Degraded = true
	if sites := cat.BindingSites(p.Name); len(sites) > 0 {
		best := sites[0]
		bestAffinity := SiteAffinity(best, toxin)
		for _, s := range sites[1:] {
			if a := SiteAffinity(s, toxin); a < bestAffinity {
				best, bestAffinity = s, a
			}
		}
		ia.BindingAffinity = bestAffinity
		ia.BindingSite = fmt.Sprintf("%s pocket %v", best.Type, best.Residues)
		ia.Source = SourceEstimated
		ia.Confidence = estimatedConfidence
		return best.Type, "no docking result; affinity estimated from binding-site table"
	}

	ia.BindingAffinity = EstimatedAffinity(ia.RiskScore)
	ia.Source = SourceDefault
	ia.Confidence = defaultConfidence
	return "", "no docking result or binding sites; affinity estimated from pair risk"
}

func mark(m types.Metric, degraded bool) types.Metric {
	if degraded {
		return m.AsDegraded()
	}
	return m
}
