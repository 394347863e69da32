// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package protein implements the protein analysis stage: structure
// prediction through an external predictor and coarse physicochemical
// properties under the sample's processing conditions.
package protein

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Defaults applied when a protein or its prediction is unavailable.
const (
	DefaultMolecularWeight  = 50000.0
	DefaultIsoelectricPoint = 7.0
	DefaultConfidence       = 0.5
)

// PredictorDefault labels a confidence that did not come from a predictor.
const PredictorDefault = "default"

// Catalog is the subset of the reference catalog the protein stage reads.
type Catalog interface {
	Protein(name string) (types.ProteinRecord, bool)
}

// Output is the protein stage's detail block and metrics.
type Output struct {
	Analyses []types.ProteinAnalysis
	Result   types.StageResult
}

// Analyze evaluates every protein in the sample in order. pred may be nil,
// in which case every confidence is the documented default and degraded.
// Missing proteins and predictor failures never abort the stage.
func Analyze(ctx context.Context, sample types.FoodSample, cat Catalog, pred Predictor, cfg types.ProteinConfig) Output {
	res := types.NewStageResult(types.StageProtein)
	out := Output{}

	maxLen := cfg.MaxSequenceLength
	if maxLen <= 0 {
		maxLen = types.DefaultPipelineConfig().Protein.MaxSequenceLength
	}

	for _, raw := range sample.Proteins {
		name := types.NormalizeName(raw)
		a := analyzeOne(ctx, name, sample.Conditions, cat, pred, maxLen)
		for _, n := range a.Notes {
			res.Notef("%s: %s", name, n)
		}
		setProteinMetrics(&res, a)
		out.Analyses = append(out.Analyses, a)
	}

	var stability, confidence float64
	stabilityDegraded, confidenceDegraded := false, false
	for _, a := range out.Analyses {
		stability += a.Stability
		confidence += a.Confidence
		stabilityDegraded = stabilityDegraded || !a.Found
		confidenceDegraded = confidenceDegraded || a.Predictor == PredictorDefault
	}
	n := float64(len(out.Analyses))
	res.Set("protein_count", types.Number(n))
	if n > 0 {
		res.Set("mean_stability", mark(types.Number(stability/n), stabilityDegraded))
		res.Set("mean_confidence", mark(types.Number(confidence/n), confidenceDegraded))
	}

	out.Result = res
	return out
}

func analyzeOne(ctx context.Context, name string, c types.ProcessingConditions, cat Catalog, pred Predictor, maxLen int) types.ProteinAnalysis {
	a := types.ProteinAnalysis{
		Name:       name,
		Confidence: DefaultConfidence,
		Predictor:  PredictorDefault,
	}

	rec, found := cat.Protein(name)
	seq := CleanSequence(rec.Sequence)
	a.Found = found
	a.Category = rec.Category

	switch {
	case rec.MolecularWeight > 0:
		a.MolecularWeight = rec.MolecularWeight
	case seq != "":
		a.MolecularWeight = MolecularWeight(seq)
	default:
		a.MolecularWeight = DefaultMolecularWeight
	}
	switch {
	case rec.IsoelectricPoint > 0:
		a.IsoelectricPoint = rec.IsoelectricPoint
	case seq != "":
		a.IsoelectricPoint = IsoelectricPoint(seq)
	default:
		a.IsoelectricPoint = DefaultIsoelectricPoint
	}

	if !found {
		a.Degraded = true
		a.Notes = append(a.Notes, "not in reference tables; using default molecular weight and pI")
	}

	a.Hydrophobicity = Hydrophobicity(seq)
	a.Stability = Stability(seq, c)
	a.SecondaryStructure = SecondaryStructure(seq)
	a.ProcessingSensitivity = ProcessingSensitivity(seq, c)

	switch {
	case pred == nil:
		a.Degraded = true
		a.Notes = append(a.Notes, "no structure predictor configured; using default confidence")
	case seq == "":
		a.Degraded = true
		a.Notes = append(a.Notes, "no sequence; structure prediction skipped")
	case len(seq) > maxLen:
		a.Degraded = true
		a.Notes = append(a.Notes, "sequence longer than predictor limit; structure prediction skipped")
	default:
		s, err := pred.Predict(ctx, name, seq)
		if err != nil {
			a.Degraded = true
			reason := "structure prediction failed"
			if errors.Is(err, types.ErrToolUnavailable) {
				reason = "structure predictor unavailable"
			}
			a.Notes = append(a.Notes, reason+": "+err.Error())
			logging.Logger.Warnw(reason, "protein", name, "predictor", pred.Name(), "error", err)
			break
		}
		a.Confidence = s.Confidence
		a.Predictor = pred.Name()
	}

	return a
}

func setProteinMetrics(res *types.StageResult, a types.ProteinAnalysis) {
	p := a.Name + "."
	res.Set(p+"confidence", mark(types.Number(a.Confidence), a.Predictor == PredictorDefault))
	res.Set(p+"molecular_weight", mark(types.Number(a.MolecularWeight), !a.Found))
	res.Set(p+"isoelectric_point", mark(types.Number(a.IsoelectricPoint), !a.Found))
	res.Set(p+"hydrophobicity", mark(types.Number(a.Hydrophobicity), !a.Found))
	res.Set(p+"stability", mark(types.Number(a.Stability), !a.Found))
}

func mark(m types.Metric, degraded bool) types.Metric {
	if degraded {
		return m.AsDegraded()
	}
	return m
}
