// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package safety implements the safety assessment stage. It folds the
// protein, interaction, and kinetics outputs into four component risks, a
// weighted score in [0, 10], and a risk level, and derives regulatory
// compliance, HACCP control points, and prioritized recommendations.
package safety

import (
	"math"
	"sort"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Score bounds.
const (
	MaxScore = 10.0
	MinScore = 0.0
)

// Caps on the per-pair interaction risk terms.
const (
	maxAffinityRisk    = 5.0
	maxEnhancementRisk = 3.0
	maxStructureRisk   = 2.0
)

// stableScore is the stability score at or above which a protein adds no
// stability risk.
const stableScore = 7.0

// Catalog is the subset of the reference catalog the safety stage reads.
type Catalog interface {
	Limit(region, compound string) (types.RegulatoryLimit, bool)
}

// Inputs are the prior stage outputs the assessment consumes.
type Inputs struct {
	Proteins     []types.ProteinAnalysis
	Interactions types.InteractionBlock
	Kinetics     []types.KineticsAnalysis
}

// Output is the safety stage's detail block and metrics.
type Output struct {
	Assessment types.SafetyAssessment
	Result     types.StageResult
}

// Assess runs the safety assessment. It is deterministic: identical inputs
// yield identical scores, levels, and recommendations.
func Assess(sample types.FoodSample, in Inputs, cat Catalog, cfg types.SafetyConfig) Output {
	cfg = withDefaults(cfg)
	res := types.NewStageResult(types.StageSafety)

	compliance := Compliance(sample, cat, cfg)
	components := types.ComponentRisks{
		Interaction: InteractionRisk(in.Interactions.Pairs),
		Stability:   StabilityRisk(in.Proteins),
		Regulatory:  RegulatoryRisk(compliance),
		Kinetics:    KineticsRisk(in.Kinetics),
	}
	score, weighted := Score(components, cfg.Weights)
	level := Level(score, cfg.Thresholds)

	a := types.SafetyAssessment{
		Score:        score,
		RiskLevel:    level,
		Components:   components,
		WeightedRisk: weighted,
		Confidence:   Confidence(in.Interactions.Pairs, in.Proteins),
		Compliance:   compliance,
	}
	a.ControlPoints = ControlPoints(sample, compliance)
	a.Recommendations = Recommendations(sample, a, in.Kinetics)

	interactionDegraded := false
	for _, p := range in.Interactions.Pairs {
		interactionDegraded = interactionDegraded || p.Degraded
	}
	stabilityDegraded := false
	for _, p := range in.Proteins {
		stabilityDegraded = stabilityDegraded || !p.Found
	}
	kineticsDegraded := false
	for _, k := range in.Kinetics {
		kineticsDegraded = kineticsDegraded || k.Degraded
	}
	anyDegraded := interactionDegraded || stabilityDegraded || kineticsDegraded

	for _, e := range compliance.Entries {
		if e.Status == types.ComplianceNoLimit {
			res.Notef("no %s limit for %s; not assessed", compliance.Region, e.Compound)
		}
	}

	res.Set("safety_score", mark(types.Number(score), anyDegraded))
	res.Set("risk_level", mark(types.Label(string(level)), anyDegraded))
	res.Set("weighted_risk", mark(types.Number(weighted), anyDegraded))
	res.Set("interaction_risk", mark(types.Number(components.Interaction), interactionDegraded))
	res.Set("stability_risk", mark(types.Number(components.Stability), stabilityDegraded))
	res.Set("regulatory_risk", types.Number(components.Regulatory))
	res.Set("kinetics_risk", mark(types.Number(components.Kinetics), kineticsDegraded))
	res.Set("confidence", types.Number(a.Confidence))
	res.Set("compliance_status", types.Label(compliance.OverallStatus))
	res.Set("control_points", types.Number(float64(len(a.ControlPoints))))
	res.Set("recommendation_count", types.Number(float64(len(a.Recommendations))))

	return Output{Assessment: a, Result: res}
}

// InteractionRisk is the mean over pairs of the affinity, enhancement, and
// structural-change terms, each capped. No pairs carry no risk.
func InteractionRisk(pairs []types.InteractionAnalysis) float64 {
	if len(pairs) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pairs {
		affinity := math.Min(math.Abs(p.BindingAffinity)/2, maxAffinityRisk)
		enhancement := math.Min(p.ToxicityEnhancement-1, maxEnhancementRisk)
		structure := math.Min(p.StructuralChanges.Overall/10, maxStructureRisk)
		sum += affinity + math.Max(0, enhancement) + structure
	}
	return sum / float64(len(pairs))
}

// StabilityRisk is the mean over proteins of max(0, (7 - stability)/7 * 5).
func StabilityRisk(proteins []types.ProteinAnalysis) float64 {
	if len(proteins) == 0 {
		return 0
	}
	var sum float64
	for _, p := range proteins {
		sum += math.Max(0, (stableScore-p.Stability)/stableScore*5)
	}
	return sum / float64(len(proteins))
}

// RegulatoryRisk is violations / assessed * 5, or 0 when nothing was
// assessed against a limit.
func RegulatoryRisk(c types.ComplianceReport) float64 {
	assessed := 0
	for _, e := range c.Entries {
		if e.Status != types.ComplianceNoLimit {
			assessed++
		}
	}
	if assessed == 0 {
		return 0
	}
	return float64(c.Violations) / float64(assessed) * 5
}

// KineticsRisk is twice the mean residual enzyme activity after processing.
func KineticsRisk(kinetics []types.KineticsAnalysis) float64 {
	if len(kinetics) == 0 {
		return 0
	}
	var sum float64
	for _, k := range kinetics {
		sum += k.ResidualActivity
	}
	return 2 * sum / float64(len(kinetics))
}

// Score subtracts the weighted component sum from 10, clamps to [0, 10],
// and rounds to 0.01. It also returns the weighted sum.
func Score(c types.ComponentRisks, w types.ScoringWeights) (score, weighted float64) {
	weighted = w.Interaction*c.Interaction +
		w.Stability*c.Stability +
		w.Regulatory*c.Regulatory +
		w.Kinetics*c.Kinetics
	score = math.Max(MinScore, math.Min(MaxScore, MaxScore-weighted))
	return math.Round(score*100) / 100, weighted
}

// Level maps a score through thresholds, checked from the highest MinScore
// down. A score below every threshold is critical.
func Level(score float64, thresholds []types.RiskThreshold) types.RiskLevel {
	if len(thresholds) == 0 {
		thresholds = types.DefaultThresholds()
	}
	sorted := append([]types.RiskThreshold(nil), thresholds...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinScore > sorted[j].MinScore })
	for _, t := range sorted {
		if score >= t.MinScore {
			return t.Level
		}
	}
	return types.RiskCritical
}

// Confidence averages the mean pair confidence, the mean protein
// confidence, and the fraction of those two that were available.
func Confidence(pairs []types.InteractionAnalysis, proteins []types.ProteinAnalysis) float64 {
	var factors []float64
	if len(pairs) > 0 {
		var sum float64
		for _, p := range pairs {
			sum += p.Confidence
		}
		factors = append(factors, sum/float64(len(pairs)))
	}
	if len(proteins) > 0 {
		var sum float64
		for _, p := range proteins {
			sum += p.Confidence
		}
		factors = append(factors, sum/float64(len(proteins)))
	}
	factors = append(factors, float64(len(factors))/2)

	var sum float64
	for _, f := range factors {
		sum += f
	}
	return sum / float64(len(factors))
}

func withDefaults(cfg types.SafetyConfig) types.SafetyConfig {
	d := types.DefaultPipelineConfig().Safety
	if cfg.Weights == (types.ScoringWeights{}) {
		cfg.Weights = d.Weights
	}
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = d.Thresholds
	}
	if cfg.Region == "" {
		cfg.Region = d.Region
	}
	if cfg.WarningFraction <= 0 {
		cfg.WarningFraction = d.WarningFraction
	}
	return cfg
}

func mark(m types.Metric, degraded bool) types.Metric {
	if degraded {
		return m.AsDegraded()
	}
	return m
}
