// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles the terminal SafetyReport of a run from the
// stage outputs and renders it as JSON, YAML, or a text summary.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/internal/narrative"
	"github.com/pdiddy/foodsafety-engine/internal/safety"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// criticalAffinity is the kcal/mol value below which a pair counts as a
// high-affinity interaction in the key findings.
const criticalAffinity = -7.0

// goodStability is the mean protein stability at or above which the
// proteins are reported as stable.
const goodStability = 7.0

// NextSteps close every report.
var NextSteps = []string{
	"Implement recommended safety protocols",
	"Monitor identified risk factors",
	"Schedule follow-up analysis as needed",
}

// Inputs are the stage outputs a report is assembled from. Stages holds the
// StageResult of every prior stage in execution order.
type Inputs struct {
	Research     types.ResearchOutput
	Proteins     []types.ProteinAnalysis
	Interactions types.InteractionBlock
	Kinetics     []types.KineticsAnalysis
	Safety       types.SafetyAssessment
	Stages       []types.StageResult
}

// Output is the reporting stage's detail block and metrics.
type Output struct {
	Report *types.SafetyReport
	Result types.StageResult
}

// Assemble builds the report for one run. A nil narrator or a narrator
// failure falls back to the template narrative and flags the narrative
// metric degraded; assembly itself never fails.
func Assemble(ctx context.Context, runID string, sample types.FoodSample, in Inputs, narrator narrative.Narrator, now time.Time) Output {
	res := types.NewStageResult(types.StageReporting)

	r := &types.SafetyReport{
		RunID:       runID,
		GeneratedAt: now.UTC(),
		SampleInfo: types.SampleInfo{
			ID:              sample.ID,
			Name:            sample.Name,
			Category:        sample.Category,
			Proteins:        append([]string(nil), sample.Proteins...),
			SuspectedToxins: append([]string{}, sample.SuspectedToxins...),
			Conditions:      sample.Conditions,
			Origin:          sample.Origin,
		},
		Stages: make(map[types.StageName]types.StageResult, len(types.Stages)),
		Details: types.ReportDetails{
			Research:     in.Research,
			Proteins:     in.Proteins,
			Interactions: in.Interactions,
			Kinetics:     in.Kinetics,
			Safety:       in.Safety,
		},
		Recommendations: in.Safety.Recommendations,
		ControlPoints:   in.Safety.ControlPoints,
		Compliance:      in.Safety.Compliance,
		NextSteps:       append([]string(nil), NextSteps...),
	}

	degraded := false
	for _, s := range in.Stages {
		MergeStage(r.Stages, s)
		degraded = degraded || s.Degraded
	}

	r.ExecutiveSummary = types.ExecutiveSummary{
		SafetyScore: in.Safety.Score,
		RiskLevel:   in.Safety.RiskLevel,
		KeyFindings: KeyFindings(in),
		Confidence:  in.Safety.Confidence,
		Degraded:    degraded,
	}

	text, used, err := narrate(ctx, narrator, r)
	if err != nil {
		logging.Logger.Warnw("narrator failed, using template",
			logging.FieldRunID, runID,
			"narrator", used,
			logging.FieldError, err,
		)
		res.Notef("narrator %s unavailable: %v; template narrative used", used, err)
		res.Set("narrative", types.Label(string(types.NarratorTemplate)).AsDegraded())
		r.ExecutiveSummary.Degraded = true
		text, _ = narrative.Template{}.Narrate(ctx, r)
	} else {
		res.Set("narrative", types.Label(used))
	}
	r.Narrative = text

	degradedStages := 0
	for _, s := range r.Stages {
		if s.Degraded {
			degradedStages++
		}
	}
	res.Set("key_findings", types.Number(float64(len(r.ExecutiveSummary.KeyFindings))))
	res.Set("recommendation_count", types.Number(float64(len(r.Recommendations))))
	res.Set("degraded_stages", types.Number(float64(degradedStages)))

	MergeStage(r.Stages, res)
	return Output{Report: r, Result: res}
}

func narrate(ctx context.Context, n narrative.Narrator, r *types.SafetyReport) (string, string, error) {
	if n == nil {
		n = narrative.Template{}
	}
	text, err := n.Narrate(ctx, r)
	return text, n.Name(), err
}

// MergeStage adds r to stages. An existing entry for the same stage keeps
// its metrics and notes; r's metrics are laid over them and its notes are
// appended. The stored value never aliases r.
func MergeStage(stages map[types.StageName]types.StageResult, r types.StageResult) {
	existing, ok := stages[r.Stage]
	if !ok {
		stages[r.Stage] = r.Clone()
		return
	}
	merged := existing.Clone()
	for name, m := range r.Clone().Metrics {
		merged.Set(name, m)
	}
	merged.Notes = append(merged.Notes, r.Notes...)
	merged.Degraded = merged.Degraded || r.Degraded
	stages[r.Stage] = merged
}

// KeyFindings derives the executive summary statements: the score band,
// protein stability, high-affinity interactions, and compliance.
func KeyFindings(in Inputs) []string {
	var out []string

	score := in.Safety.Score
	switch {
	case score >= 8:
		out = append(out, "Food sample demonstrates excellent safety profile")
	case score >= 6:
		out = append(out, "Food sample shows acceptable safety with minor concerns")
	case score >= 4:
		out = append(out, "Moderate safety concerns identified requiring attention")
	default:
		out = append(out, "Significant safety risks detected requiring immediate action")
	}

	if len(in.Proteins) > 0 {
		var sum float64
		for _, p := range in.Proteins {
			sum += p.Stability
		}
		avg := sum / float64(len(in.Proteins))
		if avg >= goodStability {
			out = append(out, fmt.Sprintf("Proteins demonstrate good stability (avg: %.1f/10)", avg))
		} else {
			out = append(out, fmt.Sprintf("Protein stability concerns detected (avg: %.1f/10)", avg))
		}
	}

	critical := 0
	for _, p := range in.Interactions.Pairs {
		if p.BindingAffinity < criticalAffinity {
			critical++
		}
	}
	if critical > 0 {
		out = append(out, fmt.Sprintf("%d high-affinity toxin interactions detected", critical))
	}
	if len(in.Interactions.Pairs) == 0 {
		out = append(out, "No suspected toxins screened")
	}

	c := in.Safety.Compliance
	switch {
	case c.OverallStatus == safety.FullyCompliant:
		out = append(out, "Fully compliant with regulatory standards")
	case c.Violations > 0:
		out = append(out, fmt.Sprintf("%d regulatory violations identified", c.Violations))
	case c.Warnings > 0:
		out = append(out, fmt.Sprintf("%d detected levels approach regulatory limits", c.Warnings))
	}
	return out
}
