// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/foodsafety-engine/internal/safety"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

type failingNarrator struct{}

func (failingNarrator) Name() string { return "openai" }

func (failingNarrator) Narrate(context.Context, *types.SafetyReport) (string, error) {
	return "", errors.Mark(errors.New("connection refused"), types.ErrToolUnavailable)
}

type fixedNarrator struct{ text string }

func (fixedNarrator) Name() string { return "fixed" }

func (f fixedNarrator) Narrate(context.Context, *types.SafetyReport) (string, error) {
	return f.text, nil
}

var generated = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sample() types.FoodSample {
	return types.FoodSample{
		ID: "DM-001", Name: "Fresh Dairy Milk", Category: "dairy",
		Proteins:        []string{"casein"},
		SuspectedToxins: []string{"aflatoxin_b1"},
		Conditions:      types.ProcessingConditions{Temperature: 72, PH: 6.5, IonicStrength: 0.15},
	}
}

func stage(name types.StageName, metric string, v float64, degraded bool) types.StageResult {
	r := types.NewStageResult(name)
	m := types.Number(v)
	if degraded {
		m = m.AsDegraded()
	}
	r.Set(metric, m)
	return r
}

func inputs(degraded bool) Inputs {
	return Inputs{
		Proteins: []types.ProteinAnalysis{{Name: "casein", Found: true, Stability: 6.0}},
		Interactions: types.InteractionBlock{
			Status: "analyzed",
			Pairs: []types.InteractionAnalysis{
				{Protein: "casein", Toxin: "aflatoxin_b1", BindingAffinity: -7.2, InteractionClass: "strong_hydrophobic_binding"},
			},
		},
		Safety: types.SafetyAssessment{
			Score:      5.5,
			RiskLevel:  types.RiskModerate,
			Confidence: 0.75,
			Compliance: types.ComplianceReport{Region: "eu_efsa", OverallStatus: safety.FullyCompliant},
			Recommendations: []types.Recommendation{
				{Priority: types.PriorityMedium, Category: "Monitoring & Testing", Action: "Establish a routine toxin monitoring program"},
			},
			ControlPoints: []types.ControlPoint{{ID: "CCP-1", Hazard: "Pathogen survival", Status: "compliant"}},
		},
		Stages: []types.StageResult{
			stage(types.StageResearch, "coverage", 1, false),
			stage(types.StageProtein, "mean_stability", 6, degraded),
			stage(types.StageSafety, "safety_score", 5.5, false),
		},
	}
}

func TestAssemble(t *testing.T) {
	out := Assemble(context.Background(), "run-1", sample(), inputs(false), fixedNarrator{text: "All good."}, generated)
	r := out.Report

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, generated, r.GeneratedAt)
	assert.Equal(t, "DM-001", r.SampleInfo.ID)
	assert.Equal(t, []string{"aflatoxin_b1"}, r.SampleInfo.SuspectedToxins)
	assert.Equal(t, 5.5, r.ExecutiveSummary.SafetyScore)
	assert.Equal(t, types.RiskModerate, r.ExecutiveSummary.RiskLevel)
	assert.Equal(t, 0.75, r.ExecutiveSummary.Confidence)
	assert.False(t, r.ExecutiveSummary.Degraded)
	assert.Equal(t, "All good.", r.Narrative)
	assert.Equal(t, NextSteps, r.NextSteps)
	assert.Len(t, r.Recommendations, 1)
	assert.Len(t, r.ControlPoints, 1)
	assert.Equal(t, safety.FullyCompliant, r.Compliance.OverallStatus)

	require.Len(t, r.Stages, 4)
	rep := r.Stages[types.StageReporting]
	assert.Equal(t, "fixed", rep.Metrics["narrative"].Label)
	assert.False(t, rep.Degraded)
	v, _ := rep.Metrics["key_findings"].Float()
	assert.Equal(t, float64(len(r.ExecutiveSummary.KeyFindings)), v)
	assert.Equal(t, out.Result.Stage, types.StageReporting)
}

func TestAssembleDegradedStagePropagates(t *testing.T) {
	out := Assemble(context.Background(), "run-1", sample(), inputs(true), fixedNarrator{text: "x"}, generated)
	assert.True(t, out.Report.ExecutiveSummary.Degraded)
	v, _ := out.Result.Metrics["degraded_stages"].Float()
	assert.Equal(t, 1.0, v)
}

func TestAssembleNarratorFailureFallsBack(t *testing.T) {
	out := Assemble(context.Background(), "run-1", sample(), inputs(false), failingNarrator{}, generated)

	m := out.Result.Metrics["narrative"]
	assert.Equal(t, "template", m.Label)
	assert.True(t, m.Degraded)
	assert.True(t, out.Result.Degraded)
	require.Len(t, out.Result.Notes, 1)
	assert.Contains(t, out.Result.Notes[0], "narrator openai unavailable")
	assert.True(t, out.Report.ExecutiveSummary.Degraded)
	assert.Contains(t, out.Report.Narrative, "OVERALL ASSESSMENT: MODERATE RISK")
}

func TestAssembleNilNarratorUsesTemplate(t *testing.T) {
	out := Assemble(context.Background(), "run-1", sample(), inputs(false), nil, generated)
	assert.Equal(t, "template", out.Result.Metrics["narrative"].Label)
	assert.False(t, out.Result.Metrics["narrative"].Degraded)
	assert.Contains(t, out.Report.Narrative, "Fresh Dairy Milk")
}

func TestMergeStage(t *testing.T) {
	stages := map[types.StageName]types.StageResult{}

	first := stage(types.StageProtein, "a", 1, false)
	first.Notef("first")
	MergeStage(stages, first)

	second := stage(types.StageProtein, "b", 2, true)
	second.Notef("second")
	MergeStage(stages, second)

	got := stages[types.StageProtein]
	assert.Len(t, got.Metrics, 2)
	assert.True(t, got.Degraded)
	assert.Equal(t, []string{"first", "second"}, got.Notes)

	// The stored copy does not alias the input.
	*first.Metrics["a"].Value = 99
	v, _ := stages[types.StageProtein].Metrics["a"].Float()
	assert.Equal(t, 1.0, v)
}

func TestKeyFindings(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want []string
	}{
		{
			name: "excellent and compliant",
			in: Inputs{
				Proteins: []types.ProteinAnalysis{{Stability: 8}, {Stability: 7}},
				Safety:   types.SafetyAssessment{Score: 8.5, Compliance: types.ComplianceReport{OverallStatus: safety.FullyCompliant}},
				Interactions: types.InteractionBlock{Pairs: []types.InteractionAnalysis{
					{BindingAffinity: -5},
				}},
			},
			want: []string{
				"Food sample demonstrates excellent safety profile",
				"Proteins demonstrate good stability (avg: 7.5/10)",
				"Fully compliant with regulatory standards",
			},
		},
		{
			name: "critical with violations",
			in: Inputs{
				Proteins: []types.ProteinAnalysis{{Stability: 3}},
				Safety:   types.SafetyAssessment{Score: 1.2, Compliance: types.ComplianceReport{OverallStatus: safety.NonCompliant, Violations: 2}},
				Interactions: types.InteractionBlock{Pairs: []types.InteractionAnalysis{
					{BindingAffinity: -8}, {BindingAffinity: -7.5}, {BindingAffinity: -7},
				}},
			},
			want: []string{
				"Significant safety risks detected requiring immediate action",
				"Protein stability concerns detected (avg: 3.0/10)",
				"2 high-affinity toxin interactions detected",
				"2 regulatory violations identified",
			},
		},
		{
			name: "acceptable without toxins",
			in: Inputs{
				Safety: types.SafetyAssessment{Score: 6, Compliance: types.ComplianceReport{OverallStatus: safety.CompliantWithWarnings, Warnings: 1}},
			},
			want: []string{
				"Food sample shows acceptable safety with minor concerns",
				"No suspected toxins screened",
				"1 detected levels approach regulatory limits",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFindings(tt.in))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML, " text ": FormatText} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestRenderJSON(t *testing.T) {
	r := Assemble(context.Background(), "run-1", sample(), inputs(false), nil, generated).Report
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	summary := decoded["executive_summary"].(map[string]any)
	assert.Equal(t, 5.5, summary["safety_score"])
	assert.Equal(t, "moderate", summary["risk_level"])
	stages := decoded["stages"].(map[string]any)
	assert.Contains(t, stages, "reporting")
	assert.Contains(t, stages, "safety_assessment")
}

func TestRenderYAML(t *testing.T) {
	r := Assemble(context.Background(), "run-1", sample(), inputs(false), nil, generated).Report
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatYAML))

	var decoded struct {
		RunID   string                 `yaml:"run_id"`
		Summary types.ExecutiveSummary `yaml:"executive_summary"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, types.RiskModerate, decoded.Summary.RiskLevel)
}

func TestRenderText(t *testing.T) {
	r := Assemble(context.Background(), "run-1", sample(), inputs(true), nil, generated).Report
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatText))

	out := buf.String()
	assert.Contains(t, out, "FOOD SAFETY REPORT  Fresh Dairy Milk (DM-001)")
	assert.Contains(t, out, "Safety score: 5.50/10  Risk level: MODERATE  Confidence: 0.75  (degraded)")
	assert.Contains(t, out, "mean_stability")
	assert.Contains(t, out, "6 (degraded)")
	assert.Contains(t, out, "[MEDIUM  ] Monitoring & Testing")
	assert.Contains(t, out, "CCP-1")
	assert.Contains(t, out, "Regulatory compliance (eu_efsa): fully_compliant")
	assert.Contains(t, out, "Schedule follow-up analysis as needed")
}

func TestRenderUnknownFormat(t *testing.T) {
	assert.Error(t, Render(&bytes.Buffer{}, &types.SafetyReport{}, Format("pdf")))
}
